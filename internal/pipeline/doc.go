// Package pipeline orchestrates file discovery, per-file planning with
// target format fallback, script emission, and batch summary reporting.
//
// Each source is probed once. Target formats are then tried in configured
// order: the first accepted plan wins and is written as a script next to
// the source. Temp and output names claimed by a rejected attempt are
// released so they do not shift the names of the next one.
//
// [Analyze] is the read-only companion: it probes the same sources and
// prints their bitrates against the limit.
package pipeline
