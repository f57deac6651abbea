// Package assemble turns the per-stream pipelines of one source file and
// one target container into the ordered command list of a plan: temp
// directory, batched simple conversions, per-stream conversion chains,
// existence checks, the final remux, cleanup and container-specific
// post-processing.
//
// A plan is all or nothing. When any stream cannot be represented in the
// target container the whole plan is rejected and no command is returned.
package assemble
