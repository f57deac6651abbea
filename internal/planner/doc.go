// Package planner decides, per stream, how a source stream becomes
// acceptable to a target container, and expresses the answer as a Pipeline
// of Steps that the ffmpeg and assemble packages turn into commands.
//
// Implemented:
//   - Step variant (Convert, Copy, Extract, External, Drop), symbolic
//     argument slots and Pipeline validation (step.go, pipeline.go)
//   - Planner.Classify: passthrough, bitrate ceiling and unknown-codec
//     policy over the format rule table (planner.go)
//   - Conversion rule registry with the video, audio and subtitle
//     generators (registry.go, video.go, audio.go, subtitle.go)
//   - Container compatibility checks for a planned stream (compat.go)
package planner
