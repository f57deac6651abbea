// Package ffmpeg turns planned steps into commands: the argv commands that
// run ffmpeg or an external tool, plus the structural pseudo-commands
// (assert-exists, mkdir, rmdir, rename, delete) a script writer expands.
//
// Implemented:
//   - Command model and constructors (command.go)
//   - Builder: global ffmpeg call, batched simple conversions, one command
//     per chain step, trial encodes (builder.go)
//   - Remux: the final command merging converted and original streams
//     (remux.go)
//   - stderr classifiers, TrialState retry and Execute, used by the
//     container compatibility tester (errors.go, retry.go, executor.go)
package ffmpeg
