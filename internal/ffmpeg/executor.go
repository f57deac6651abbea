package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// ExecResult holds the outcome of a single invocation.
type ExecResult struct {
	Stdout string
	Stderr string
	Err    error
}

// Execute runs args[0] with the remaining arguments. stderr is captured for
// classification and, when tee is non-nil, also copied to tee as it arrives.
func Execute(ctx context.Context, args []string, tee io.Writer) ExecResult {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	if tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	return ExecResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}
