package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrPipelineIntegrity marks a malformed pipeline. It always points at a
	// conversion rule bug, never at the input file.
	ErrPipelineIntegrity = errors.New("pipeline integrity violation")

	// ErrCompatibility marks a plan the target container cannot hold.
	ErrCompatibility = errors.New("codec not compatible with container")
)

// CompatibilityError names the stream and codec that rejected a plan.
type CompatibilityError struct {
	Stream    int
	Codec     string
	Container string
	Original  bool // The kept original stream failed, not the converted one.
}

func (e *CompatibilityError) Error() string {
	if e.Original {
		return fmt.Sprintf("stream %d: cannot keep original %s in %s", e.Stream, e.Codec, e.Container)
	}
	return fmt.Sprintf("stream %d: codec %s not compatible with %s", e.Stream, e.Codec, e.Container)
}

// Unwrap lets errors.Is match ErrCompatibility.
func (e *CompatibilityError) Unwrap() error { return ErrCompatibility }

func integrityErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPipelineIntegrity, fmt.Sprintf(format, args...))
}
