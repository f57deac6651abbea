package vtt

import (
	"bytes"
	"fmt"
	"os"
)

// Stats summarizes one SanitizeFile run.
type Stats struct {
	In         int // Cues read.
	Out        int // Cues written.
	Collisions int // Colliding pairs in the input.
}

// SanitizeFile normalizes the WebVTT file at in and writes the result to
// out. out is only written when normalization succeeds.
func SanitizeFile(in, out string) (Stats, error) {
	f, err := os.Open(in)
	if err != nil {
		return Stats{}, err
	}
	cues, err := Parse(f)
	f.Close()
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", in, err)
	}

	st := Stats{In: len(cues), Collisions: Collisions(cues)}
	norm, err := Normalize(cues)
	if err != nil {
		return st, fmt.Errorf("%s: %w", in, err)
	}
	st.Out = len(norm)

	var buf bytes.Buffer
	if err := Write(&buf, norm); err != nil {
		return st, err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return st, fmt.Errorf("write %s: %w", out, err)
	}
	return st, nil
}
