package planner

import (
	"fmt"
	"strings"

	"github.com/backmassage/compatmux/internal/probe"
)

// Pipeline is the ordered list of steps planned for one stream.
type Pipeline []Step

// Single returns a one-step pipeline.
func Single(s Step) Pipeline { return Pipeline{s} }

// IsDrop reports whether the stream is removed from the output.
func (p Pipeline) IsDrop() bool {
	if len(p) != 1 {
		return false
	}
	_, ok := p[0].(Drop)
	return ok
}

// IsCopy reports whether the stream is kept without any transformation.
func (p Pipeline) IsCopy() bool {
	if len(p) != 1 {
		return false
	}
	_, ok := p[0].(Copy)
	return ok
}

// FinalCodec returns the codec produced by the last step that produces one,
// skipping bitstream copies. It is "" for Copy and Drop pipelines.
func (p Pipeline) FinalCodec() string {
	codec := ""
	for _, s := range p {
		if c := s.Codec(); c != "" && c != "copy" {
			codec = c
		}
	}
	return codec
}

// Validate checks the structural rules every pipeline must satisfy:
//   - at least one step
//   - Copy and Drop only as the sole step
//   - every step but the last declares an output format
//   - Discard only on a non-final Convert
//   - Extract only as the first step, External never as the first step
func (p Pipeline) Validate() error {
	if len(p) == 0 {
		return integrityErr("empty pipeline")
	}
	last := len(p) - 1
	for i, s := range p {
		switch s.(type) {
		case Copy, Drop:
			if len(p) != 1 {
				return integrityErr("%s step in a %d-step pipeline", s.Repr(), len(p))
			}
			continue
		case Extract:
			if i != 0 {
				return integrityErr("extract at step %d", i+1)
			}
		case External:
			if i == 0 {
				return integrityErr("external command without an input file")
			}
		}
		f := s.Format()
		if i < last && f == "" {
			return integrityErr("step %d (%s) has no output format", i+1, s.Repr())
		}
		if f == Discard {
			if i == last {
				return integrityErr("final step writes to the discard path")
			}
			if _, ok := s.(Convert); !ok {
				return integrityErr("only a conversion may discard its output (step %d)", i+1)
			}
		}
	}
	return nil
}

// Describe renders the progress line for a stream, or "" for streams that
// are copied untouched.
func Describe(s probe.StreamInfo, p Pipeline) string {
	if p.IsDrop() {
		return fmt.Sprintf("Dropping stream %d (%s %s)", s.Index, s.Codec, s.Type)
	}
	if p.IsCopy() {
		return ""
	}
	lang := ""
	if l := s.Language(); l != "" {
		lang = " (lang:" + l + ")"
	}
	parts := make([]string, 0, len(p)+1)
	parts = append(parts, s.Codec)
	for _, st := range p {
		parts = append(parts, st.Repr())
	}
	return fmt.Sprintf("Optimizing stream %d%s: %s", s.Index, lang, strings.Join(parts, " -> "))
}
