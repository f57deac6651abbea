package assemble

import (
	"github.com/backmassage/compatmux/internal/ffmpeg"
	"github.com/backmassage/compatmux/internal/planner"
	"github.com/backmassage/compatmux/internal/probe"
)

// Class is how a stream reaches the remux step.
type Class int

const (
	ClassCopy    Class = iota // Taken from the source as is.
	ClassSimple               // Converted in the shared batch command.
	ClassComplex              // Converted through a private chain of temp files.
	ClassDrop                 // Left out.
)

func (c Class) String() string {
	switch c {
	case ClassCopy:
		return "copy"
	case ClassSimple:
		return "simple"
	case ClassComplex:
		return "complex"
	case ClassDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// StreamPlan is the decision for one source stream.
type StreamPlan struct {
	Stream   probe.StreamInfo
	Pipeline planner.Pipeline
	Class    Class
	Result   ffmpeg.TempStream // Where the converted stream ends up (simple and complex only).
}

// Plan is the accepted plan of one (source, target format) pair.
type Plan struct {
	Source    string
	Format    string
	Output    string
	TempDir   string
	Streams   []StreamPlan
	TempFiles []string // Files read by the remux step, in input order.
	Commands  []ffmpeg.Command
}

// Count returns how many streams fall in class c.
func (p *Plan) Count(c Class) int {
	n := 0
	for _, s := range p.Streams {
		if s.Class == c {
			n++
		}
	}
	return n
}

// TwoPass reports whether any stream is encoded in two passes.
func (p *Plan) TwoPass() bool {
	for _, s := range p.Streams {
		for _, st := range s.Pipeline {
			if st.Format() == planner.Discard {
				return true
			}
		}
	}
	return false
}
