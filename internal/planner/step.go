package planner

import "strconv"

// Discard is the output format of a step whose output is thrown away (the
// first pass of a two-pass encode).
const Discard = "[NULL]"

// Slot names a value that is only known when a step becomes a command.
type Slot int

const (
	SlotNone      Slot = iota
	SlotInFile         // Path of the file the step reads.
	SlotInFileIdx      // ffmpeg input index of that file.
	SlotInStream       // Stream position inside the input file.
	SlotOutStream      // Stream position inside the output file.
	SlotOutFile        // Path of the file the step writes.
)

// Binding holds the concrete values for every Slot of one command.
type Binding struct {
	InFile    string
	InFileIdx int
	InStream  int
	OutStream int
	OutFile   string
}

// Value returns the bound value of s.
func (b Binding) Value(s Slot) string {
	switch s {
	case SlotInFile:
		return b.InFile
	case SlotInFileIdx:
		return strconv.Itoa(b.InFileIdx)
	case SlotInStream:
		return strconv.Itoa(b.InStream)
	case SlotOutStream:
		return strconv.Itoa(b.OutStream)
	case SlotOutFile:
		return b.OutFile
	default:
		return ""
	}
}

// Arg is one command-line token: literal text, optionally followed by a
// slot value ("-q:" + SlotOutStream renders as "-q:3").
type Arg struct {
	Text string
	Slot Slot
}

// Lit returns a literal argument.
func Lit(s string) Arg { return Arg{Text: s} }

// Bind returns an argument made of prefix followed by the value of s.
func Bind(prefix string, s Slot) Arg { return Arg{Text: prefix, Slot: s} }

// Lits turns literal strings into arguments.
func Lits(ss ...string) []Arg {
	out := make([]Arg, len(ss))
	for i, s := range ss {
		out[i] = Lit(s)
	}
	return out
}

// Resolve renders the argument against b.
func (a Arg) Resolve(b Binding) string {
	if a.Slot == SlotNone {
		return a.Text
	}
	return a.Text + b.Value(a.Slot)
}

// ResolveAll renders every argument against b.
func ResolveAll(args []Arg, b Binding) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Resolve(b)
	}
	return out
}

// Step is one action of a Pipeline. The concrete types are Convert, Copy,
// Extract, External and Drop.
type Step interface {
	// Codec is the codec the step produces, or "" when it produces none.
	Codec() string
	// Format is the container extension the step writes, Discard, or "".
	Format() string
	// Repr is the label used in progress lines.
	Repr() string
	isStep()
}

// Convert re-encodes the stream to OutCodec.
type Convert struct {
	OutCodec     string
	OutputFormat string // May be "" on a single-step pipeline.
	Params       []Arg
	Note         string // Appended to the codec in progress lines.
}

// Copy keeps the stream as is.
type Copy struct{}

// Extract pulls the stream into a standalone file, optionally converting it
// (OutCodec "copy" keeps the bitstream).
type Extract struct {
	OutCodec     string
	OutputFormat string
	Params       []Arg
}

// OutputResolver computes the path an external tool actually writes, given
// the path it reads.
type OutputResolver func(inFile string) string

// External runs a program other than ffmpeg on the file produced by the
// previous step.
type External struct {
	Command      []Arg
	OutCodec     string
	OutputFormat string
	Label        string         // Progress label; defaults to "<codec> (external)".
	Output       OutputResolver // Nil when the tool honors SlotOutFile.
}

// Drop removes the stream from the output.
type Drop struct{}

func (s Convert) Codec() string  { return s.OutCodec }
func (s Convert) Format() string { return s.OutputFormat }
func (s Convert) Repr() string   { return s.OutCodec + s.Note }
func (Convert) isStep()          {}

func (Copy) Codec() string  { return "" }
func (Copy) Format() string { return "" }
func (Copy) Repr() string   { return "copy" }
func (Copy) isStep()        {}

func (s Extract) Codec() string  { return s.OutCodec }
func (s Extract) Format() string { return s.OutputFormat }
func (s Extract) Repr() string   { return s.OutCodec + " (extract)" }
func (Extract) isStep()          {}

func (s External) Codec() string  { return s.OutCodec }
func (s External) Format() string { return s.OutputFormat }
func (s External) Repr() string {
	if s.Label != "" {
		return s.Label
	}
	return s.OutCodec + " (external)"
}
func (External) isStep() {}

func (Drop) Codec() string  { return "" }
func (Drop) Format() string { return "" }
func (Drop) Repr() string   { return "drop" }
func (Drop) isStep()        {}
