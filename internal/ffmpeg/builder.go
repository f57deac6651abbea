package ffmpeg

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/planner"
)

// Builder crafts ffmpeg commands sharing one global preamble.
type Builder struct {
	// Base is the executable plus global options, e.g.
	// ffmpeg -loglevel warning -stats -probesize 100G -analyzeduration 100G.
	Base []string
	// NullPath receives the output of discarded steps.
	NullPath string
}

// NewBuilder returns a Builder for the host OS using the ffmpeg settings of cfg.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		Base: []string{
			"ffmpeg",
			"-loglevel", cfg.FFmpegLogLevel,
			"-stats",
			"-probesize", cfg.FFmpegProbesize,
			"-analyzeduration", cfg.FFmpegAnalyzeDuration,
		},
		NullPath: NullPath(runtime.GOOS),
	}
}

// NullPath returns the discard device for goos.
func NullPath(goos string) string {
	if goos == "windows" {
		return "NUL"
	}
	return "/dev/null"
}

func (b *Builder) call(extra int) []string {
	args := make([]string, 0, len(b.Base)+extra)
	return append(args, b.Base...)
}

// BatchStream is one stream of a batched simple conversion.
type BatchStream struct {
	Index int // Stream index in the source file.
	Step  planner.Convert
}

// SimpleBatch converts every stream of streams from src into out in a
// single ffmpeg run. Output stream N is streams[N].
func (b *Builder) SimpleBatch(src, out string, streams []BatchStream) Command {
	args := b.call(8 + 8*len(streams))
	args = append(args, "-i", src)
	for outIdx, s := range streams {
		bind := planner.Binding{InFile: src, InFileIdx: 0, InStream: s.Index, OutStream: outIdx, OutFile: out}
		args = append(args, convertArgs(s.Step, bind)...)
	}
	args = append(args, out)
	return Exec(args...)
}

// Step crafts the command running one chain step that reads stream
// inStream of in and writes out. Steps writing to NullPath overwrite
// without asking.
func (b *Builder) Step(step planner.Step, in string, inStream int, out string) (Command, error) {
	bind := planner.Binding{InFile: in, InFileIdx: 0, InStream: inStream, OutStream: 0, OutFile: out}
	switch s := step.(type) {
	case planner.Convert:
		return b.encode(in, out, convertArgs(s, bind)), nil
	case planner.Extract:
		args := []string{"-map", mapSpec(bind), "-c", s.OutCodec}
		return b.encode(in, out, append(args, planner.ResolveAll(s.Params, bind)...)), nil
	case planner.External:
		return Exec(planner.ResolveAll(s.Command, bind)...), nil
	default:
		return Command{}, fmt.Errorf("%w: %s step cannot run as a command", planner.ErrPipelineIntegrity, step.Repr())
	}
}

func (b *Builder) encode(in, out string, streamArgs []string) Command {
	args := b.call(len(streamArgs) + 4)
	if out == b.NullPath {
		args = append(args, "-y")
	}
	args = append(args, "-i", in)
	args = append(args, streamArgs...)
	return Exec(append(args, out)...)
}

// convertArgs maps one input stream to one output stream and encodes it.
func convertArgs(s planner.Convert, bind planner.Binding) []string {
	args := []string{"-map", mapSpec(bind), "-c:" + strconv.Itoa(bind.OutStream), s.OutCodec}
	return append(args, planner.ResolveAll(s.Params, bind)...)
}

func mapSpec(bind planner.Binding) string {
	return strconv.Itoa(bind.InFileIdx) + ":" + strconv.Itoa(bind.InStream)
}
