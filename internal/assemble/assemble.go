package assemble

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/ffmpeg"
	"github.com/backmassage/compatmux/internal/naming"
	"github.com/backmassage/compatmux/internal/planner"
	"github.com/backmassage/compatmux/internal/probe"
	"github.com/backmassage/compatmux/internal/rules"
)

// simpleBatchName is the stem of the file shared by batched conversions.
const simpleBatchName = "simple_conversion"

// twoPassLogs are written by libx264 in the working directory of the script.
var twoPassLogs = []string{"ffmpeg2pass-0.log.mbtree", "ffmpeg2pass-0.log"}

// Assembler builds plans. It only reads its fields and is safe for
// concurrent use with distinct allocators.
type Assembler struct {
	Planner      *planner.Planner
	Rules        rules.FormatRules
	Compat       *rules.Compatibility
	Builder      *ffmpeg.Builder
	KeepOriginal map[config.StreamType]bool
	Mkvmerge     string // mkvmerge executable; mkv outputs are rewritten by it.
	Log          planner.Logger
}

// New wires an Assembler from cfg and the loaded tables.
func New(cfg *config.Config, fr rules.FormatRules, compat *rules.Compatibility, log planner.Logger) *Assembler {
	return &Assembler{
		Planner:      planner.New(cfg, fr, compat, log),
		Rules:        fr,
		Compat:       compat,
		Builder:      ffmpeg.NewBuilder(cfg),
		KeepOriginal: cfg.KeepOriginalPolicy(),
		Mkvmerge:     cfg.Mkvmerge,
		Log:          log,
	}
}

// Request describes one planning attempt.
type Request struct {
	Source  string
	Format  string // Target container extension, e.g. "mp4".
	Output  string
	TempDir string
	Probe   *probe.ProbeResult
	Paths   *naming.Allocator // Temp file names are claimed here.
}

// Plan classifies every stream of req.Probe for req.Format and emits the
// command list:
//
//  1. create the temp directory
//  2. one batched command for the simple conversions
//  3. one command per step of every complex chain
//  4. an existence check per file read by the remux step
//  5. the remux
//  6. remove the temp directory
//  7. post-processing (mkvmerge rewrite, two-pass log removal)
//
// Any stream the container cannot hold rejects the plan with an error
// wrapping planner.ErrCompatibility.
func (a *Assembler) Plan(req Request) (*Plan, error) {
	if !a.Rules.Has(req.Format) {
		return nil, fmt.Errorf("%w: no format rules for %q", planner.ErrCompatibility, req.Format)
	}

	streams, err := a.classify(req)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Source:  req.Source,
		Format:  req.Format,
		Output:  req.Output,
		TempDir: req.TempDir,
		Streams: streams,
	}
	p.Commands = append(p.Commands, ffmpeg.MakeDir(req.TempDir))

	if err := a.batchSimple(p, req.Paths); err != nil {
		return nil, err
	}
	for i := range p.Streams {
		if p.Streams[i].Class != ClassComplex {
			continue
		}
		cmds, res, err := a.chain(p.Streams[i], req)
		if err != nil {
			return nil, err
		}
		p.Commands = append(p.Commands, cmds...)
		p.Streams[i].Result = res
	}

	remux := a.remuxInput(p, req.Probe)
	p.TempFiles = remux.TempFiles()
	for _, f := range p.TempFiles {
		p.Commands = append(p.Commands, ffmpeg.AssertExists(f))
	}
	p.Commands = append(p.Commands, a.Builder.Remux(remux))
	p.Commands = append(p.Commands, ffmpeg.RemoveDir(req.TempDir))
	p.Commands = append(p.Commands, a.postProcess(p)...)
	return p, nil
}

// classify plans every stream and sorts it into a Class. The source
// container decides whether a single conversion can share the batch
// command: the batch output keeps the source extension.
func (a *Assembler) classify(req Request) ([]StreamPlan, error) {
	srcContainer := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Source), "."))

	out := make([]StreamPlan, 0, len(req.Probe.Streams))
	for _, s := range req.Probe.Streams {
		pl, err := a.Planner.Classify(s, req.Format)
		if err != nil {
			return nil, err
		}
		if err := planner.CheckCompatibility(s, pl, req.Format, a.Compat, a.KeepOriginal[s.Type]); err != nil {
			return nil, err
		}

		sp := StreamPlan{Stream: s, Pipeline: pl, Class: ClassComplex}
		switch {
		case pl.IsDrop():
			sp.Class = ClassDrop
		case pl.IsCopy():
			sp.Class = ClassCopy
		case len(pl) == 1:
			if c, ok := pl[0].(planner.Convert); ok && a.Compat.Supports(srcContainer, c.OutCodec) {
				sp.Class = ClassSimple
			}
		}
		out = append(out, sp)
	}
	return out, nil
}

// batchSimple appends the shared conversion command. Output stream N of
// the batch file is the Nth simple stream in source index order.
func (a *Assembler) batchSimple(p *Plan, paths *naming.Allocator) error {
	var batch []ffmpeg.BatchStream
	var idx []int
	for i, s := range p.Streams {
		if s.Class != ClassSimple {
			continue
		}
		c, ok := s.Pipeline[0].(planner.Convert)
		if !ok {
			return fmt.Errorf("%w: stream %d classified simple without a conversion", planner.ErrPipelineIntegrity, s.Stream.Index)
		}
		batch = append(batch, ffmpeg.BatchStream{Index: s.Stream.Index, Step: c})
		idx = append(idx, i)
	}
	if len(batch) == 0 {
		return nil
	}

	file := paths.Claim(p.TempDir, simpleBatchName+filepath.Ext(p.Source))
	p.Commands = append(p.Commands, a.Builder.SimpleBatch(p.Source, file, batch))
	for out, i := range idx {
		p.Streams[i].Result = ffmpeg.TempStream{File: file, Stream: out}
	}
	return nil
}

// chain materializes a complex pipeline: each step reads what the previous
// one wrote (the source stream for the first step). A final step without
// an output format writes the target container. Discarded outputs do not
// advance the chain.
func (a *Assembler) chain(sp StreamPlan, req Request) ([]ffmpeg.Command, ffmpeg.TempStream, error) {
	var cmds []ffmpeg.Command
	in, inStream := req.Source, sp.Stream.Index

	for _, step := range sp.Pipeline {
		format := step.Format()
		if format == "" {
			format = req.Format
		}

		var out string
		ext, isExternal := step.(planner.External)
		switch {
		case format == planner.Discard:
			out = a.Builder.NullPath
		case isExternal && ext.Output != nil:
			out = ext.Output(in)
		default:
			out = req.Paths.Claim(req.TempDir, naming.ChainFileName(in, inStream, step.Codec(), format))
		}

		cmd, err := a.Builder.Step(step, in, inStream, out)
		if err != nil {
			return nil, ffmpeg.TempStream{}, fmt.Errorf("stream %d: %w", sp.Stream.Index, err)
		}
		cmds = append(cmds, cmd)

		if format != planner.Discard {
			in, inStream = out, 0
		}
	}
	if in == req.Source {
		return nil, ffmpeg.TempStream{}, fmt.Errorf("%w: stream %d chain produced no file", planner.ErrPipelineIntegrity, sp.Stream.Index)
	}
	return cmds, ffmpeg.TempStream{File: in, Stream: inStream}, nil
}

func (a *Assembler) remuxInput(p *Plan, pr *probe.ProbeResult) ffmpeg.RemuxInput {
	in := ffmpeg.RemuxInput{
		Source:       p.Source,
		Output:       p.Output,
		Streams:      pr.Streams,
		Converted:    make(map[int]ffmpeg.TempStream),
		Copied:       make(map[int]bool),
		Dropped:      make(map[int]bool),
		KeepOriginal: a.KeepOriginal,
	}
	for _, s := range p.Streams {
		switch s.Class {
		case ClassCopy:
			in.Copied[s.Stream.Index] = true
		case ClassDrop:
			in.Dropped[s.Stream.Index] = true
		default:
			in.Converted[s.Stream.Index] = s.Result
		}
	}
	return in
}

// postProcess rewrites mkv outputs with mkvmerge, which fixes the index
// ffmpeg writes for streams copied from several inputs, and removes the
// libx264 two-pass logs.
func (a *Assembler) postProcess(p *Plan) []ffmpeg.Command {
	var cmds []ffmpeg.Command
	if p.Format == string(config.ContainerMKV) {
		tmp := naming.MkvTempPath(p.Output)
		cmds = append(cmds,
			ffmpeg.Rename(p.Output, tmp),
			ffmpeg.Exec(a.Mkvmerge, "-o", p.Output, tmp),
			ffmpeg.Delete(tmp),
		)
	}
	if p.TwoPass() {
		for _, f := range twoPassLogs {
			cmds = append(cmds, ffmpeg.Delete(f))
		}
	}
	return cmds
}
