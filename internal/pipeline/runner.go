package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/backmassage/compatmux/internal/assemble"
	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/display"
	"github.com/backmassage/compatmux/internal/logging"
	"github.com/backmassage/compatmux/internal/naming"
	"github.com/backmassage/compatmux/internal/planner"
	"github.com/backmassage/compatmux/internal/probe"
	"github.com/backmassage/compatmux/internal/rules"
	"github.com/backmassage/compatmux/internal/script"
)

// Sources smaller than this are treated as broken and skipped.
const minFileSize = 1000

// ProbeFunc returns the stream table of one file.
type ProbeFunc func(ctx context.Context, path string) (*probe.ProbeResult, error)

// Runner plans a directory of sources.
type Runner struct {
	Cfg       *config.Config
	Log       *logging.Logger
	Assembler *assemble.Assembler
	Probe     ProbeFunc
	Paths     *naming.Allocator
	Out       io.Writer // Plan tables and dry-run commands.
	NewID     func() string
}

// NewRunner checks that every configured format is known to both tables
// and wires the default collaborators.
func NewRunner(cfg *config.Config, log *logging.Logger, fr rules.FormatRules, compat *rules.Compatibility) (*Runner, error) {
	for _, f := range cfg.Formats {
		if !fr.Has(f) {
			return nil, fmt.Errorf("%w: no format rules for %q", rules.ErrConfiguration, f)
		}
		if !compat.Has(f) {
			return nil, fmt.Errorf("%w: compatibility table has no entry for %q", rules.ErrConfiguration, f)
		}
	}
	return &Runner{
		Cfg:       cfg,
		Log:       log,
		Assembler: assemble.New(cfg, fr, compat, log),
		Probe:     probe.New().Probe,
		Paths:     naming.NewAllocator(nil),
		Out:       os.Stdout,
		NewID:     uuid.NewString,
	}, nil
}

// Run discovers sources, plans each one, writes the scripts and returns
// aggregate stats. Configuration and pipeline integrity errors stop the
// run and are returned; every other failure only affects its file.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	files, err := Discover(r.Cfg.InputDir, r.Cfg.Recursive)
	if err != nil {
		return stats, fmt.Errorf("discover sources: %w", err)
	}
	if r.Cfg.JustOne && len(files) > 1 {
		files = files[:1]
	}
	stats.Total = len(files)
	r.logBatchHeader(&stats)

	for i, path := range files {
		if ctx.Err() != nil {
			r.Log.Warn("Interrupted")
			break
		}
		stats.Current = i + 1
		if err := r.processFile(ctx, path, &stats); err != nil {
			return stats, err
		}
	}

	if r.Cfg.SingleScript && !r.Cfg.DryRun && len(stats.Scripts) > 0 {
		r.writeRunner(&stats)
	}
	r.logSummary(&stats)
	return stats, nil
}

// processFile handles one source: validate, probe, plan, write.
func (r *Runner) processFile(ctx context.Context, path string, stats *RunStats) error {
	basename := filepath.Base(path)
	r.Log.Info("[%d/%d] %s", stats.Current, stats.Total, basename)

	fi, err := os.Stat(path)
	if err != nil {
		r.Log.Error("File not found: %s", path)
		stats.Failed++
		return nil
	}
	if fi.Size() < minFileSize {
		r.Log.Warn("File too small (possibly corrupt), skipping")
		stats.Skipped++
		return nil
	}

	pr, err := r.Probe(ctx, path)
	if err != nil {
		r.Log.Error("Cannot probe file: %v", err)
		stats.Failed++
		return nil
	}
	if len(pr.Streams) == 0 {
		r.Log.Warn("No stream found, skipping")
		stats.Skipped++
		return nil
	}
	r.Log.Debug("Probed %d streams (%s)", len(pr.Streams), pr.Method)

	plan, err := r.planFile(path, pr)
	switch {
	case errors.Is(err, rules.ErrConfiguration), errors.Is(err, planner.ErrPipelineIntegrity):
		return fmt.Errorf("%s: %w", basename, err)
	case err != nil:
		r.Log.Error("%v", err)
		stats.Failed++
		return nil
	}

	fmt.Fprintln(r.Out, display.RenderPlan(plan))

	if r.Cfg.DryRun {
		for _, c := range plan.Commands {
			fmt.Fprintln(r.Out, "  "+c.String())
		}
		r.Log.Success("[DRY] Would plan %s as %s", basename, filepath.Base(plan.Output))
		stats.record(plan.Format, fi.Size())
		return nil
	}

	scriptPath := r.Paths.Claim(filepath.Dir(path), naming.ScriptName(path, r.Cfg.Mode, r.Cfg.ScriptExt()))
	id := r.NewID()
	err = script.Write(scriptPath, script.Script{
		Dialect:  r.Cfg.Dialect(),
		PlanID:   id,
		Source:   path,
		Commands: plan.Commands,
	})
	if err != nil {
		r.Log.Error("Cannot write script: %v", err)
		stats.Failed++
		return nil
	}
	r.Log.Success("Script written: %s (plan %s)", filepath.Base(scriptPath), id)
	stats.record(plan.Format, fi.Size())
	stats.Scripts = append(stats.Scripts, scriptPath)
	return nil
}

// planFile tries the configured formats in order. Names claimed by a
// rejected attempt are dropped with its scope.
func (r *Runner) planFile(path string, pr *probe.ProbeResult) (*assemble.Plan, error) {
	dir := filepath.Dir(path)
	var rejected []string
	for _, format := range r.Cfg.Formats {
		scope := r.Paths.Scope()
		req := assemble.Request{
			Source:  path,
			Format:  format,
			Output:  scope.Claim(dir, naming.OutputName(path, r.Cfg.Mode, format)),
			TempDir: scope.Claim(dir, naming.TempDirName(path)),
			Probe:   pr,
			Paths:   scope,
		}
		plan, err := r.Assembler.Plan(req)
		if errors.Is(err, planner.ErrCompatibility) {
			r.Log.Warn("Aborting conversion to %s: %v", format, err)
			rejected = append(rejected, format)
			continue
		}
		if err != nil {
			return nil, err
		}
		scope.Commit()
		return plan, nil
	}
	return nil, fmt.Errorf("no compatible format (tried %s)", strings.Join(rejected, ", "))
}

func (r *Runner) writeRunner(stats *RunStats) {
	path := filepath.Join(r.Cfg.InputDir, script.RunnerName+"."+r.Cfg.ScriptExt())
	err := script.WriteRunner(path, script.Runner{
		Dialect: r.Cfg.Dialect(),
		RunID:   r.NewID(),
		Scripts: stats.Scripts,
	})
	if err != nil {
		r.Log.Error("Cannot write %s: %v", filepath.Base(path), err)
		return
	}
	r.Log.Success("Single script written: %s", path)
}

// --- Logging helpers ---

func (r *Runner) logBatchHeader(stats *RunStats) {
	cfg := r.Cfg
	r.Log.Info("Found %d files", stats.Total)
	r.Log.Info("Mode: %s, formats: %s", cfg.Mode, strings.Join(cfg.Formats, " > "))
	if cfg.TwoPass() {
		r.Log.Info("Video: h264 two-pass at %s (preset %s)", cfg.X264TargetBitrate, cfg.X264Preset)
	} else {
		r.Log.Info("Video: h264 CRF %s (preset %s)", cfg.X264CRF, cfg.X264Preset)
	}
	r.Log.Info("Bitrate limit: %s", display.FormatBitrate(cfg.BitrateLimitBPS))
	r.Log.Info("Scripts: %s", cfg.Dialect())
	if cfg.Mode == config.ModeFull {
		r.Log.Warn("Full mode keeps every original stream next to its converted copy; outputs can be much larger than the sources")
	}
	if cfg.DryRun {
		r.Log.Info("Dry run: no script will be written")
	}
}

func (r *Runner) logSummary(stats *RunStats) {
	r.Log.Info("==============================")
	r.Log.Info("Done: %d planned, %d skipped, %d failed", stats.Planned, stats.Skipped, stats.Failed)
	formats := make([]string, 0, len(stats.Formats))
	for f := range stats.Formats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	for _, f := range formats {
		r.Log.Info("  %s: %d", f, stats.Formats[f])
	}
	r.Log.Info("  Total source size: %s", display.FormatBytes(stats.TotalInputBytes))
}
