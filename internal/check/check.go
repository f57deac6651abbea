// Package check provides system diagnostics (the check subcommand),
// pre-run dependency validation (CheckDeps) and the container
// compatibility tester that produces the compatibility table.
package check

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/backmassage/compatmux/internal/config"
)

// Sentinel errors for missing tools.
var (
	ErrFfmpegNotFound   = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound  = errors.New("ffprobe not found on PATH")
	ErrMkvmergeNotFound = errors.New("mkvmerge not found on PATH")
	ErrDotnetNotFound   = errors.New("dotnet not found on PATH")
	ErrPgsToSrtNotFound = errors.New("PgsToSrt.dll not found")
)

// Logger is the minimal logging interface needed by this package.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// lookPath and runVersion are replaced in tests.
var (
	lookPath   = exec.LookPath
	runVersion = func(bin string, args ...string) (string, error) {
		out, err := exec.Command(bin, args...).Output()
		return string(out), err
	}
)

// Tool is one external program the generated scripts or the planner call.
type Tool struct {
	Name        string
	Binary      string
	VersionArgs []string
	Purpose     string
	Missing     error
}

// Tools lists the external programs in check order.
func Tools(cfg *config.Config) []Tool {
	return []Tool{
		{"ffprobe", "ffprobe", []string{"-version"}, "stream probing (required for planning)", ErrFfprobeNotFound},
		{"ffmpeg", "ffmpeg", []string{"-version"}, "runs the generated scripts", ErrFfmpegNotFound},
		{"mkvmerge", cfg.Mkvmerge, []string{"--version"}, "finalizes mkv outputs", ErrMkvmergeNotFound},
		{"dotnet", cfg.Dotnet, []string{"--version"}, "runs PgsToSrt for image subtitle OCR", ErrDotnetNotFound},
	}
}

// RunCheck prints the availability and version of every tool. This is
// informational only; it does not stop on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")
	for _, t := range Tools(cfg) {
		checkTool(t, log)
	}
	if _, err := os.Stat(cfg.PgsToSrt); err != nil {
		log.Warn("PgsToSrt: %s not found (image subtitles cannot be converted)", cfg.PgsToSrt)
	} else {
		log.Success("PgsToSrt: %s", cfg.PgsToSrt)
	}
}

// checkTool verifies t is on PATH and logs the first line of its version.
func checkTool(t Tool, log Logger) {
	path, err := lookPath(t.Binary)
	if err != nil {
		log.Error("%s not found (%s)", t.Name, t.Purpose)
		return
	}
	out, err := runVersion(path, t.VersionArgs...)
	if err != nil {
		log.Warn("%s found at %s but %s failed: %v", t.Name, path, strings.Join(t.VersionArgs, " "), err)
		return
	}
	log.Success("%s: %s", t.Name, firstLine(out))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// CheckDeps is the pre-run validation. Planning only needs ffprobe; the
// other tools are needed when the scripts run, so their absence is
// reported through warn.
func CheckDeps(cfg *config.Config, warn func(string, ...interface{})) error {
	tools := Tools(cfg)
	if _, err := lookPath(tools[0].Binary); err != nil {
		return tools[0].Missing
	}
	for _, t := range tools[1:] {
		if _, err := lookPath(t.Binary); err != nil && warn != nil {
			warn("%v: generated scripts need it for %s", t.Missing, t.Purpose)
		}
	}
	return nil
}

// CheckTesterDeps verifies what the compatibility tester runs.
func CheckTesterDeps() error {
	if _, err := lookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	return nil
}
