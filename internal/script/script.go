package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/ffmpeg"
)

// RunnerName is the stem of the single script calling every per-file script.
const RunnerName = "optimize_all"

// ErrLocked means another process is writing the same script.
var ErrLocked = errors.New("script is locked by another process")

// Script is one plan ready to be serialized.
type Script struct {
	Dialect  config.ScriptDialect
	PlanID   string
	Source   string
	Commands []ffmpeg.Command
}

// Render returns the script text.
func (s Script) Render() (string, error) {
	d, err := dialectOf(s.Dialect)
	if err != nil {
		return "", err
	}
	lines := append([]string{}, d.header...)
	lines = append(lines, d.comment+" compatmux plan "+s.PlanID)
	if s.Source != "" {
		lines = append(lines, d.comment+" source: "+s.Source)
	}
	lines = append(lines, "")
	for _, c := range s.Commands {
		lines = append(lines, d.macro(c, d.quote), "")
	}
	return strings.Join(lines, d.newline), nil
}

// Runner lists per-file scripts called in order by the single script.
type Runner struct {
	Dialect config.ScriptDialect
	RunID   string
	Scripts []string
}

// Render returns the runner text. Each script is announced then called.
func (r Runner) Render() (string, error) {
	d, err := dialectOf(r.Dialect)
	if err != nil {
		return "", err
	}
	lines := append([]string{}, d.header...)
	lines = append(lines, d.comment+" compatmux run "+r.RunID, "")
	for _, s := range r.Scripts {
		lines = append(lines, d.echo+" "+d.quote("Running "+s), d.call+" "+d.quote(s), "")
	}
	return strings.Join(lines, d.newline), nil
}

// Ext returns the file extension of dialect d.
func Ext(d config.ScriptDialect) string {
	if d == config.ScriptBatch {
		return batch.ext
	}
	return bash.ext
}

// Write renders s into path.
func Write(path string, s Script) error {
	text, err := s.Render()
	if err != nil {
		return err
	}
	return writeLocked(path, text, s.Dialect)
}

// WriteRunner renders r into path.
func WriteRunner(path string, r Runner) error {
	text, err := r.Render()
	if err != nil {
		return err
	}
	return writeLocked(path, text, r.Dialect)
}

// writeLocked holds "<path>.lock" while the content goes to a sibling temp
// file that is then renamed over path. Bash scripts are made executable.
func writeLocked(path, text string, d config.ScriptDialect) error {
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	mode := os.FileMode(0o644)
	if d == config.ScriptBash {
		mode = 0o755
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create script: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write script: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod script: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install script: %w", err)
	}
	return nil
}
