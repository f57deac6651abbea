package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/compatmux/internal/config"
)

func TestConfigure(t *testing.T) {
	defer Configure(config.ColorNever)

	Configure(config.ColorAlways)
	if !Enabled() || Red == "" {
		t.Error("ColorAlways should enable colors")
	}
	Configure(config.ColorNever)
	if Enabled() || Red != "" {
		t.Error("ColorNever should clear colors")
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
	if IsTerminal(nil) {
		t.Error("nil is not a terminal")
	}
}

func TestWanted(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "xterm")
	if !Wanted(config.ColorAlways, nil) {
		t.Error("always should win over a missing terminal")
	}
	if Wanted(config.ColorNever, os.Stdout) {
		t.Error("never should win")
	}
	if Wanted(config.ColorAuto, nil) {
		t.Error("auto without a terminal should be off")
	}
	t.Setenv("NO_COLOR", "1")
	if Wanted(config.ColorAuto, os.Stdout) {
		t.Error("NO_COLOR should turn auto off")
	}
}
