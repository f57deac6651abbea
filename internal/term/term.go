// Package term holds the ANSI color state shared by the logger and the
// table renderers, and answers whether a stream is a terminal.
//
// The color variables are empty strings while colors are off, so callers
// concatenate them unconditionally.
package term

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/backmassage/compatmux/internal/config"
)

// Color escapes. Set by [Configure].
var (
	Red     string
	Green   string
	Yellow  string
	Blue    string
	Cyan    string
	Magenta string
	NC      string // Reset.
)

// palette pairs each color variable with its bright bold escape.
var palette = []struct {
	dst *string
	seq string
}{
	{&Red, "\033[1;91m"},
	{&Green, "\033[1;92m"},
	{&Yellow, "\033[1;93m"},
	{&Blue, "\033[1;94m"},
	{&Magenta, "\033[1;95m"},
	{&Cyan, "\033[1;96m"},
	{&NC, "\033[0m"},
}

// Configure turns colors on or off for the whole process. It is called
// once from logging.NewLogger.
func Configure(mode config.ColorMode) {
	on := Wanted(mode, os.Stdout)
	for _, p := range palette {
		*p.dst = ""
		if on {
			*p.dst = p.seq
		}
	}
}

// Enabled reports whether colors are on.
func Enabled() bool { return NC != "" }

// Wanted decides mode for output going to f. Auto honours NO_COLOR
// (https://no-color.org) and TERM=dumb.
func Wanted(mode config.ColorMode, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return IsTerminal(f)
}

// IsTerminal reports whether f is attached to a terminal, Cygwin and MSYS
// pseudo-terminals included.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
