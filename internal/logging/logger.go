// Package logging provides the leveled, optionally colored logger shared by
// every command, with an optional append-mode file sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/term"
)

const timeLayout = "2006-01-02 15:04:05"

// level is one log level: its tag and the color the tag is painted in.
type level struct {
	tag   string
	color func() string
	err   bool // Routed to the error writer.
}

var (
	levelInfo    = level{tag: "INFO", color: func() string { return term.Blue }}
	levelSuccess = level{tag: "SUCCESS", color: func() string { return term.Green }}
	levelWarn    = level{tag: "WARN", color: func() string { return term.Yellow }}
	levelError   = level{tag: "ERROR", color: func() string { return term.Red }, err: true}
	levelDebug   = level{tag: "DEBUG", color: func() string { return term.Cyan }}
)

// Logger writes "YYYY-MM-DD HH:MM:SS [LEVEL] text" lines. It is safe for
// concurrent use.
type Logger struct {
	mu      sync.Mutex
	verbose bool
	plain   bool // Never colored, whatever term says.
	out     io.Writer
	errOut  io.Writer
	file    *os.File
}

// NewLogger configures colors from cfg, then opens cfg.LogFile in append
// mode when set. Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	l := &Logger{verbose: cfg.Verbose, out: os.Stdout, errOut: os.Stderr}
	if cfg.LogFile == "" {
		return l, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l.file = f
	return l, nil
}

// NewWriterLogger returns an uncolored logger writing every level to w.
// Used by tests and by subcommands that must keep stdout clean.
func NewWriterLogger(w io.Writer, verbose bool) *Logger {
	return &Logger{verbose: verbose, plain: true, out: w, errOut: w}
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) write(lv level, format string, args []interface{}) {
	text := fmt.Sprintf(format, args...)
	ts := time.Now().Format(timeLayout)
	plain := ts + " [" + lv.tag + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.out
	if lv.err {
		out = l.errOut
	}
	if c := lv.color(); c != "" && !l.plain {
		_, _ = io.WriteString(out, ts+" "+c+"["+lv.tag+"]"+term.NC+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, plain)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) { l.write(levelInfo, format, args) }

// Success logs at SUCCESS level.
func (l *Logger) Success(format string, args ...interface{}) { l.write(levelSuccess, format, args) }

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) { l.write(levelWarn, format, args) }

// Error logs at ERROR level to the error writer.
func (l *Logger) Error(format string, args ...interface{}) { l.write(levelError, format, args) }

// Debug logs at DEBUG level when the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbose {
		l.write(levelDebug, format, args)
	}
}

// Verbose reports whether debug output is enabled.
func (l *Logger) Verbose() bool { return l.verbose }
