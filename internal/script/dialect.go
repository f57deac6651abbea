package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/ffmpeg"
)

// dialect holds everything that differs between bash and batch.
type dialect struct {
	header  []string
	comment string
	newline string
	ext     string
	quote   func(string) string
	macro   func(c ffmpeg.Command, q func(string) string) string
	echo    string
	call    string
}

var (
	// reBashSafe matches arguments bash reads back unchanged without quotes.
	reBashSafe = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)
	// reBatchSpecial matches characters cmd.exe splits or expands on.
	reBatchSpecial = regexp.MustCompile(`[\s"&|<>^(),;=!%]`)
)

var bash = dialect{
	header:  []string{"#!/bin/bash"},
	comment: "#",
	newline: "\n",
	ext:     "sh",
	quote:   quoteBash,
	macro:   bashMacro,
	echo:    "echo",
	call:    "bash",
}

var batch = dialect{
	header:  []string{"@echo off", "chcp 65001 >NUL"},
	comment: "REM",
	newline: "\r\n",
	ext:     "bat",
	quote:   quoteBatch,
	macro:   batchMacro,
	echo:    "ECHO",
	call:    "CALL",
}

func dialectOf(d config.ScriptDialect) (dialect, error) {
	switch d {
	case config.ScriptBash:
		return bash, nil
	case config.ScriptBatch:
		return batch, nil
	default:
		return dialect{}, fmt.Errorf("unsupported script dialect %q", d)
	}
}

// Quote returns arg quoted for dialect d.
func Quote(d config.ScriptDialect, arg string) string {
	if d == config.ScriptBatch {
		return quoteBatch(arg)
	}
	return quoteBash(arg)
}

func quoteBash(arg string) string {
	if reBashSafe.MatchString(arg) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// quoteBatch doubles percent signs, which batch files expand even inside
// quotes, and wraps anything cmd.exe would split.
func quoteBatch(arg string) string {
	special := arg == "" || reBatchSpecial.MatchString(arg)
	arg = strings.ReplaceAll(arg, "%", "%%")
	if !special {
		return arg
	}
	return `"` + strings.ReplaceAll(arg, `"`, `""`) + `"`
}

func bashMacro(c ffmpeg.Command, q func(string) string) string {
	switch c.Kind {
	case ffmpeg.KindAssertExists:
		f := q(c.Args[0])
		return fmt.Sprintf(`if [ ! -f %s ]; then echo "Error: Missing file "%s" !"; else echo "File confirmed to exist"; fi`, f, f)
	case ffmpeg.KindMakeDir:
		return "mkdir -p " + q(c.Args[0])
	case ffmpeg.KindRemoveDir:
		return "rm -rf " + q(c.Args[0])
	case ffmpeg.KindRename:
		return "mv " + q(c.Args[0]) + " " + q(c.Args[1])
	case ffmpeg.KindDelete:
		return "rm -f " + q(c.Args[0])
	default:
		return argv(c.Args, q)
	}
}

func batchMacro(c ffmpeg.Command, q func(string) string) string {
	switch c.Kind {
	case ffmpeg.KindAssertExists:
		f := `"` + strings.ReplaceAll(c.Args[0], "%", "%%") + `"`
		return fmt.Sprintf(`IF NOT EXIST %s ( ECHO Error: Missing file %s ! ) ELSE ( ECHO File confirmed to exist )`, f, f)
	case ffmpeg.KindMakeDir:
		return "MD " + q(c.Args[0])
	case ffmpeg.KindRemoveDir:
		return "RD /S /Q " + q(c.Args[0])
	case ffmpeg.KindRename:
		// REN takes a bare file name as its target.
		return "REN " + q(c.Args[0]) + " " + q(baseName(c.Args[1]))
	case ffmpeg.KindDelete:
		return "DEL " + q(c.Args[0])
	default:
		return argv(c.Args, q)
	}
}

func argv(args []string, q func(string) string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = q(a)
	}
	return strings.Join(parts, " ")
}

// baseName splits on both separators so Windows paths work on any host.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
