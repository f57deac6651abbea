package vtt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const maxLineBytes = 1 << 20

// Parse reads a WebVTT file. Header metadata, cue identifiers and NOTE,
// STYLE and REGION blocks are skipped wherever they appear. A blank line
// followed by more text inside a cue is kept as LineBreak; cue text lines
// are trimmed.
func Parse(r io.Reader) ([]Cue, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 || !isHeader(lines[0]) {
		return nil, fmt.Errorf("%w: missing %s header", ErrMalformed, Header)
	}

	var (
		cues   []Cue
		cur      *Cue
		blanks   int
		skipping bool // Inside a NOTE, STYLE or REGION block.
	)
	flush := func() {
		if cur != nil {
			cues = append(cues, *cur)
		}
	}

	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if start, end, ok := parseTiming(line); ok {
			if start >= end {
				return nil, fmt.Errorf("%w: line %d: cue ends before it starts", ErrMalformed, i+1)
			}
			flush()
			cur = &Cue{Start: start, End: end}
			blanks, skipping = 0, false
			continue
		}

		text := strings.TrimSpace(line)
		if text == "" {
			blanks++
			skipping = false
			continue
		}
		if skipping {
			continue
		}
		if (cur == nil || blanks > 0) && isSkippedBlock(text) {
			skipping = true
			continue
		}
		if cur == nil {
			continue
		}
		if blanks > 0 && i+1 < len(lines) {
			if _, _, next := parseTiming(lines[i+1]); next {
				// Identifier of the next cue.
				continue
			}
		}
		for ; blanks > 0; blanks-- {
			cur.Lines = append(cur.Lines, LineBreak)
		}
		cur.Lines = append(cur.Lines, text)
	}
	flush()
	return cues, nil
}

// isSkippedBlock reports whether text opens a block that carries no cue
// text.
func isSkippedBlock(text string) bool {
	for _, kw := range []string{"NOTE", "STYLE", "REGION"} {
		if text == kw || strings.HasPrefix(text, kw+" ") || strings.HasPrefix(text, kw+"\t") {
			return true
		}
	}
	return false
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read webvtt: %w", err)
	}
	return lines, nil
}

func isHeader(line string) bool {
	line = strings.TrimPrefix(line, "\uFEFF")
	if line == Header {
		return true
	}
	return strings.HasPrefix(line, Header+" ") || strings.HasPrefix(line, Header+"\t")
}
