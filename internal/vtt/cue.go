package vtt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrMalformed marks input that is not a WebVTT file this package reads.
	ErrMalformed = errors.New("malformed webvtt")

	// ErrUncoveredWindow marks a fusion window no cue covers. Runs are built
	// from overlapping cues, so hitting it means the run grouping is broken.
	ErrUncoveredWindow = errors.New("fusion window without covering cue")
)

const (
	// Header is the first line of every WebVTT file.
	Header = "WEBVTT"

	// LineBreak replaces a blank line inside a cue's text.
	LineBreak = "<br/>"

	// ParagraphBreak separates the texts of fused cues.
	ParagraphBreak = "<br/><br/>"
)

// Cue is one timed text entry. Times are milliseconds, Start < End, and
// the window is half-open: [Start, End).
type Cue struct {
	Start int
	End   int
	Lines []string
}

var reTiming = regexp.MustCompile(
	`^(?:(\d+):)?(\d{2}):(\d{2})\.(\d{3})\s+-->\s+(?:(\d+):)?(\d{2}):(\d{2})\.(\d{3})`)

// parseTiming reads a "start --> end" line. Cue settings after the end
// time are ignored. ok is false when the line is not a timing line.
func parseTiming(line string) (start, end int, ok bool) {
	m := reTiming.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	return toMillis(m[1:5]), toMillis(m[5:9]), true
}

func toMillis(parts []string) int {
	n := make([]int, 4)
	for i, p := range parts {
		if p != "" {
			n[i], _ = strconv.Atoi(p)
		}
	}
	return ((n[0]*60+n[1])*60+n[2])*1000 + n[3]
}

// FormatTimestamp renders ms as mm:ss.ttt, or hh:mm:ss.ttt from one hour on.
func FormatTimestamp(ms int) string {
	s := ms / 1000
	h, m := s/3600, (s/60)%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s%60, ms%1000)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, s%60, ms%1000)
}

// Timing renders the cue's "start --> end" line.
func (c Cue) Timing() string {
	return FormatTimestamp(c.Start) + " --> " + FormatTimestamp(c.End)
}

// Collides reports whether c and o share any instant.
func (c Cue) Collides(o Cue) bool {
	if c.Start <= o.Start {
		return c.End > o.Start
	}
	return o.End > c.Start
}

// covers reports whether c is on screen during the window [a, b).
func (c Cue) covers(a, b int) bool {
	return c.Start < b && c.End > a
}
