package vtt

import (
	"bufio"
	"io"
)

// Write serializes cues as a WebVTT file: the header, a blank line, then
// one block per cue terminated by a blank line.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header + "\n\n")
	for _, c := range cues {
		bw.WriteString(c.Timing() + "\n")
		for _, l := range c.Lines {
			bw.WriteString(l + "\n")
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
