package display

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/backmassage/compatmux/internal/assemble"
	"github.com/backmassage/compatmux/internal/rules"
)

// RenderPlan lists every stream of p with its class and conversion chain.
func RenderPlan(p *assemble.Plan) string {
	rows := make([][]string, 0, len(p.Streams))
	for _, s := range p.Streams {
		lang := s.Stream.Language()
		if lang == "" {
			lang = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Stream.Index),
			string(s.Stream.Type),
			s.Stream.Codec,
			lang,
			FormatBitrate(s.Stream.Bitrate()),
			s.Class.String(),
			chain(s),
		})
	}
	title := filepath.Base(p.Source) + " -> " + filepath.Base(p.Output)
	return RenderTable(title,
		[]string{"#", "Type", "Codec", "Lang", "Bitrate", "Class", "Chain"},
		rows,
		[]Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft})
}

func chain(s assemble.StreamPlan) string {
	if s.Class == assemble.ClassCopy || s.Class == assemble.ClassDrop {
		return ""
	}
	parts := make([]string, 0, len(s.Pipeline))
	for _, step := range s.Pipeline {
		parts = append(parts, step.Repr())
	}
	return strings.Join(parts, " -> ")
}

// RenderCompat lists each container of c with its codec count and codecs.
func RenderCompat(c *rules.Compatibility) string {
	var rows [][]string
	for _, container := range c.Containers() {
		codecs := c.Codecs(container)
		rows = append(rows, []string{container, strconv.Itoa(len(codecs)), wrap(codecs, 60)})
	}
	return RenderTable("", []string{"Container", "Codecs", "List"}, rows,
		[]Align{AlignLeft, AlignRight, AlignLeft})
}

// wrap joins words with ", " and breaks lines before width.
func wrap(words []string, width int) string {
	var b strings.Builder
	line := 0
	for i, w := range words {
		if i > 0 {
			if line+len(w)+2 > width {
				b.WriteString(",\n")
				line = 0
			} else {
				b.WriteString(", ")
				line += 2
			}
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}
