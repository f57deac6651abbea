package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/display"
	"github.com/backmassage/compatmux/internal/logging"
	"github.com/backmassage/compatmux/internal/probe"
	"github.com/backmassage/compatmux/internal/term"
)

// fileRow is one line of the analysis table.
type fileRow struct {
	Name       string
	VideoCodec string
	VideoBps   int64
	AudioCodec string
	AudioBps   int64
	OverLimit  bool // Some stream is above the bitrate limit and will be re-encoded.
}

// spread is the rank of a bitrate within the batch.
type spread int

const (
	spreadNormal spread = iota
	spreadOutlier
	spreadExtreme
)

func (s spread) flag() string {
	switch s {
	case spreadExtreme:
		return term.Red + "[!]" + term.NC
	case spreadOutlier:
		return term.Yellow + "[*]" + term.NC
	}
	return ""
}

func (s spread) paint(text string) string {
	switch s {
	case spreadExtreme:
		return term.Red + text + term.NC
	case spreadOutlier:
		return term.Yellow + text + term.NC
	}
	return text
}

// Analyze probes every source and prints a bitrate table. Files holding a
// stream above the bitrate limit are flagged, since the planner re-encodes
// those even when the codec could be copied. Statistical outliers of the
// batch are flagged too.
func Analyze(ctx context.Context, cfg *config.Config, log *logging.Logger, probeFn ProbeFunc, out io.Writer) error {
	files, err := Discover(cfg.InputDir, cfg.Recursive)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}
	if len(files) == 0 {
		log.Warn("No source files found in %s", cfg.InputDir)
		return nil
	}
	log.Info("Analyzing %d files in %s", len(files), cfg.InputDir)

	var rows []fileRow
	var videoKbps, audioKbps []float64
	for i, path := range files {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			return nil
		}
		log.Debug("[%d/%d] probing %s", i+1, len(files), filepath.Base(path))

		pr, err := probeFn(ctx, path)
		if err != nil {
			log.Warn("Skip (probe failed): %s", filepath.Base(path))
			continue
		}
		row := summarize(filepath.Base(path), pr, cfg.BitrateLimitBPS)
		rows = append(rows, row)
		if row.VideoBps > 0 {
			videoKbps = append(videoKbps, float64(row.VideoBps/1000))
		}
		if row.AudioBps > 0 {
			audioKbps = append(audioKbps, float64(row.AudioBps/1000))
		}
	}
	if len(rows) == 0 {
		log.Warn("No files could be probed")
		return nil
	}

	video, audio := computeStats(videoKbps), computeStats(audioKbps)
	fmt.Fprintln(out, renderAnalysis(rows, video, audio))
	logAnalysisSummary(log, rows, video, audio)
	return nil
}

// summarize keeps the first video and first audio stream of pr.
func summarize(name string, pr *probe.ProbeResult, limit int64) fileRow {
	row := fileRow{Name: name}
	for _, s := range pr.Streams {
		switch s.Type {
		case config.StreamVideo:
			if row.VideoCodec == "" {
				row.VideoCodec, row.VideoBps = s.Codec, s.Bitrate()
			}
		case config.StreamAudio:
			if row.AudioCodec == "" {
				row.AudioCodec, row.AudioBps = s.Codec, s.Bitrate()
			}
		}
		if s.Type != config.StreamAttachment && s.Bitrate() > limit {
			row.OverLimit = true
		}
	}
	return row
}

// iqrBounds are the Tukey fences of one bitrate population: 1.5 IQR for
// outliers and 3 IQR for extremes.
type iqrBounds struct {
	q1, q3       float64
	inner, outer [2]float64 // [low, high]
	valid        bool
}

// computeStats needs at least four samples with some spread.
func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	q1, q3 := percentile(sorted, 25), percentile(sorted, 75)
	iqr := q3 - q1
	return iqrBounds{
		q1:    q1,
		q3:    q3,
		inner: [2]float64{q1 - 1.5*iqr, q3 + 1.5*iqr},
		outer: [2]float64{q1 - 3*iqr, q3 + 3*iqr},
		valid: iqr > 0,
	}
}

func (b iqrBounds) classify(v float64) spread {
	switch {
	case !b.valid || v <= 0:
		return spreadNormal
	case v < b.outer[0] || v > b.outer[1]:
		return spreadExtreme
	case v < b.inner[0] || v > b.inner[1]:
		return spreadOutlier
	}
	return spreadNormal
}

func renderAnalysis(rows []fileRow, video, audio iqrBounds) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		v := video.classify(float64(r.VideoBps / 1000))
		a := audio.classify(float64(r.AudioBps / 1000))

		flags := max(v, a).flag()
		if r.OverLimit {
			if flags != "" {
				flags += " "
			}
			flags += term.Yellow + "[>]" + term.NC
		}
		cells = append(cells, []string{
			r.Name,
			orDash(r.VideoCodec),
			v.paint(display.FormatBitrate(r.VideoBps)),
			orDash(r.AudioCodec),
			a.paint(display.FormatBitrate(r.AudioBps)),
			flags,
		})
	}
	return display.RenderTable("",
		[]string{"File", "Video Codec", "Video Bitrate", "Audio Codec", "Audio Bitrate", ""},
		cells,
		[]display.Align{display.AlignLeft, display.AlignLeft, display.AlignRight, display.AlignLeft, display.AlignRight, display.AlignLeft})
}

func logAnalysisSummary(log *logging.Logger, rows []fileRow, video, audio iqrBounds) {
	counts := map[spread]int{}
	overLimit := 0
	for _, r := range rows {
		counts[max(video.classify(float64(r.VideoBps/1000)), audio.classify(float64(r.AudioBps/1000)))]++
		if r.OverLimit {
			overLimit++
		}
	}

	log.Info("Analyzed %d files", len(rows))
	for _, p := range []struct {
		kind string
		b    iqrBounds
	}{{"Video", video}, {"Audio", audio}} {
		if p.b.valid {
			log.Info("  %s bitrate IQR: %.0f - %.0f kbps (outlier < %.0f or > %.0f)",
				p.kind, p.b.q1, p.b.q3, p.b.inner[0], p.b.inner[1])
		}
	}
	if overLimit > 0 {
		log.Warn("  %d file(s) with streams above the bitrate limit [>] will be re-encoded", overLimit)
	}
	if n := counts[spreadOutlier]; n > 0 {
		log.Warn("  %d outlier(s) flagged [*]", n)
	}
	if n := counts[spreadExtreme]; n > 0 {
		log.Warn("  %d extreme outlier(s) flagged [!]", n)
	}
	if counts[spreadOutlier]+counts[spreadExtreme] == 0 {
		log.Success("  No outliers detected")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
