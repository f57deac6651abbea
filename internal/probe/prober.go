package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrProbeFailure marks a file whose stream metadata is missing or malformed.
var ErrProbeFailure = errors.New("probe failure")

// attempt is one ffprobe configuration in the fallback list.
type attempt struct {
	name string
	args []string
}

// attempts are tried in order; the first clean result wins.
var attempts = []attempt{
	{"ffprobe", []string{"-loglevel", "error", "-show_entries", "stream", "-of", "json"}},
	{"ffprobe-deep", []string{
		"-loglevel", "error",
		"-probesize", "100G", "-analyzeduration", "100G",
		"-show_entries", "stream", "-of", "json",
	}},
}

// Runner executes ffprobe and returns stdout and stderr. Swappable in tests.
type Runner func(ctx context.Context, args []string) (stdout, stderr []byte, err error)

// ExecRunner runs the real ffprobe binary.
func ExecRunner(ctx context.Context, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Prober runs the fallback list against one file at a time.
type Prober struct {
	Run Runner
	// MP4 reads the moov box of MP4 sources when ffprobe gives up.
	MP4 func(path string) (*ProbeResult, error)
}

// New returns a Prober wired to the real ffprobe and the MP4 box reader.
func New() *Prober {
	return &Prober{Run: ExecRunner, MP4: ProbeMP4}
}

// Probe is a convenience wrapper around New().Probe.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	return New().Probe(ctx, path)
}

// Probe returns the stream table for path. Each attempt that fails is
// recorded; when all fail the joined causes are wrapped in ErrProbeFailure.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	var causes []string
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		args := append(append([]string(nil), a.args...), path)
		stdout, stderr, err := p.Run(ctx, args)
		if err != nil {
			causes = append(causes, fmt.Sprintf("%s: %v", a.name, err))
			continue
		}
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			causes = append(causes, fmt.Sprintf("%s: %s", a.name, msg))
			continue
		}
		pr, err := ParseJSON(stdout)
		if err != nil {
			causes = append(causes, fmt.Sprintf("%s: %v", a.name, err))
			continue
		}
		pr.Path = path
		pr.Method = a.name
		return pr, nil
	}

	if p.MP4 != nil && isMP4(path) {
		pr, err := p.MP4(path)
		if err == nil {
			pr.Path = path
			pr.Method = "mp4-box"
			return pr, nil
		}
		causes = append(causes, fmt.Sprintf("mp4-box: %v", err))
	}

	return nil, fmt.Errorf("%w: %s: %s", ErrProbeFailure, filepath.Base(path), strings.Join(causes, "; "))
}

func isMP4(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v":
		return true
	}
	return false
}

// ParseJSON converts raw `ffprobe -show_entries stream -of json` output
// into a ProbeResult. Streams of unhandled types (data, unknown) are left
// out. Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if raw.Streams == nil {
		return nil, errors.New("parse ffprobe JSON: no streams section")
	}
	return buildResult(*raw.Streams), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Streams *[]ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	PixFmt      string            `json:"pix_fmt"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Channels    int               `json:"channels"`
	Disposition map[string]int    `json:"disposition"`
	Tags        map[string]string `json:"tags"`
}

// --- Conversion from wire types to domain types ---

func buildResult(streams []ffprobeStream) *ProbeResult {
	pr := &ProbeResult{}
	for i := range streams {
		s := &streams[i]
		st, ok := handledTypes[s.CodecType]
		if !ok {
			continue
		}
		tags := s.Tags
		if tags == nil {
			tags = map[string]string{}
		}
		pr.Streams = append(pr.Streams, StreamInfo{
			Index:    s.Index,
			Type:     st,
			Codec:    s.CodecName,
			Width:    s.Width,
			Height:   s.Height,
			PixFmt:   s.PixFmt,
			Channels: s.Channels,
			Tags:     tags,
			Default:  s.Disposition["default"] == 1,
			Forced:   s.Disposition["forced"] == 1,
		})
	}
	pr.sortStreams()
	return pr
}
