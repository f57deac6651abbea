package probe

import (
	"sort"
	"strconv"
	"strings"

	"github.com/backmassage/compatmux/internal/config"
)

// StreamInfo is a read-only snapshot of one stream's attributes.
type StreamInfo struct {
	Index    int
	Type     config.StreamType
	Codec    string
	Width    int    // 0 when unknown.
	Height   int    // 0 when unknown.
	PixFmt   string // "" when unknown.
	Channels int    // 0 when unknown.
	Tags     map[string]string
	Default  bool
	Forced   bool
}

// Language returns the language tag, or "" when absent.
func (s StreamInfo) Language() string {
	return s.Tags["language"]
}

// Title returns the title tag, or "" when absent.
func (s StreamInfo) Title() string {
	return s.Tags["title"]
}

// Bitrate returns the stream bitrate in bits/sec from the Matroska
// statistics tags. BPS-eng wins over BPS when both are present. Returns 0
// when neither tag holds a number.
func (s StreamInfo) Bitrate() int64 {
	for _, key := range []string{"BPS-eng", "BPS"} {
		v, ok := s.Tags[key]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// Disposition renders the default/forced flags the way ffmpeg's
// -disposition option expects them: "default+forced", "default",
// "forced", or "0" when neither is set.
func (s StreamInfo) Disposition() string {
	switch {
	case s.Default && s.Forced:
		return "default+forced"
	case s.Default:
		return "default"
	case s.Forced:
		return "forced"
	default:
		return "0"
	}
}

// ProbeResult is the stream table of one file, sorted by index.
type ProbeResult struct {
	Path    string
	Streams []StreamInfo
	Method  string // Which probe attempt produced the result.
}

// Stream returns the stream with the given index.
func (p *ProbeResult) Stream(index int) (StreamInfo, bool) {
	i := sort.Search(len(p.Streams), func(i int) bool { return p.Streams[i].Index >= index })
	if i < len(p.Streams) && p.Streams[i].Index == index {
		return p.Streams[i], true
	}
	return StreamInfo{}, false
}

// ByIndex returns the streams as an index-keyed map.
func (p *ProbeResult) ByIndex() map[int]StreamInfo {
	m := make(map[int]StreamInfo, len(p.Streams))
	for _, s := range p.Streams {
		m[s.Index] = s
	}
	return m
}

func (p *ProbeResult) sortStreams() {
	sort.Slice(p.Streams, func(i, j int) bool { return p.Streams[i].Index < p.Streams[j].Index })
}

var handledTypes = map[string]config.StreamType{
	"video":      config.StreamVideo,
	"audio":      config.StreamAudio,
	"subtitle":   config.StreamSubtitle,
	"attachment": config.StreamAttachment,
}
