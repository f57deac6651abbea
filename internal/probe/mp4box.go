package probe

import (
	"errors"
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/backmassage/compatmux/internal/config"
)

// handlerTypes maps an mdia handler to a stream type. Tracks with other
// handlers (hint, meta, tmcd) are skipped.
var handlerTypes = map[string]config.StreamType{
	"vide": config.StreamVideo,
	"soun": config.StreamAudio,
	"sbtl": config.StreamSubtitle,
	"subt": config.StreamSubtitle,
	"text": config.StreamSubtitle,
}

// sampleEntryCodecs maps stsd sample entry fourccs to ffprobe codec names.
var sampleEntryCodecs = map[string]string{
	"avc1": "h264",
	"avc3": "h264",
	"hvc1": "hevc",
	"hev1": "hevc",
	"av01": "av1",
	"vp09": "vp9",
	"mp4v": "mpeg4",
	"mp4a": "aac",
	"ac-3": "ac3",
	"ec-3": "eac3",
	"Opus": "opus",
	"fLaC": "flac",
	"tx3g": "mov_text",
	"wvtt": "webvtt",
	"stpp": "ttml",
}

// SampleEntryCodec returns the ffprobe codec name for a sample entry
// fourcc, or the fourcc itself when it is not known.
func SampleEntryCodec(fourcc string) string {
	if c, ok := sampleEntryCodecs[fourcc]; ok {
		return c
	}
	return fourcc
}

// ProbeMP4 builds a stream table from the moov box of an MP4 file. Track
// position stands in for the stream index, matching ffprobe's numbering
// for files without data tracks. Bitrate tags are never available here.
func ProbeMP4(path string) (*ProbeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Lazy mdat: sample data is skipped, not read into memory.
	parsed, err := mp4.DecodeFile(f, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	moov := parsed.Moov
	if moov == nil && parsed.Init != nil {
		moov = parsed.Init.Moov
	}
	if moov == nil {
		return nil, errors.New("no moov box")
	}

	pr := &ProbeResult{}
	for i, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
			continue
		}
		st, ok := handlerTypes[trak.Mdia.Hdlr.HandlerType]
		if !ok {
			continue
		}
		info := StreamInfo{Index: i, Type: st, Tags: map[string]string{}}
		if trak.Mdia.Mdhd != nil {
			if lang := trak.Mdia.Mdhd.GetLanguage(); lang != "" && lang != "und" {
				info.Tags["language"] = lang
			}
		}
		if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
			stsd := trak.Mdia.Minf.Stbl.Stsd
			if len(stsd.Children) > 0 {
				entry := stsd.Children[0]
				info.Codec = SampleEntryCodec(entry.Type())
				switch e := entry.(type) {
				case *mp4.VisualSampleEntryBox:
					info.Width = int(e.Width)
					info.Height = int(e.Height)
				case *mp4.AudioSampleEntryBox:
					info.Channels = int(e.ChannelCount)
				}
			}
		}
		if info.Codec == "" {
			continue
		}
		pr.Streams = append(pr.Streams, info)
	}
	if len(pr.Streams) == 0 {
		return nil, errors.New("no usable tracks")
	}
	pr.sortStreams()
	return pr, nil
}
