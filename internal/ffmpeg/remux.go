package ffmpeg

import (
	"strconv"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/probe"
)

// compatTitle prefixes the title of every converted stream.
const compatTitle = "[COMPAT]"

// TempStream locates a converted stream: the file holding it and its
// position inside that file.
type TempStream struct {
	File   string
	Stream int
}

// RemuxInput is everything the final merge needs for one file.
type RemuxInput struct {
	Source       string
	Output       string
	Streams      []probe.StreamInfo // Ascending index order.
	Converted    map[int]TempStream // Source index -> converted copy.
	Copied       map[int]bool       // Source indices copied unchanged.
	Dropped      map[int]bool       // Source indices left out.
	KeepOriginal map[config.StreamType]bool
}

// TempFiles returns the distinct files holding converted streams, in the
// order of the first stream each one holds. Input i of the remux command is
// TempFiles()[i-1].
func (in RemuxInput) TempFiles() []string {
	var files []string
	seen := make(map[string]bool)
	for _, s := range in.Streams {
		t, ok := in.Converted[s.Index]
		if !ok || seen[t.File] {
			continue
		}
		seen[t.File] = true
		files = append(files, t.File)
	}
	return files
}

// Remux crafts the command that merges converted streams and originals into
// in.Output. Streams are visited in ascending source index. A converted
// stream gets the next output slot with a "[COMPAT]" title. Its original
// follows in the next slot when it is copied, was never converted, or its
// type keeps originals. Dropped streams get no slot.
func (b *Builder) Remux(in RemuxInput) Command {
	files := in.TempFiles()
	fileIdx := make(map[string]int, len(files))

	args := b.call(4 + 2*len(files) + 12*len(in.Streams))
	args = append(args, "-i", in.Source)
	for i, f := range files {
		fileIdx[f] = i + 1
		args = append(args, "-i", f)
	}

	out := 0
	for _, s := range in.Streams {
		if in.Dropped[s.Index] {
			continue
		}
		t, converted := in.Converted[s.Index]
		if converted {
			args = append(args, "-map", strconv.Itoa(fileIdx[t.File])+":"+strconv.Itoa(t.Stream), "-c:"+strconv.Itoa(out), "copy")
			if s.Type != config.StreamAttachment {
				if lang := s.Language(); lang != "" {
					args = append(args, metadata(out, "language", lang)...)
				}
				args = append(args, metadata(out, "title", convertedTitle(s.Title()))...)
				args = append(args, "-disposition:"+strconv.Itoa(out), s.Disposition())
			}
			out++
		}
		if in.Copied[s.Index] || !converted || in.KeepOriginal[s.Type] {
			args = append(args, "-map", "0:"+strconv.Itoa(s.Index), "-c:"+strconv.Itoa(out), "copy")
			if s.Type != config.StreamAttachment {
				args = append(args, metadata(out, "title", s.Title())...)
				if lang := s.Language(); lang != "" {
					args = append(args, metadata(out, "language", lang)...)
				}
				args = append(args, "-disposition:"+strconv.Itoa(out), s.Disposition())
			}
			out++
		}
	}
	return Exec(append(args, in.Output)...)
}

func metadata(out int, key, value string) []string {
	return []string{"-metadata:s:" + strconv.Itoa(out), key + "=" + value}
}

func convertedTitle(title string) string {
	if title == "" {
		return compatTitle
	}
	return compatTitle + " " + title
}
