package check

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/ffmpeg"
	"github.com/backmassage/compatmux/internal/naming"
	"github.com/backmassage/compatmux/internal/rules"
)

// minOutputSize is the size above which a trial output counts as a real
// encode rather than an empty container.
const minOutputSize = 1000

// ErrNoCodecs means ffmpeg -codecs listed nothing usable.
var ErrNoCodecs = errors.New("ffmpeg lists no encodable codecs")

// codecTypes maps the type column of ffmpeg -codecs.
var codecTypes = map[byte]config.StreamType{
	'V': config.StreamVideo,
	'A': config.StreamAudio,
	'S': config.StreamSubtitle,
}

// CodecList holds codecs ffmpeg can both decode and encode, by type, in
// listing order.
type CodecList map[config.StreamType][]string

// ParseCodecs reads the output of ffmpeg -codecs. Only rows whose flags
// start with "DE" are kept.
func ParseCodecs(out string) CodecList {
	list := make(CodecList)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		flags := fields[0]
		if len(flags) < 3 || !strings.HasPrefix(flags, "DE") {
			continue
		}
		t, ok := codecTypes[flags[2]]
		if !ok {
			continue
		}
		list[t] = append(list[t], fields[1])
	}
	return list
}

// Len returns the number of codecs in l.
func (l CodecList) Len() int {
	n := 0
	for _, c := range l {
		n += len(c)
	}
	return n
}

// Tester brute-forces which codecs ffmpeg can write into a container by
// encoding a few seconds of a sample file with each of them.
type Tester struct {
	Builder *ffmpeg.Builder
	// Run executes one ffmpeg invocation. Defaults to ffmpeg.Execute.
	Run func(ctx context.Context, args []string) ffmpeg.ExecResult
	// WorkDir receives trial outputs. Defaults to the sample's directory.
	WorkDir string
	Log     Logger
}

// NewTester returns a Tester running the real ffmpeg.
func NewTester(b *ffmpeg.Builder, log Logger) *Tester {
	return &Tester{
		Builder: b,
		Run: func(ctx context.Context, args []string) ffmpeg.ExecResult {
			return ffmpeg.Execute(ctx, args, nil)
		},
		Log: log,
	}
}

// ListCodecs runs ffmpeg -codecs and parses it.
func (t *Tester) ListCodecs(ctx context.Context) (CodecList, error) {
	res := t.Run(ctx, []string{t.Builder.Base[0], "-hide_banner", "-codecs"})
	if res.Err != nil {
		return nil, fmt.Errorf("list codecs: %w", res.Err)
	}
	list := ParseCodecs(res.Stdout)
	if list.Len() == 0 {
		return nil, ErrNoCodecs
	}
	return list, nil
}

// Try reports whether codec of type typ can be written into container.
// Known failure causes are fixed and retried: a text/bitmap subtitle
// mismatch moves to the second subtitle stream of the sample and an
// experimental encoder gets -strict -2.
func (t *Tester) Try(ctx context.Context, sample, codec string, typ config.StreamType, container string) bool {
	dir := t.WorkDir
	if dir == "" {
		dir = filepath.Dir(sample)
	}
	out := filepath.Join(dir, naming.Stem(sample)+"."+string(typ)+"."+naming.MakeFSSafe(codec)+"."+container)

	trial := ffmpeg.Trial{Sample: sample, Codec: codec, Type: typ, Output: out}
	state := ffmpeg.NewTrialState()
	for {
		state.Apply(&trial)
		_ = os.Remove(out)
		args := t.Builder.TrialArgs(trial)
		res := t.Run(ctx, args)
		ok := outputSize(out) > minOutputSize
		_ = os.Remove(out)
		if ok {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if action := state.Advance(res.Stderr); action != ffmpeg.RetryNone {
			t.Log.Debug("%s: retrying (%s)", codec, retryLabel(action))
			continue
		}
		if !ffmpeg.MatchContainerRejects(res.Stderr) {
			t.Log.Warn("%s", strings.Join(args, " "))
			t.Log.Warn(">%s: stderr: %s", codec, strings.TrimSpace(res.Stderr))
		}
		return false
	}
}

func retryLabel(a ffmpeg.RetryAction) string {
	switch a {
	case ffmpeg.RetryNextStream:
		return "second stream"
	case ffmpeg.RetryStrict:
		return "-strict -2"
	default:
		return "none"
	}
}

func outputSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Build tries every codec of types into every container and returns the
// resulting table. An empty types list means every type ffmpeg lists.
func (t *Tester) Build(ctx context.Context, sample string, containers []string, types []config.StreamType) (*rules.Compatibility, error) {
	if _, err := os.Stat(sample); err != nil {
		return nil, fmt.Errorf("sample file: %w", err)
	}
	codecs, err := t.ListCodecs(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		types = []config.StreamType{config.StreamVideo, config.StreamAudio, config.StreamSubtitle}
	}

	table := make(map[string][]string, len(containers))
	for _, container := range containers {
		container = strings.TrimPrefix(strings.ToLower(container), ".")
		compatible := []string{}
		for _, typ := range types {
			t.Log.Info("%s: trying %d %s codecs", container, len(codecs[typ]), typ)
			for _, codec := range codecs[typ] {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				ok := t.Try(ctx, sample, codec, typ, container)
				t.Log.Info(">%s: %v", codec, ok)
				if ok {
					compatible = append(compatible, codec)
				}
			}
		}
		t.Log.Success("%s: %d compatible codecs", container, len(compatible))
		table[container] = compatible
	}
	return rules.NewCompatibility(table), nil
}
