package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/ffmpeg"
)

type recLogger struct {
	lines []string
}

func (l *recLogger) add(level, format string, args ...interface{}) {
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recLogger) Info(f string, a ...interface{})    { l.add("INFO", f, a...) }
func (l *recLogger) Success(f string, a ...interface{}) { l.add("SUCCESS", f, a...) }
func (l *recLogger) Warn(f string, a ...interface{})    { l.add("WARN", f, a...) }
func (l *recLogger) Error(f string, a ...interface{})   { l.add("ERROR", f, a...) }
func (l *recLogger) Debug(f string, a ...interface{})   { l.add("DEBUG", f, a...) }

func (l *recLogger) count(level string) int {
	n := 0
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") {
			n++
		}
	}
	return n
}

func withPath(t *testing.T, present ...string) {
	t.Helper()
	origLook, origVersion := lookPath, runVersion
	t.Cleanup(func() { lookPath, runVersion = origLook, origVersion })

	set := make(map[string]bool)
	for _, p := range present {
		set[p] = true
	}
	lookPath = func(bin string) (string, error) {
		if set[bin] {
			return "/usr/bin/" + bin, nil
		}
		return "", errors.New("not found")
	}
	runVersion = func(bin string, _ ...string) (string, error) {
		return filepath.Base(bin) + " version 1.0\nmore\n", nil
	}
}

func TestCheckDeps(t *testing.T) {
	tests := []struct {
		name      string
		present   []string
		wantErr   error
		wantWarns int
	}{
		{"everything present", []string{"ffprobe", "ffmpeg", "mkvmerge", "dotnet"}, nil, 0},
		{"only ffprobe", []string{"ffprobe"}, nil, 3},
		{"no ffprobe", []string{"ffmpeg", "mkvmerge", "dotnet"}, ErrFfprobeNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withPath(t, tt.present...)
			cfg := config.DefaultConfig()
			warns := 0
			err := CheckDeps(&cfg, func(string, ...interface{}) { warns++ })
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckDeps() = %v, want %v", err, tt.wantErr)
			}
			if warns != tt.wantWarns {
				t.Errorf("warnings = %d, want %d", warns, tt.wantWarns)
			}
		})
	}
}

func TestRunCheck(t *testing.T) {
	withPath(t, "ffprobe", "ffmpeg")
	cfg := config.DefaultConfig()
	cfg.PgsToSrt = filepath.Join(t.TempDir(), "PgsToSrt.dll")
	log := &recLogger{}
	RunCheck(&cfg, log)

	if log.count("SUCCESS") != 2 {
		t.Errorf("successes = %d, want 2: %q", log.count("SUCCESS"), log.lines)
	}
	if log.count("ERROR") != 2 {
		t.Errorf("errors = %d, want 2 (mkvmerge, dotnet): %q", log.count("ERROR"), log.lines)
	}
	found := false
	for _, l := range log.lines {
		if l == "SUCCESS ffmpeg: ffmpeg version 1.0" {
			found = true
		}
	}
	if !found {
		t.Errorf("version line missing: %q", log.lines)
	}
}

const codecsOutput = `Codecs:
 D..... = Decoding supported
 .E.... = Encoding supported
 ..V... = Video codec
 ..A... = Audio codec
 ..S... = Subtitle codec
 -------
 DEV.LS h264                 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10
 D.V.L. hevc                 H.265 / HEVC (High Efficiency Video Coding)
 DEA.L. aac                  AAC (Advanced Audio Coding)
 DEA.L. truehd               TrueHD
 DEA.L. opus                 Opus
 DES... ass                  ASS (Advanced SSA) subtitle
 DES... mov_text             MOV text
 DED... bin_data             binary data
 ..S... = Subtitle codec
`

func TestParseCodecs(t *testing.T) {
	got := ParseCodecs(codecsOutput)
	want := CodecList{
		config.StreamVideo:    {"h264"},
		config.StreamAudio:    {"aac", "truehd", "opus"},
		config.StreamSubtitle: {"ass", "mov_text"},
	}
	if got.Len() != want.Len() {
		t.Fatalf("got %v, want %v", got, want)
	}
	for typ, codecs := range want {
		if strings.Join(got[typ], ",") != strings.Join(codecs, ",") {
			t.Errorf("%s = %v, want %v", typ, got[typ], codecs)
		}
	}
}

// fakeFFmpeg mimics ffmpeg for the trial encodes: it writes an output of
// a size chosen per encoder and complains the way ffmpeg does.
func fakeFFmpeg(calls *[]string) func(context.Context, []string) ffmpeg.ExecResult {
	return func(_ context.Context, args []string) ffmpeg.ExecResult {
		joined := strings.Join(args, " ")
		*calls = append(*calls, joined)
		if strings.Contains(joined, "-codecs") {
			return ffmpeg.ExecResult{Stdout: codecsOutput}
		}
		out := args[len(args)-1]
		enc := args[len(args)-2]
		fail := func(stderr string) ffmpeg.ExecResult {
			return ffmpeg.ExecResult{Stderr: stderr, Err: errors.New("exit status 1")}
		}
		write := func(size int) ffmpeg.ExecResult {
			_ = os.WriteFile(out, make([]byte, size), 0o644)
			return ffmpeg.ExecResult{}
		}
		switch enc {
		case "h264", "aac":
			return write(4096)
		case "truehd":
			if !strings.Contains(joined, "-strict -2") {
				return fail("The encoder 'truehd' is experimental but experimental codecs are not enabled, add '-strict -2' if you want to use it.")
			}
			return write(4096)
		case "libopus":
			if strings.HasSuffix(out, ".mp4") {
				return fail("Could not find tag for codec opus in stream #0, codec not currently supported in container")
			}
			return write(500)
		case "ass":
			if !strings.Contains(joined, "0:s:1") {
				return fail("Subtitle encoding currently only possible from text to text or bitmap to bitmap")
			}
			return write(2048)
		case "mov_text":
			return fail("Something unexpected happened")
		}
		return fail("unknown encoder")
	}
}

func newTestTester(t *testing.T) (*Tester, *recLogger, *[]string, string) {
	t.Helper()
	dir := t.TempDir()
	sample := filepath.Join(dir, "sample.mkv")
	if err := os.WriteFile(sample, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	calls := &[]string{}
	log := &recLogger{}
	tester := &Tester{
		Builder: &ffmpeg.Builder{Base: []string{"ffmpeg"}, NullPath: "/dev/null"},
		Run:     fakeFFmpeg(calls),
		Log:     log,
	}
	return tester, log, calls, sample
}

func TestTester_Try(t *testing.T) {
	tests := []struct {
		codec     string
		typ       config.StreamType
		container string
		want      bool
		wantRuns  int
	}{
		{"h264", config.StreamVideo, "mkv", true, 1},
		{"truehd", config.StreamAudio, "mkv", true, 2},
		{"ass", config.StreamSubtitle, "mkv", true, 2},
		{"opus", config.StreamAudio, "mkv", false, 1}, // output too small
		{"opus", config.StreamAudio, "mp4", false, 1},
		{"mov_text", config.StreamSubtitle, "mkv", false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.codec+"_"+tt.container, func(t *testing.T) {
			tester, _, calls, sample := newTestTester(t)
			got := tester.Try(context.Background(), sample, tt.codec, tt.typ, tt.container)
			if got != tt.want {
				t.Errorf("Try(%s, %s) = %v, want %v", tt.codec, tt.container, got, tt.want)
			}
			if len(*calls) != tt.wantRuns {
				t.Errorf("runs = %d, want %d: %q", len(*calls), tt.wantRuns, *calls)
			}
			entries, _ := os.ReadDir(filepath.Dir(sample))
			if len(entries) != 1 {
				t.Errorf("trial output left behind: %d entries", len(entries))
			}
		})
	}
}

func TestTester_TryLogsUnexpectedFailures(t *testing.T) {
	tester, log, _, sample := newTestTester(t)
	tester.Try(context.Background(), sample, "opus", config.StreamAudio, "mp4")
	if log.count("WARN") != 0 {
		t.Errorf("container rejection should stay quiet: %q", log.lines)
	}
	tester.Try(context.Background(), sample, "mov_text", config.StreamSubtitle, "mkv")
	if log.count("WARN") != 2 {
		t.Errorf("unexpected failure should log command and stderr: %q", log.lines)
	}
}

func TestTester_Build(t *testing.T) {
	tester, _, _, sample := newTestTester(t)
	compat, err := tester.Build(context.Background(), sample, []string{"mkv", ".MP4"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := strings.Join(compat.Codecs("mkv"), ","); got != "aac,ass,h264,truehd" {
		t.Errorf("mkv = %s", got)
	}
	if got := strings.Join(compat.Codecs("mp4"), ","); got != "aac,ass,h264,truehd" {
		t.Errorf("mp4 = %s", got)
	}
}

func TestTester_BuildMissingSample(t *testing.T) {
	tester, _, _, sample := newTestTester(t)
	if _, err := tester.Build(context.Background(), sample+".nope", []string{"mkv"}, nil); err == nil {
		t.Error("Build should fail without a sample")
	}
}
