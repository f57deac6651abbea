package planner

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/probe"
	"github.com/backmassage/compatmux/internal/rules"
)

type recLogger struct {
	infos, warns []string
}

func (l *recLogger) Info(format string, args ...interface{}) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recLogger) Warn(format string, args ...interface{}) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recLogger) Debug(string, ...interface{}) {}

func testCompat() *rules.Compatibility {
	return rules.NewCompatibility(map[string][]string{
		"mp4": {"h264", "aac", "ac3", "mp3", "mov_text"},
		"mkv": {"h264", "aac", "ac3", "mp3", "flac", "subrip", "webvtt", "ttf", "otf", "mov_text"},
	})
}

func newTestPlanner(t *testing.T, mutate func(*config.Config)) (*Planner, *recLogger) {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	fr, err := rules.DefaultFormatRules()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	log := &recLogger{}
	return New(&cfg, fr, testCompat(), log), log
}

func stream(idx int, typ config.StreamType, codec string, bps string) probe.StreamInfo {
	s := probe.StreamInfo{Index: idx, Type: typ, Codec: codec, Tags: map[string]string{}}
	if bps != "" {
		s.Tags["BPS"] = bps
	}
	return s
}

func video(idx int, codec string, w, h int, pixFmt, bps string) probe.StreamInfo {
	s := stream(idx, config.StreamVideo, codec, bps)
	s.Width, s.Height, s.PixFmt = w, h, pixFmt
	return s
}

func audio(idx int, codec string, channels int) probe.StreamInfo {
	s := stream(idx, config.StreamAudio, codec, "192000")
	s.Channels = channels
	return s
}

func TestClassify_PassthroughWithinLimitIsCopy(t *testing.T) {
	p, _ := newTestPlanner(t, nil)
	tests := []struct {
		name string
		s    probe.StreamInfo
	}{
		{"h264 under limit", video(0, "h264", 1920, 1080, "yuv420p", "5000000")},
		{"h264 at limit", video(0, "h264", 1920, 1080, "yuv420p", "7000000")},
		{"aac", audio(1, "aac", 2)},
		{"eac3 surround", audio(2, "eac3", 6)},
		{"mov_text", stream(3, config.StreamSubtitle, "mov_text", "100")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl, err := p.Classify(tt.s, "mp4")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if !pl.IsCopy() {
				t.Errorf("got %d steps (%v), want singleton Copy", len(pl), pl)
			}
		})
	}
}

func TestClassify_PassthroughOverLimitIsConverted(t *testing.T) {
	p, log := newTestPlanner(t, nil)
	pl, err := p.Classify(video(0, "h264", 1920, 1080, "yuv420p", "9000000"), "mp4")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(pl) != 1 {
		t.Fatalf("got %d steps, want 1", len(pl))
	}
	c, ok := pl[0].(Convert)
	if !ok || c.OutCodec != "h264" {
		t.Errorf("got %#v, want h264 Convert", pl[0])
	}
	if len(log.warns) == 0 || !strings.Contains(log.warns[0], "bitrate too high (9000000 > 7000000)") {
		t.Errorf("warnings = %q, want forced transcoding cause", log.warns)
	}
}

func TestClassify_AttachmentOverLimitIsCopy(t *testing.T) {
	p, log := newTestPlanner(t, nil)
	pl, err := p.Classify(stream(3, config.StreamAttachment, "ttf", "99000000"), "mkv")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !pl.IsCopy() {
		t.Errorf("got %v, want singleton Copy", pl)
	}
	if len(log.warns) != 0 {
		t.Errorf("warnings = %q, want none", log.warns)
	}
}

func TestClassify_ConvertCodecRunsRule(t *testing.T) {
	p, _ := newTestPlanner(t, nil)
	tests := []struct {
		name      string
		s         probe.StreamInfo
		container string
		want      string
	}{
		{"hevc to h264", video(0, "hevc", 3840, 2160, "yuv420p10le", "20000000"), "mp4", "h264"},
		{"stereo flac to aac", audio(1, "flac", 2), "mp4", "aac"},
		{"5.1 dts to ac3", audio(1, "dts", 6), "mkv", "ac3"},
		{"subrip to mov_text", stream(2, config.StreamSubtitle, "subrip", "100"), "mp4", "mov_text"},
		{"mov_text to subrip", stream(2, config.StreamSubtitle, "mov_text", "100"), "mkv", "subrip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl, err := p.Classify(tt.s, tt.container)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got := pl.FinalCodec(); got != tt.want {
				t.Errorf("FinalCodec() = %q, want %q", got, tt.want)
			}
			if err := CheckCompatibility(tt.s, pl, tt.container, p.Compat, false); err != nil {
				t.Errorf("CheckCompatibility: %v", err)
			}
		})
	}
}

func TestClassify_UnknownCodec(t *testing.T) {
	tests := []struct {
		name     string
		mode     config.Mode
		s        probe.StreamInfo
		wantDrop bool
		wantWarn bool
	}{
		{"lite drops regardless of bitrate", config.ModeLite, stream(4, config.StreamSubtitle, "dvd_subtitle", "1"), true, false},
		{"lite drops compatible unknown", config.ModeLite, audio(1, "mp3float", 2), true, false},
		{"full drops incompatible unknown", config.ModeFull, stream(4, config.StreamSubtitle, "dvd_subtitle", "1"), true, true},
		{"full copies compatible unknown", config.ModeFull, stream(4, config.StreamAttachment, "otf", ""), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, log := newTestPlanner(t, func(c *config.Config) { c.Mode = tt.mode })
			pl, err := p.Classify(tt.s, "mkv")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if pl.IsDrop() != tt.wantDrop {
				t.Errorf("IsDrop() = %v, want %v", pl.IsDrop(), tt.wantDrop)
			}
			if !tt.wantDrop && !pl.IsCopy() {
				t.Errorf("got %v, want Copy", pl)
			}
			warned := false
			for _, w := range log.warns {
				if strings.Contains(w, "Forced to drop") {
					warned = true
				}
			}
			if warned != tt.wantWarn {
				t.Errorf("drop warning = %v, want %v (%q)", warned, tt.wantWarn, log.warns)
			}
		})
	}
}

func TestClassify_UnknownContainer(t *testing.T) {
	p, _ := newTestPlanner(t, nil)
	_, err := p.Classify(audio(1, "aac", 2), "avi")
	if !errors.Is(err, rules.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}

func TestClassify_BitrateWarning(t *testing.T) {
	p, log := newTestPlanner(t, nil)
	if _, err := p.Classify(stream(5, config.StreamAttachment, "ttf", ""), "mkv"); err != nil {
		t.Fatal(err)
	}
	if len(log.warns) != 0 {
		t.Errorf("attachment without bitrate warned: %q", log.warns)
	}
	if _, err := p.Classify(stream(1, config.StreamAudio, "aac", ""), "mkv"); err != nil {
		t.Fatal(err)
	}
	if len(log.warns) != 1 || !strings.Contains(log.warns[0], "Could not retrieve bitrate") {
		t.Errorf("warnings = %q, want one bitrate warning", log.warns)
	}
}

func TestClassify_ProgressLine(t *testing.T) {
	p, log := newTestPlanner(t, nil)
	s := stream(3, config.StreamSubtitle, "ass", "100")
	s.Tags["language"] = "fre"
	if _, err := p.Classify(s, "mp4"); err != nil {
		t.Fatal(err)
	}
	want := "Optimizing stream 3 (lang:fre): ass -> webvtt (extract) -> webvtt (normalized) -> mov_text"
	if len(log.infos) != 1 || log.infos[0] != want {
		t.Errorf("infos = %q, want %q", log.infos, want)
	}

	log.infos = nil
	if _, err := p.Classify(audio(1, "aac", 2), "mp4"); err != nil {
		t.Fatal(err)
	}
	if len(log.infos) != 0 {
		t.Errorf("copied stream printed %q", log.infos)
	}
}

func TestVideoRule_SinglePass(t *testing.T) {
	p, _ := newTestPlanner(t, nil)
	pl, err := p.Classify(video(0, "hevc", 3840, 2160, "yuv420p10le", "1"), "mp4")
	if err != nil {
		t.Fatal(err)
	}
	if len(pl) != 1 {
		t.Fatalf("got %d steps, want 1", len(pl))
	}
	c := pl[0].(Convert)
	if c.OutputFormat != "mp4" {
		t.Errorf("OutputFormat = %q, want mp4", c.OutputFormat)
	}
	got := strings.Join(ResolveAll(c.Params, Binding{OutStream: 2}), " ")
	want := "-filter:2 scale=w=1920:h=-1 -pix_fmt:2 yuv420p -preset slow -crf 22"
	if got != want {
		t.Errorf("params = %q, want %q", got, want)
	}
}

func TestVideoRule_UnknownDimensions(t *testing.T) {
	p, log := newTestPlanner(t, nil)
	pl, err := p.Classify(video(0, "mpeg4", 0, 0, "", "1"), "mp4")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(ResolveAll(pl[0].(Convert).Params, Binding{}), " ")
	if got != "-preset slow -crf 22" {
		t.Errorf("params = %q", got)
	}
	found := false
	for _, w := range log.warns {
		found = found || strings.Contains(w, "width or height")
	}
	if !found {
		t.Errorf("missing dimension warning in %q", log.warns)
	}
}

func TestVideoRule_TwoPass(t *testing.T) {
	p, _ := newTestPlanner(t, func(c *config.Config) { c.X264TargetBitrate = "4M" })
	pl, err := p.Classify(video(0, "hevc", 1920, 1080, "yuv420p", "1"), "mp4")
	if err != nil {
		t.Fatal(err)
	}
	if len(pl) != 2 {
		t.Fatalf("got %d steps, want 2", len(pl))
	}
	first, ok1 := pl[0].(Convert)
	second, ok2 := pl[1].(Convert)
	if !ok1 || !ok2 {
		t.Fatalf("want two Convert steps, got %#v", pl)
	}
	if first.OutputFormat != Discard {
		t.Errorf("pass 1 format = %q, want %q", first.OutputFormat, Discard)
	}
	if second.OutputFormat != "mp4" {
		t.Errorf("pass 2 format = %q, want mp4", second.OutputFormat)
	}
	b := Binding{OutStream: 0}
	if got := strings.Join(ResolveAll(first.Params, b), " "); got != "-preset slow -b:0 4M -pass 1 -f mp4" {
		t.Errorf("pass 1 params = %q", got)
	}
	if got := strings.Join(ResolveAll(second.Params, b), " "); got != "-preset slow -b:0 4M -pass 2" {
		t.Errorf("pass 2 params = %q", got)
	}
	if first.Repr() != "h264 (1/2 pass)" || second.Repr() != "h264 (2/2 pass)" {
		t.Errorf("reprs = %q, %q", first.Repr(), second.Repr())
	}
}

func TestAudioRule_Channels(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		strict   bool
		want     string
		wantErr  bool
	}{
		{"mono", 1, false, "aac", false},
		{"stereo", 2, false, "aac", false},
		{"5.1", 6, false, "ac3", false},
		{"unknown assumes stereo", 0, false, "aac", false},
		{"unknown strict fails", 0, true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPlanner(t, func(c *config.Config) { c.StrictChannels = tt.strict })
			pl, err := p.Classify(audio(1, "opus", tt.channels), "mp4")
			if tt.wantErr {
				if !errors.Is(err, probe.ErrProbeFailure) {
					t.Errorf("got %v, want ErrProbeFailure", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := pl.FinalCodec(); got != tt.want {
				t.Errorf("codec = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAudioRule_AACQuality(t *testing.T) {
	p, _ := newTestPlanner(t, nil)
	pl, err := p.Classify(audio(1, "vorbis", 2), "mkv")
	if err != nil {
		t.Fatal(err)
	}
	got := ResolveAll(pl[0].(Convert).Params, Binding{OutStream: 4})
	if strings.Join(got, " ") != "-q:4 1.4" {
		t.Errorf("params = %q, want -q:4 1.4", got)
	}
}

func TestSubtitleRule_Chains(t *testing.T) {
	p, _ := newTestPlanner(t, nil)
	tests := []struct {
		container string
		codec     string
		want      []string
	}{
		{"mp4", "ass", []string{"webvtt (extract)", "webvtt (normalized)", "mov_text"}},
		{"mp4", "webvtt", []string{"webvtt (extract)", "webvtt (normalized)", "mov_text"}},
		{"mp4", "hdmv_pgs_subtitle", []string{"copy (extract)", "subrip (external)", "mov_text"}},
		{"mkv", "ass", []string{"webvtt (extract)", "webvtt (normalized)", "subrip"}},
		{"mkv", "ssa", []string{"webvtt (extract)", "webvtt (normalized)", "subrip"}},
		{"mkv", "hdmv_pgs_subtitle", []string{"copy (extract)", "subrip (external)"}},
		{"mkv", "subrip", []string{"copy"}},
	}
	for _, tt := range tests {
		t.Run(tt.container+"/"+tt.codec, func(t *testing.T) {
			pl, err := p.Classify(stream(2, config.StreamSubtitle, tt.codec, "100"), tt.container)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, s := range pl {
				got = append(got, s.Repr())
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("chain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubtitleRule_ExtractBeforeNormalizeBeforeConvert(t *testing.T) {
	p, _ := newTestPlanner(t, nil)
	pl, err := p.Classify(stream(2, config.StreamSubtitle, "ass", "100"), "mp4")
	if err != nil {
		t.Fatal(err)
	}
	extract, normalize, final := -1, -1, -1
	for i, s := range pl {
		switch st := s.(type) {
		case Extract:
			extract = i
		case External:
			if st.Label == "webvtt (normalized)" {
				normalize = i
			}
		case Convert:
			final = i
		}
	}
	if !(extract >= 0 && extract < normalize && normalize < final && final == len(pl)-1) {
		t.Errorf("order extract=%d normalize=%d convert=%d in %d steps", extract, normalize, final, len(pl))
	}
}

func TestSubtitleRule_ExternalCommands(t *testing.T) {
	p, _ := newTestPlanner(t, func(c *config.Config) {
		c.SelfPath = "/opt/compatmux"
		c.PgsToSrt = "/opt/PgsToSrt.dll"
	})
	s := stream(2, config.StreamSubtitle, "hdmv_pgs_subtitle", "100")
	s.Tags["language"] = "en"
	pl, err := p.Classify(s, "mkv")
	if err != nil {
		t.Fatal(err)
	}
	ocr := pl[1].(External)
	b := Binding{InFile: "/tmp/x/a.mkv_2.copy.sup"}
	got := strings.Join(ResolveAll(ocr.Command, b), " ")
	want := "dotnet /opt/PgsToSrt.dll --input /tmp/x/a.mkv_2.copy.sup --tesseractlanguage eng"
	if got != want {
		t.Errorf("ocr command = %q, want %q", got, want)
	}
	if out := ocr.Output(b.InFile); out != "/tmp/x/a.mkv_2.copy.srt" {
		t.Errorf("ocr output = %q", out)
	}

	pl, err = p.Classify(stream(3, config.StreamSubtitle, "ass", "100"), "mkv")
	if err != nil {
		t.Fatal(err)
	}
	norm := pl[1].(External)
	got = strings.Join(ResolveAll(norm.Command, Binding{InFile: "in.vtt", OutFile: "out.vtt"}), " ")
	if got != "/opt/compatmux sanitize-vtt -i in.vtt -o out.vtt" {
		t.Errorf("normalize command = %q", got)
	}
	if norm.Output != nil {
		t.Error("normalize step should write to its bound output file")
	}
}

func TestSubtitleRule_UnhandledDrops(t *testing.T) {
	rule := subtitleRule(RuleOptions{})
	pl, err := rule(stream(2, config.StreamSubtitle, "dvb_subtitle", ""), "mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !pl.IsDrop() {
		t.Errorf("got %v, want Drop", pl)
	}
}

func TestTesseractLanguage(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "eng"},
		{"und", "eng"},
		{"eng", "eng"},
		{"en", "eng"},
		{"fr", "fra"},
		{"de", "deu"},
		{"fre", "fra"},
		{"ger", "deu"},
		{"cze", "ces"},
		{"dut", "nld"},
		{"chi", "zho"},
		{"gre", "ell"},
		{"FRE", "fra"},
		{"fra", "fra"},
		{"not a language", "eng"},
	}
	for _, tt := range tests {
		if got := TesseractLanguage(tt.in); got != tt.want {
			t.Errorf("TesseractLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPipelineValidate(t *testing.T) {
	normalize := External{OutCodec: "webvtt", OutputFormat: "vtt"}
	tests := []struct {
		name    string
		p       Pipeline
		wantErr bool
	}{
		{"copy", Single(Copy{}), false},
		{"drop", Single(Drop{}), false},
		{"single convert without format", Single(Convert{OutCodec: "aac"}), false},
		{"two pass", Pipeline{Convert{OutCodec: "h264", OutputFormat: Discard}, Convert{OutCodec: "h264", OutputFormat: "mp4"}}, false},
		{"extract chain", Pipeline{Extract{OutCodec: "webvtt", OutputFormat: "vtt"}, normalize, Convert{OutCodec: "mov_text"}}, false},
		{"empty", Pipeline{}, true},
		{"drop not alone", Pipeline{Drop{}, Convert{OutCodec: "aac"}}, true},
		{"copy not alone", Pipeline{Copy{}, Convert{OutCodec: "aac"}}, true},
		{"missing intermediate format", Pipeline{Convert{OutCodec: "h264"}, Convert{OutCodec: "h264", OutputFormat: "mp4"}}, true},
		{"discard as final", Single(Convert{OutCodec: "h264", OutputFormat: Discard}), true},
		{"discard on extract", Pipeline{Extract{OutCodec: "copy", OutputFormat: Discard}, Convert{OutCodec: "h264"}}, true},
		{"late extract", Pipeline{Convert{OutCodec: "h264", OutputFormat: "mp4"}, Extract{OutCodec: "copy", OutputFormat: "sup"}}, true},
		{"external first", Pipeline{normalize, Convert{OutCodec: "mov_text"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrPipelineIntegrity) {
				t.Errorf("error %v does not wrap ErrPipelineIntegrity", err)
			}
		})
	}
}

func TestCheckCompatibility(t *testing.T) {
	compat := testCompat()
	tests := []struct {
		name         string
		s            probe.StreamInfo
		p            Pipeline
		container    string
		keep         bool
		wantErr      bool
		wantOriginal bool
	}{
		{"compatible final codec", audio(1, "flac", 2), Single(Convert{OutCodec: "aac"}), "mp4", false, false, false},
		{"incompatible final codec", stream(2, config.StreamSubtitle, "ass", ""), Single(Convert{OutCodec: "subrip"}), "mp4", false, true, false},
		{"kept original incompatible", audio(1, "flac", 2), Single(Convert{OutCodec: "aac"}), "mp4", true, true, true},
		{"kept original compatible", audio(1, "flac", 2), Single(Convert{OutCodec: "aac"}), "mkv", true, false, false},
		{"dropped stream passes", stream(4, config.StreamSubtitle, "dvd_subtitle", ""), Single(Drop{}), "mp4", true, false, false},
		{"copy extract skipped", stream(2, config.StreamSubtitle, "hdmv_pgs_subtitle", ""), Pipeline{Extract{OutCodec: "copy", OutputFormat: "sup"}, External{OutCodec: "subrip", OutputFormat: "srt"}}, "mkv", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatibility(tt.s, tt.p, tt.container, compat, tt.keep)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckCompatibility() = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrCompatibility) {
				t.Errorf("error %v does not wrap ErrCompatibility", err)
			}
			var ce *CompatibilityError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not a *CompatibilityError", err)
			}
			if ce.Original != tt.wantOriginal || ce.Stream != tt.s.Index {
				t.Errorf("got %+v", ce)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	s := stream(4, config.StreamSubtitle, "dvd_subtitle", "")
	if got := Describe(s, Single(Drop{})); got != "Dropping stream 4 (dvd_subtitle subtitle)" {
		t.Errorf("drop line = %q", got)
	}
	v := video(0, "hevc", 1920, 1080, "", "")
	p := Pipeline{Convert{OutCodec: "h264", OutputFormat: Discard, Note: " (1/2 pass)"}, Convert{OutCodec: "h264", OutputFormat: "mp4", Note: " (2/2 pass)"}}
	if got := Describe(v, p); got != "Optimizing stream 0: hevc -> h264 (1/2 pass) -> h264 (2/2 pass)" {
		t.Errorf("two-pass line = %q", got)
	}
}
