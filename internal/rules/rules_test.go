package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/compatmux/internal/config"
)

func TestDefaultFormatRules(t *testing.T) {
	fr, err := DefaultFormatRules()
	if err != nil {
		t.Fatalf("DefaultFormatRules: %v", err)
	}
	if got := fr.Containers(); len(got) != 2 || got[0] != "mkv" || got[1] != "mp4" {
		t.Errorf("Containers() = %v, want [mkv mp4]", got)
	}

	tests := []struct {
		container   string
		st          config.StreamType
		codec       string
		passthrough bool
		convert     bool
	}{
		{"mp4", config.StreamVideo, "h264", true, false},
		{"mp4", config.StreamVideo, "hevc", false, true},
		{"mp4", config.StreamAudio, "eac3", true, false},
		{"mp4", config.StreamAudio, "dts", false, true},
		{"mp4", config.StreamSubtitle, "mov_text", true, false},
		{"mp4", config.StreamSubtitle, "subrip", false, true},
		{"mkv", config.StreamSubtitle, "subrip", true, false},
		{"mkv", config.StreamSubtitle, "mov_text", false, true},
		{"mkv", config.StreamAttachment, "ttf", true, false},
		{"mp4", config.StreamAttachment, "ttf", false, false},
		{"mp4", config.StreamSubtitle, "dvd_subtitle", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.container+"/"+tt.codec, func(t *testing.T) {
			rule, ok := fr.Rule(tt.container, tt.st)
			if !ok {
				t.Fatalf("no rule for %s", tt.container)
			}
			if rule.Passthrough[tt.codec] != tt.passthrough {
				t.Errorf("passthrough[%s] = %v, want %v", tt.codec, rule.Passthrough[tt.codec], tt.passthrough)
			}
			if rule.Convert[tt.codec] != tt.convert {
				t.Errorf("convert[%s] = %v, want %v", tt.codec, rule.Convert[tt.codec], tt.convert)
			}
		})
	}

	if _, ok := fr.Rule("avi", config.StreamVideo); ok {
		t.Error("avi should be unknown")
	}
}

func TestParseFormatRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"empty", ""},
		{"bad syntax", "[mp4.video\npassthrough = 1"},
		{"unknown stream type", "[mp4.data]\npassthrough = [\"bin\"]\n"},
		{"codec in both lists", "[mp4.video]\npassthrough = [\"h264\"]\nconvert = [\"h264\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFormatRules(strings.NewReader(tt.toml))
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadFormatRules_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := "[webm.video]\npassthrough = [\"vp9\"]\nconvert = [\"h264\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fr, err := LoadFormatRules(path)
	if err != nil {
		t.Fatalf("LoadFormatRules: %v", err)
	}
	if !fr.Has("webm") || fr.Has("mp4") {
		t.Errorf("Containers() = %v, want only webm", fr.Containers())
	}
	rule, _ := fr.Rule("webm", config.StreamAudio)
	if len(rule.Passthrough) != 0 {
		t.Error("missing stream type should yield an empty rule")
	}
}

func TestLoadCompatibility_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "format_compatibility.json")
	if err := os.WriteFile(path, []byte(`{"mp4": ["h264", "aac", "mov_text"], "mkv": ["h264", "subrip"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCompatibility(path)
	if err != nil {
		t.Fatalf("LoadCompatibility: %v", err)
	}
	if !c.Supports("mp4", "mov_text") || c.Supports("mp4", "subrip") {
		t.Error("mp4 support set wrong")
	}
	if c.Supports("avi", "h264") {
		t.Error("unknown container must support nothing")
	}
	if got := c.Codecs("mkv"); len(got) != 2 || got[0] != "h264" {
		t.Errorf("Codecs(mkv) = %v", got)
	}
}

func TestLoadCompatibility_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compat.yaml")
	content := "mp4:\n  - h264\n  - aac\nmkv:\n  - subrip\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCompatibility(path)
	if err != nil {
		t.Fatalf("LoadCompatibility: %v", err)
	}
	if !c.Supports("mp4", "aac") || !c.Supports("mkv", "subrip") {
		t.Errorf("Table() = %v", c.Table())
	}
}

func TestLoadCompatibility_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	empty := filepath.Join(dir, "empty.json")
	os.WriteFile(bad, []byte("{mp4: h264"), 0o644)
	os.WriteFile(empty, []byte("{}"), 0o644)

	for _, path := range []string{filepath.Join(dir, "missing.json"), bad, empty} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadCompatibility(path)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestMarshalCompatibility_RoundTrip(t *testing.T) {
	c := NewCompatibility(map[string][]string{"mp4": {"h264", "aac"}})
	for _, format := range []string{"json", "yaml"} {
		data, err := MarshalCompatibility(c, format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		back, err := ParseCompatibility(data, format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !back.Supports("mp4", "aac") {
			t.Errorf("%s round trip lost codecs: %s", format, data)
		}
	}
}
