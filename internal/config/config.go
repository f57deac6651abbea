// Package config holds runtime configuration: defaults, the optional TOML
// config file, CLI flag registration, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// --- Enum types for validated string fields ---

// Mode selects which original streams survive next to their converted copies.
type Mode string

const (
	ModeLite       Mode = "lite"       // Converted copies only; unknown streams dropped (default).
	ModeStandalone Mode = "standalone" // Keep original audio, subtitles and attachments.
	ModeFull       Mode = "full"       // Keep every original stream, video included.
)

// Container is an output container format, named by its file extension.
type Container string

const (
	ContainerMP4 Container = "mp4"
	ContainerMKV Container = "mkv"
)

// StreamType is the ffprobe codec_type of a stream the planner handles.
type StreamType string

const (
	StreamVideo      StreamType = "video"
	StreamAudio      StreamType = "audio"
	StreamSubtitle   StreamType = "subtitle"
	StreamAttachment StreamType = "attachment"
)

// StreamTypes lists every handled stream type in display order.
var StreamTypes = []StreamType{StreamVideo, StreamAudio, StreamSubtitle, StreamAttachment}

// ScriptDialect is the flavor of the emitted command script.
type ScriptDialect string

const (
	ScriptAuto  ScriptDialect = ""      // Batch on Windows, bash elsewhere.
	ScriptBash  ScriptDialect = "bash"
	ScriptBatch ScriptDialect = "batch"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [LoadFile] when a config file is given, and finally by CLI flags.
type Config struct {
	// Paths.
	InputDir    string
	ConfigFile  string
	CompatTable string // format_compatibility.json (or .yaml).
	RulesFile   string // Optional TOML override of the format rule table.
	SelfPath    string // This executable, used by the subtitle normalization step.

	// Planning.
	Mode            Mode
	Formats         []string // Target containers, tried in order.
	BitrateLimit    string   // Default: "7M".
	BitrateLimitBPS int64    // Derived from BitrateLimit by Validate.
	StrictChannels  bool     // Fail instead of assuming stereo when channel count is unknown.

	// Video encoder (libx264).
	X264Preset        string // Default: "slow".
	X264CRF           string // Default: "22". Ignored in two-pass mode.
	X264TargetBitrate string // When set, video is encoded in two passes.

	// External tools.
	Dotnet   string // Default: "dotnet".
	PgsToSrt string // Path to PgsToSrt.dll.
	Mkvmerge string // Default: "mkvmerge".

	// Script output.
	Script       ScriptDialect
	SingleScript bool
	JustOne      bool
	Recursive    bool
	DryRun       bool

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode
	LogFile   string

	// ffmpeg global options (not user-configurable from flags).
	FFmpegLogLevel        string
	FFmpegProbesize       string
	FFmpegAnalyzeDuration string
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		CompatTable:           "format_compatibility.json",
		Mode:                  ModeLite,
		Formats:               []string{string(ContainerMP4), string(ContainerMKV)},
		BitrateLimit:          "7M",
		X264Preset:            "slow",
		X264CRF:               "22",
		Dotnet:                "dotnet",
		PgsToSrt:              "PgsToSrt.dll",
		Mkvmerge:              "mkvmerge",
		Script:                ScriptAuto,
		ColorMode:             ColorAuto,
		FFmpegLogLevel:        "warning",
		FFmpegProbesize:       "100G",
		FFmpegAnalyzeDuration: "100G",
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, the format list and the rate settings, and
// derives BitrateLimitBPS.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLite, ModeStandalone, ModeFull:
		// valid
	default:
		return errors.New("invalid mode (use 'lite', 'standalone' or 'full')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	switch c.Script {
	case ScriptAuto, ScriptBash, ScriptBatch:
		// valid
	default:
		return errors.New("invalid script dialect (use 'bash' or 'batch')")
	}

	formats, err := normalizeFormats(c.Formats)
	if err != nil {
		return err
	}
	c.Formats = formats

	bps, err := ParseBitrate(c.BitrateLimit)
	if err != nil {
		return fmt.Errorf("bitrate limit: %w", err)
	}
	c.BitrateLimitBPS = bps

	if c.X264Preset == "" {
		return errors.New("x264 preset must not be empty")
	}
	if c.X264TargetBitrate != "" {
		if _, err := ParseBitrate(c.X264TargetBitrate); err != nil {
			return fmt.Errorf("x264 target bitrate: %w", err)
		}
	} else if n, err := strconv.Atoi(strings.TrimSpace(c.X264CRF)); err != nil || n < 0 || n > 51 {
		return fmt.Errorf("invalid x264 crf %q (use 0-51)", c.X264CRF)
	}

	if c.CompatTable == "" {
		return errors.New("compatibility table path must not be empty")
	}
	return nil
}

// normalizeFormats lowercases, strips leading dots and removes duplicates
// while keeping the user's order.
func normalizeFormats(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f)), ".")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New("need at least one output format")
	}
	return out, nil
}

// ParseBitrate converts a bitrate such as "7M", "700k" or "7000000" to
// bits per second. K and M are decimal multipliers, case-insensitive.
func ParseBitrate(raw string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, errors.New("bitrate must not be empty")
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		mult = 1000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult = 1000000
		s = strings.TrimSuffix(s, "m")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid bitrate %q (use a positive value with optional K or M suffix)", raw)
	}
	return n * mult, nil
}

// KeepOriginal reports whether the original stream of type t is remuxed next
// to its converted copy.
func (c *Config) KeepOriginal(t StreamType) bool {
	switch c.Mode {
	case ModeFull:
		return true
	case ModeStandalone:
		return t != StreamVideo
	default:
		return false
	}
}

// KeepOriginalPolicy returns [Config.KeepOriginal] for every stream type.
func (c *Config) KeepOriginalPolicy() map[StreamType]bool {
	p := make(map[StreamType]bool, len(StreamTypes))
	for _, t := range StreamTypes {
		p[t] = c.KeepOriginal(t)
	}
	return p
}

// DropUnknown reports whether streams with codecs absent from the rule
// table are dropped outright.
func (c *Config) DropUnknown() bool {
	return c.Mode == ModeLite
}

// TwoPass reports whether video is encoded against a target bitrate.
func (c *Config) TwoPass() bool {
	return c.X264TargetBitrate != ""
}

// Dialect resolves ScriptAuto against the host OS.
func (c *Config) Dialect() ScriptDialect {
	if c.Script != ScriptAuto {
		return c.Script
	}
	if runtime.GOOS == "windows" {
		return ScriptBatch
	}
	return ScriptBash
}

// ScriptExt is the file extension of the resolved script dialect.
func (c *Config) ScriptExt() string {
	if c.Dialect() == ScriptBatch {
		return "bat"
	}
	return "sh"
}

// ResolveCompatTable returns the compatibility table path. A relative path
// is looked up next to the executable first, then in the working directory.
func (c *Config) ResolveCompatTable(exists func(string) bool) string {
	if filepath.IsAbs(c.CompatTable) || c.SelfPath == "" {
		return c.CompatTable
	}
	beside := filepath.Join(filepath.Dir(c.SelfPath), c.CompatTable)
	if exists(beside) {
		return beside
	}
	return c.CompatTable
}
