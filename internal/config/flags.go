package config

// This file registers CLI flags and folds them onto a Config.
// Flags are grouped into rate control, behavior, paths, and display.
// Values land in a Flags struct first and are copied onto the Config only
// when the user set them, so config-file values survive unless overridden.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Flags holds the raw flag values for one command invocation.
type Flags struct {
	fs *pflag.FlagSet

	configFile  string
	mode        string
	formats     []string
	bitrate     string
	strictChans bool
	script      string

	preset        string
	crf           string
	targetBitrate string

	compatTable string
	rulesFile   string
	pgsToSrt    string
	dotnet      string
	mkvmerge    string

	singleScript bool
	justOne      bool
	recursive    bool
	dryRun       bool

	verbose bool
	color   string
	noColor bool
	logFile string
}

// RegisterFlags defines every planning flag on fs, using cfg for the
// displayed defaults.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) *Flags {
	f := &Flags{fs: fs}
	defineRateFlags(fs, cfg, f)
	defineBehaviorFlags(fs, cfg, f)
	definePathFlags(fs, cfg, f)
	defineDisplayFlags(fs, cfg, f)
	return f
}

// defineRateFlags registers the video rate-control flags and the bitrate ceiling.
func defineRateFlags(fs *pflag.FlagSet, cfg *Config, f *Flags) {
	fs.StringVar(&f.preset, "x264-preset", cfg.X264Preset, "Value for -preset used by the h264 encoder")
	fs.StringVar(&f.crf, "x264-crf", cfg.X264CRF, "Value for -crf used by the h264 encoder (1-pass mode)")
	fs.StringVar(&f.targetBitrate, "x264-target-bitrate", "", "Value for -b used by the h264 encoder (2-pass mode)")
	fs.StringVar(&f.bitrate, "bitrate-limit", cfg.BitrateLimit, "Streams above this bitrate are re-encoded (K and M suffixes accepted)")
}

// defineBehaviorFlags registers mode, formats, and script production switches.
func defineBehaviorFlags(fs *pflag.FlagSet, cfg *Config, f *Flags) {
	fs.StringVar(&f.mode, "mode", string(cfg.Mode), "lite | standalone | full")
	fs.StringSliceVar(&f.formats, "format", cfg.Formats, "Output formats, tried in order")
	fs.BoolVar(&f.strictChans, "strict-channels", cfg.StrictChannels, "Fail on audio streams without a channel count")
	fs.StringVar(&f.script, "script", string(cfg.Script), "Script dialect: bash | batch (default: host OS)")
	fs.BoolVar(&f.singleScript, "single-script", false, "Also write one script that runs every per-file script")
	fs.BoolVar(&f.justOne, "just-one", false, "Only process the first file found")
	fs.BoolVarP(&f.recursive, "recursive", "r", false, "Search subdirectories for source files")
	fs.BoolVarP(&f.dryRun, "dry-run", "d", false, "Print plans without writing scripts")
}

// definePathFlags registers table and external tool locations.
func definePathFlags(fs *pflag.FlagSet, cfg *Config, f *Flags) {
	fs.StringVar(&f.configFile, "config", "", "TOML configuration file")
	fs.StringVar(&f.compatTable, "compat-table", cfg.CompatTable, "Container compatibility table (JSON or YAML)")
	fs.StringVar(&f.rulesFile, "rules", "", "TOML file overriding the built-in format rules")
	fs.StringVar(&f.pgsToSrt, "pgstosrt", cfg.PgsToSrt, "Path to PgsToSrt.dll for image subtitle OCR")
	fs.StringVar(&f.dotnet, "dotnet", cfg.Dotnet, "dotnet executable used to run PgsToSrt")
	fs.StringVar(&f.mkvmerge, "mkvmerge", cfg.Mkvmerge, "mkvmerge executable used to finalize MKV output")
}

// defineDisplayFlags registers --color, --no-color, verbose, and --log.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config, f *Flags) {
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output")
	fs.StringVar(&f.color, "color", string(cfg.ColorMode), "Colored logs: auto | always | never")
	fs.BoolVar(&f.noColor, "no-color", false, "Same as --color never")
	fs.StringVarP(&f.logFile, "log", "l", "", "Append logs to file")
}

// ConfigFile returns the --config value.
func (f *Flags) ConfigFile() string {
	return f.configFile
}

// Apply copies every flag the user set onto cfg.
func (f *Flags) Apply(cfg *Config) {
	changed := f.fs.Changed
	if changed("mode") {
		cfg.Mode = Mode(strings.ToLower(f.mode))
	}
	if changed("format") {
		cfg.Formats = f.formats
	}
	if changed("bitrate-limit") {
		cfg.BitrateLimit = f.bitrate
	}
	if changed("strict-channels") {
		cfg.StrictChannels = f.strictChans
	}
	if changed("script") {
		cfg.Script = ScriptDialect(strings.ToLower(f.script))
	}
	if changed("x264-preset") {
		cfg.X264Preset = f.preset
	}
	if changed("x264-crf") {
		cfg.X264CRF = f.crf
	}
	if changed("x264-target-bitrate") {
		cfg.X264TargetBitrate = f.targetBitrate
	}
	if changed("compat-table") {
		cfg.CompatTable = f.compatTable
	}
	if changed("rules") {
		cfg.RulesFile = f.rulesFile
	}
	if changed("pgstosrt") {
		cfg.PgsToSrt = f.pgsToSrt
	}
	if changed("dotnet") {
		cfg.Dotnet = f.dotnet
	}
	if changed("mkvmerge") {
		cfg.Mkvmerge = f.mkvmerge
	}
	if changed("color") {
		cfg.ColorMode = ColorMode(strings.ToLower(f.color))
	}
	if f.noColor {
		cfg.ColorMode = ColorNever
	}
	if changed("log") {
		cfg.LogFile = f.logFile
	}
	cfg.SingleScript = cfg.SingleScript || f.singleScript
	cfg.JustOne = cfg.JustOne || f.justOne
	cfg.Recursive = cfg.Recursive || f.recursive
	cfg.DryRun = cfg.DryRun || f.dryRun
	cfg.Verbose = cfg.Verbose || f.verbose
}

// Resolve builds the effective Config: defaults, then the config file named
// by --config, then flags, then positional args. The result is validated.
func (f *Flags) Resolve(args []string) (Config, error) {
	cfg := DefaultConfig()
	if f.fs.Changed("x264-crf") && f.fs.Changed("x264-target-bitrate") {
		return cfg, fmt.Errorf("--x264-crf and --x264-target-bitrate are mutually exclusive")
	}
	if f.configFile != "" {
		if err := LoadFile(&cfg, f.configFile); err != nil {
			return cfg, err
		}
	}
	f.Apply(&cfg)

	if len(args) > 1 {
		return cfg, fmt.Errorf("expected at most one input directory, got %d", len(args))
	}
	if len(args) == 1 {
		cfg.InputDir = NormalizeDirArg(args[0])
	}
	if cfg.InputDir == "" {
		cfg.InputDir = "."
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
