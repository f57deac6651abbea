package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// SampleConfig returns the commented default configuration file.
func SampleConfig() string {
	return sampleConfig
}

// fileConfig mirrors the TOML layout. It is seeded from the current Config
// so keys missing from the file keep their values.
type fileConfig struct {
	Mode           string   `toml:"mode"`
	Formats        []string `toml:"formats"`
	BitrateLimit   string   `toml:"bitrate_limit"`
	StrictChannels bool     `toml:"strict_channels"`
	Script         string   `toml:"script"`

	Video struct {
		Preset        string `toml:"preset"`
		CRF           string `toml:"crf"`
		TargetBitrate string `toml:"target_bitrate"`
	} `toml:"video"`

	Tables struct {
		Compat string `toml:"compat"`
		Rules  string `toml:"rules"`
	} `toml:"tables"`

	Tools struct {
		Dotnet   string `toml:"dotnet"`
		PgsToSrt string `toml:"pgstosrt"`
		Mkvmerge string `toml:"mkvmerge"`
	} `toml:"tools"`

	Display struct {
		Color   string `toml:"color"`
		Verbose bool   `toml:"verbose"`
		LogFile string `toml:"log_file"`
	} `toml:"display"`
}

// LoadFile applies the TOML config at path onto cfg. A missing file is an
// error because the user asked for it explicitly.
func LoadFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	fc := toFile(cfg)
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	fromFile(cfg, &fc)
	cfg.ConfigFile = path
	return nil
}

func toFile(cfg *Config) fileConfig {
	var fc fileConfig
	fc.Mode = string(cfg.Mode)
	fc.Formats = append([]string(nil), cfg.Formats...)
	fc.BitrateLimit = cfg.BitrateLimit
	fc.StrictChannels = cfg.StrictChannels
	fc.Script = string(cfg.Script)
	fc.Video.Preset = cfg.X264Preset
	fc.Video.CRF = cfg.X264CRF
	fc.Video.TargetBitrate = cfg.X264TargetBitrate
	fc.Tables.Compat = cfg.CompatTable
	fc.Tables.Rules = cfg.RulesFile
	fc.Tools.Dotnet = cfg.Dotnet
	fc.Tools.PgsToSrt = cfg.PgsToSrt
	fc.Tools.Mkvmerge = cfg.Mkvmerge
	fc.Display.Color = string(cfg.ColorMode)
	fc.Display.Verbose = cfg.Verbose
	fc.Display.LogFile = cfg.LogFile
	return fc
}

func fromFile(cfg *Config, fc *fileConfig) {
	cfg.Mode = Mode(fc.Mode)
	cfg.Formats = fc.Formats
	cfg.BitrateLimit = fc.BitrateLimit
	cfg.StrictChannels = fc.StrictChannels
	cfg.Script = ScriptDialect(fc.Script)
	cfg.X264Preset = fc.Video.Preset
	cfg.X264CRF = fc.Video.CRF
	cfg.X264TargetBitrate = fc.Video.TargetBitrate
	cfg.CompatTable = fc.Tables.Compat
	cfg.RulesFile = fc.Tables.Rules
	cfg.Dotnet = fc.Tools.Dotnet
	cfg.PgsToSrt = fc.Tools.PgsToSrt
	cfg.Mkvmerge = fc.Tools.Mkvmerge
	cfg.ColorMode = ColorMode(fc.Display.Color)
	cfg.Verbose = fc.Display.Verbose
	cfg.LogFile = fc.Display.LogFile
}
