package planner

import (
	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/probe"
)

// Logger is the subset of logging.Logger the planner writes to.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Rule generates the pipeline of a stream that has to be transformed to
// fit container.
type Rule func(s probe.StreamInfo, container string) (Pipeline, error)

// Registry holds one Rule per stream type. Types without a rule cannot be
// converted.
type Registry map[config.StreamType]Rule

// RuleOptions carries the settings the built-in rules read.
type RuleOptions struct {
	Preset         string // x264 -preset.
	CRF            string // x264 -crf, single-pass only.
	TargetBitrate  string // Non-empty selects two-pass encoding.
	StrictChannels bool

	SelfPath string // Executable providing the sanitize-vtt subcommand.
	Dotnet   string
	PgsToSrt string
}

// OptionsFromConfig extracts the rule settings from cfg.
func OptionsFromConfig(cfg *config.Config) RuleOptions {
	self := cfg.SelfPath
	if self == "" {
		self = "compatmux"
	}
	return RuleOptions{
		Preset:         cfg.X264Preset,
		CRF:            cfg.X264CRF,
		TargetBitrate:  cfg.X264TargetBitrate,
		StrictChannels: cfg.StrictChannels,
		SelfPath:       self,
		Dotnet:         cfg.Dotnet,
		PgsToSrt:       cfg.PgsToSrt,
	}
}

// NewRegistry returns the built-in video, audio and subtitle rules.
func NewRegistry(o RuleOptions, log Logger) Registry {
	return Registry{
		config.StreamVideo:    videoRule(o, log),
		config.StreamAudio:    audioRule(o, log),
		config.StreamSubtitle: subtitleRule(o),
	}
}
