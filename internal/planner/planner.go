package planner

import (
	"fmt"

	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/probe"
	"github.com/backmassage/compatmux/internal/rules"
)

// Planner classifies streams against the format rule table. It holds only
// read-only tables and is safe for concurrent use.
type Planner struct {
	Rules        rules.FormatRules
	Compat       *rules.Compatibility
	Registry     Registry
	BitrateLimit int64 // Bits/sec; passthrough streams above it are converted.
	DropUnknown  bool
	Log          Logger
}

// New builds a Planner with the built-in rule registry.
func New(cfg *config.Config, fr rules.FormatRules, compat *rules.Compatibility, log Logger) *Planner {
	return &Planner{
		Rules:        fr,
		Compat:       compat,
		Registry:     NewRegistry(OptionsFromConfig(cfg), log),
		BitrateLimit: cfg.BitrateLimitBPS,
		DropUnknown:  cfg.DropUnknown(),
		Log:          log,
	}
}

// Classify returns the validated pipeline of stream s for container and
// logs a one-line summary of it.
//
//   - Passthrough codec at or under the bitrate limit: Copy.
//   - Passthrough codec over the limit: forced conversion.
//   - Convert codec: the stream type's conversion rule.
//   - Unknown codec: Drop when unknown codecs are dropped or the container
//     cannot hold it, Copy otherwise.
func (p *Planner) Classify(s probe.StreamInfo, container string) (Pipeline, error) {
	pl, err := p.classify(s, container)
	if err != nil {
		return nil, fmt.Errorf("stream %d: %w", s.Index, err)
	}
	if err := pl.Validate(); err != nil {
		return nil, fmt.Errorf("stream %d (%s %s): %w", s.Index, s.Codec, s.Type, err)
	}
	if line := Describe(s, pl); line != "" {
		p.Log.Info("%s", line)
	}
	return pl, nil
}

func (p *Planner) classify(s probe.StreamInfo, container string) (Pipeline, error) {
	rule, ok := p.Rules.Rule(container, s.Type)
	if !ok {
		return nil, fmt.Errorf("%w: no format rules for container %q", rules.ErrConfiguration, container)
	}

	bitrate := s.Bitrate()
	if bitrate == 0 && s.Type != config.StreamAttachment {
		p.Log.Warn("Could not retrieve bitrate of stream %d (%s)", s.Index, s.Type)
	}

	switch {
	case rule.Passthrough[s.Codec]:
		// Attachments are files, not media: the limit does not apply.
		if bitrate > p.BitrateLimit && s.Type != config.StreamAttachment {
			p.Log.Warn("Forcing transcoding of stream %d. Cause: bitrate too high (%d > %d)", s.Index, bitrate, p.BitrateLimit)
			return p.convert(s, container)
		}
		return Single(Copy{}), nil
	case rule.Convert[s.Codec]:
		return p.convert(s, container)
	case p.DropUnknown:
		return Single(Drop{}), nil
	case !p.Compat.Supports(container, s.Codec):
		p.Log.Warn("Forced to drop stream %d of unhandled codec %s. Cause: incompatible with format %s.", s.Index, s.Codec, container)
		return Single(Drop{}), nil
	default:
		return Single(Copy{}), nil
	}
}

func (p *Planner) convert(s probe.StreamInfo, container string) (Pipeline, error) {
	rule, ok := p.Registry[s.Type]
	if !ok {
		return nil, integrityErr("no conversion rule for %s streams", s.Type)
	}
	return rule(s, container)
}
