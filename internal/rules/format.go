package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/backmassage/compatmux/internal/config"
)

// ErrConfiguration marks a missing or invalid static table. It halts the run.
var ErrConfiguration = errors.New("configuration error")

//go:embed rules.toml
var defaultRules []byte

// CodecRule lists the codecs of one stream type that a container accepts
// as-is (Passthrough) and those that must be transformed (Convert).
type CodecRule struct {
	Passthrough map[string]bool
	Convert     map[string]bool
}

// FormatRules maps container -> stream type -> CodecRule.
type FormatRules map[string]map[config.StreamType]CodecRule

// Rule returns the rule for (container, stream type). A container that is
// known but lacks an entry for the type gets an empty rule, so every codec
// of that type is unknown.
func (f FormatRules) Rule(container string, t config.StreamType) (CodecRule, bool) {
	byType, ok := f[container]
	if !ok {
		return CodecRule{}, false
	}
	return byType[t], true
}

// Has reports whether container has an entry in the table.
func (f FormatRules) Has(container string) bool {
	_, ok := f[container]
	return ok
}

// Containers returns the known containers, sorted.
func (f FormatRules) Containers() []string {
	out := make([]string, 0, len(f))
	for c := range f {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// rawRule is the TOML shape of one (container, stream type) entry.
type rawRule struct {
	Passthrough []string `toml:"passthrough"`
	Convert     []string `toml:"convert"`
}

// DefaultFormatRules returns the built-in table.
func DefaultFormatRules() (FormatRules, error) {
	return ParseFormatRules(bytes.NewReader(defaultRules))
}

// LoadFormatRules reads a TOML rule table from path. An empty path yields
// the built-in table.
func LoadFormatRules(path string) (FormatRules, error) {
	if path == "" {
		return DefaultFormatRules()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open format rules: %v", ErrConfiguration, err)
	}
	defer f.Close()
	return ParseFormatRules(f)
}

// ParseFormatRules decodes a TOML rule table. A codec listed as both
// passthrough and convert for the same entry is rejected.
func ParseFormatRules(r io.Reader) (FormatRules, error) {
	var raw map[string]map[string]rawRule
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: parse format rules: %v", ErrConfiguration, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: format rules define no container", ErrConfiguration)
	}

	known := make(map[string]config.StreamType, len(config.StreamTypes))
	for _, t := range config.StreamTypes {
		known[string(t)] = t
	}

	out := make(FormatRules, len(raw))
	for container, byType := range raw {
		out[container] = make(map[config.StreamType]CodecRule, len(byType))
		for typeName, rr := range byType {
			st, ok := known[typeName]
			if !ok {
				return nil, fmt.Errorf("%w: format rules: %s: unknown stream type %q", ErrConfiguration, container, typeName)
			}
			rule := CodecRule{Passthrough: toSet(rr.Passthrough), Convert: toSet(rr.Convert)}
			for codec := range rule.Passthrough {
				if rule.Convert[codec] {
					return nil, fmt.Errorf("%w: format rules: %s.%s: codec %q is both passthrough and convert",
						ErrConfiguration, container, typeName, codec)
				}
			}
			out[container][st] = rule
		}
	}
	return out, nil
}

func toSet(codecs []string) map[string]bool {
	m := make(map[string]bool, len(codecs))
	for _, c := range codecs {
		m[c] = true
	}
	return m
}
