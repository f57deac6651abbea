package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compatibility maps container -> set of codecs the container can hold.
type Compatibility struct {
	codecs map[string]map[string]bool
}

// NewCompatibility builds a table from container -> codec list.
func NewCompatibility(table map[string][]string) *Compatibility {
	c := &Compatibility{codecs: make(map[string]map[string]bool, len(table))}
	for container, codecs := range table {
		c.codecs[container] = toSet(codecs)
	}
	return c
}

// Supports reports whether container can hold codec. Unknown containers
// support nothing.
func (c *Compatibility) Supports(container, codec string) bool {
	return c.codecs[container][codec]
}

// Has reports whether container has an entry.
func (c *Compatibility) Has(container string) bool {
	_, ok := c.codecs[container]
	return ok
}

// Containers returns the containers in the table, sorted.
func (c *Compatibility) Containers() []string {
	out := make([]string, 0, len(c.codecs))
	for k := range c.codecs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Codecs returns the codecs of container, sorted.
func (c *Compatibility) Codecs(container string) []string {
	out := make([]string, 0, len(c.codecs[container]))
	for k := range c.codecs[container] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Table returns the table as container -> sorted codec list, the shape
// written to disk.
func (c *Compatibility) Table() map[string][]string {
	out := make(map[string][]string, len(c.codecs))
	for _, k := range c.Containers() {
		out[k] = c.Codecs(k)
	}
	return out
}

// LoadCompatibility reads the table from path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as JSON. A missing or
// malformed file wraps ErrConfiguration.
func LoadCompatibility(path string) (*Compatibility, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: compatibility table not found: %s", ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: read compatibility table: %v", ErrConfiguration, err)
	}
	return ParseCompatibility(data, FormatOf(path))
}

// ParseCompatibility decodes a table in the given format ("json" or "yaml").
func ParseCompatibility(data []byte, format string) (*Compatibility, error) {
	var table map[string][]string
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &table)
	default:
		err = json.Unmarshal(data, &table)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse compatibility table: %v", ErrConfiguration, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: compatibility table is empty", ErrConfiguration)
	}
	return NewCompatibility(table), nil
}

// MarshalCompatibility encodes the table in the given format.
func MarshalCompatibility(c *Compatibility, format string) ([]byte, error) {
	if format == "yaml" {
		return yaml.Marshal(c.Table())
	}
	data, err := json.MarshalIndent(c.Table(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FormatOf reports the encoding LoadCompatibility uses for path.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
