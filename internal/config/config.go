package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration.
type Config struct {
	Ignore  []string `yaml:"ignore" json:"ignore"`
	Options Options  `yaml:"options" json:"options"`

	ignored map[string]bool
}

// Options represents translation options.
type Options struct {
	NoCPP       bool     `yaml:"noCpp" json:"noCpp"`
	CPP         string   `yaml:"cpp" json:"cpp"`
	CPPArgs     []string `yaml:"cppArgs" json:"cppArgs"`
	IncludeDirs []string `yaml:"includeDirs" json:"includeDirs"`
	Whitelist   []string `yaml:"whitelist" json:"whitelist"`
	Jobs        int      `yaml:"jobs" json:"jobs"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Ignore:  DefaultIgnore(),
		Options: DefaultOptions(),
	}
	c.index()
	return c
}

// LoadFile loads configuration from a file (YAML or JSON based on extension).
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Errorf("reading config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var loaded Config
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return errors.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &loaded); err != nil {
			return errors.Errorf("parsing JSON config: %w", err)
		}
	default:
		// Try YAML first, then JSON
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			if err := json.Unmarshal(data, &loaded); err != nil {
				return errors.New("unable to parse config as YAML or JSON")
			}
		}
	}

	c.merge(&loaded)

	return nil
}

// merge merges the loaded config into the current config. Lists extend the
// defaults, except the whitelist which replaces them.
func (c *Config) merge(loaded *Config) {
	c.AddIgnore(loaded.Ignore...)

	if loaded.Options.NoCPP {
		c.Options.NoCPP = true
	}
	if loaded.Options.CPP != "" {
		c.Options.CPP = loaded.Options.CPP
	}
	c.Options.CPPArgs = append(c.Options.CPPArgs, loaded.Options.CPPArgs...)
	c.Options.IncludeDirs = append(c.Options.IncludeDirs, loaded.Options.IncludeDirs...)
	if len(loaded.Options.Whitelist) > 0 {
		c.Options.Whitelist = loaded.Options.Whitelist
	}
	if loaded.Options.Jobs > 0 {
		c.Options.Jobs = loaded.Options.Jobs
	}
}

// AddIgnore extends the ignore list.
func (c *Config) AddIgnore(names ...string) {
	c.Ignore = append(c.Ignore, names...)
	c.index()
}

func (c *Config) index() {
	c.ignored = make(map[string]bool, len(c.Ignore))
	for _, n := range c.Ignore {
		c.ignored[n] = true
	}
}

// IsIgnored reports whether a top-level name belongs to the ignore list.
func (c *Config) IsIgnored(name string) bool {
	return c.ignored[name]
}

// ShouldIncludeDecl checks if a top-level declaration named name, found in
// file, takes part in the translation.
func (c *Config) ShouldIncludeDecl(name, file string) bool {
	if name != "" && c.IsIgnored(name) {
		return false
	}
	if len(c.Options.Whitelist) > 0 && !slices.Contains(c.Options.Whitelist, file) {
		return false
	}
	return true
}

// ForHeader returns the configuration for translating header. Without an
// explicit whitelist only declarations from header itself are kept.
func (c *Config) ForHeader(header string) *Config {
	if len(c.Options.Whitelist) > 0 {
		return c
	}
	cp := *c
	cp.Options.Whitelist = []string{header}
	return &cp
}
