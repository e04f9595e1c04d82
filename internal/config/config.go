// Package config holds the resolved run configuration for flat.
// Configuration source priority (highest to lowest):
// 1. Command-line flags
// 2. Config file path specified via --config flag
// 3. <path>/.flat.yaml, then ~/.config/flat/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/zkoranges/flat/internal/units"
)

// Config is the complete configuration for a single run.
type Config struct {
	// Path is the directory to process.
	Path string

	// Include restricts processing to these extensions (without the dot).
	// Empty = all extensions.
	Include []string

	// Exclude drops these extensions. Exclusion wins over inclusion.
	Exclude []string

	// Match restricts processing to file names matching any of these
	// globs. Empty = every name passes.
	Match []string

	// FullMatch names files that always keep their full content when
	// compression is on.
	FullMatch []string

	// Output is the artifact path. Empty = stdout. A ".gz" suffix
	// selects gzip framing.
	Output string

	// DryRun lists decisions without writing file bodies.
	DryRun bool

	// StatsOnly prints the summary block and nothing else.
	StatsOnly bool

	// GitignorePath is an extra ignore file applied from the scan root.
	GitignorePath string

	// MaxFileSize is the per-file size cutoff in bytes.
	MaxFileSize int64

	// Compress reduces source files to declarations and signatures.
	Compress bool

	// TokenBudget caps the total estimated tokens of the artifact.
	// Only honored when HasBudget is set.
	TokenBudget int

	// HasBudget distinguishes --tokens 0 from "--tokens not given".
	HasBudget bool

	// CacheEnabled reuses compression results across runs.
	CacheEnabled bool

	// MaxBindingLen is the retention cutoff for simple module-level
	// bindings under compression.
	MaxBindingLen int
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Path:          ".",
		MaxFileSize:   1 << 20,
		MaxBindingLen: 120,
	}
}

// ShouldIncludeExtension reports whether a file with the given extension
// passes the include/exclude lists. Comparison is case-insensitive.
func (c *Config) ShouldIncludeExtension(ext string) bool {
	if len(c.Include) > 0 && !containsFold(c.Include, ext) {
		return false
	}
	if containsFold(c.Exclude, ext) {
		return false
	}
	return true
}

// ShouldIncludeByMatch reports whether the file name matches any of the
// configured globs. No globs means every name passes.
func (c *Config) ShouldIncludeByMatch(name string) bool {
	if len(c.Match) == 0 {
		return true
	}
	return matchesAny(c.Match, name)
}

// IsFullMatch reports whether the file name matches a full-content glob.
// No globs means no file is pinned.
func (c *Config) IsFullMatch(name string) bool {
	return matchesAny(c.FullMatch, name)
}

// Validate rejects malformed glob patterns before any walking starts.
func (c *Config) Validate() error {
	for _, p := range c.Match {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid match pattern %q", p)
		}
	}
	for _, p := range c.FullMatch {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid full-match pattern %q", p)
		}
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// FileConfig is the YAML config file schema. Pointer and empty values
// mean "not set" so flags and defaults can fill the gaps.
type FileConfig struct {
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	Match         []string `yaml:"match"`
	FullMatch     []string `yaml:"full_match"`
	MaxSize       string   `yaml:"max_size"`
	Tokens        string   `yaml:"tokens"`
	Compress      *bool    `yaml:"compress"`
	Cache         *bool    `yaml:"cache"`
	MaxBindingLen *int     `yaml:"max_binding_len"`
}

// LoadFile reads a YAML config file. A missing file is not an error.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return fc, nil
}

// Locate returns the config file path to use when --config is not given:
// <dir>/.flat.yaml if present, otherwise ~/.config/flat/config.yaml if
// present, otherwise empty.
func Locate(dir string) string {
	local := filepath.Join(dir, ".flat.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	global := filepath.Join(home, ".config", "flat", "config.yaml")
	if _, err := os.Stat(global); err == nil {
		return global
	}
	return ""
}

// Apply merges file values into the config. Only set fields override.
func (c *Config) Apply(fc FileConfig) error {
	if len(fc.Include) > 0 {
		c.Include = fc.Include
	}
	if len(fc.Exclude) > 0 {
		c.Exclude = fc.Exclude
	}
	if len(fc.Match) > 0 {
		c.Match = fc.Match
	}
	if len(fc.FullMatch) > 0 {
		c.FullMatch = fc.FullMatch
	}
	if fc.MaxSize != "" {
		n, err := units.ParseBinary(fc.MaxSize)
		if err != nil {
			return fmt.Errorf("invalid max_size in config file: %w", err)
		}
		c.MaxFileSize = n
	}
	if fc.Tokens != "" {
		n, err := units.ParseDecimal(fc.Tokens)
		if err != nil {
			return fmt.Errorf("invalid tokens in config file: %w", err)
		}
		c.TokenBudget = n
		c.HasBudget = true
	}
	if fc.Compress != nil {
		c.Compress = *fc.Compress
	}
	if fc.Cache != nil {
		c.CacheEnabled = *fc.Cache
	}
	if fc.MaxBindingLen != nil {
		c.MaxBindingLen = *fc.MaxBindingLen
	}
	return nil
}
