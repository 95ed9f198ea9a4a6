// Package config loads and validates the YAML configuration of md2lms.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2lms/internal/fileutil"
	"github.com/alnah/go-md2lms/internal/logging"
	"github.com/alnah/go-md2lms/internal/sanitize"
	"github.com/alnah/go-md2lms/internal/tagfilter"
	"github.com/alnah/go-md2lms/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Built-in directory names, kept from the download tool that feeds md2lms.
const (
	DefaultInputDir  = "md-downloads"
	DefaultOutputDir = "converted-html-descriptions"
)

// Field length limits.
const (
	MaxPathLength      = 4096 // PATH_MAX on Linux
	MaxExtensionLength = 16   // ".markdown" with headroom
	MaxTableEntries    = 256  // tags, replacements, encodings, characters
	MaxPatternLength   = 64   // one character replacement pattern
)

// userConfigDirName is the directory under os.UserConfigDir searched for named configs.
const userConfigDirName = "go-md2lms"

// Config holds all configuration for a conversion run. Empty values select
// the built-in defaults; use Effective to see them filled in.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Filter   FilterConfig   `yaml:"filter"`
	Sanitize SanitizeConfig `yaml:"sanitize"`
	Log      LogConfig      `yaml:"log"`
}

// InputConfig defines where Markdown files are found.
type InputConfig struct {
	DefaultDir string   `yaml:"defaultDir"` // Empty = md-downloads
	Extensions []string `yaml:"extensions"` // Empty = .md, .markdown, .txt
}

// OutputConfig defines where HTML files are written.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = converted-html-descriptions
}

// FilterConfig overrides the tag filter tables.
type FilterConfig struct {
	AllowedTags  map[string][]string `yaml:"allowedTags"`  // tag -> permitted attributes
	Replacements map[string]string   `yaml:"replacements"` // disallowed tag -> allowed tag
	Discard      []string            `yaml:"discard"`      // removed with their content
}

// SanitizeConfig overrides the encoding sanitizer tables.
type SanitizeConfig struct {
	Encodings        []string               `yaml:"encodings"`  // ordered candidates, last must be total
	Characters       []CharacterReplacement `yaml:"characters"` // ordered, first match wins
	BinaryExtensions []string               `yaml:"binaryExtensions"`
	HTMLExtensions   []string               `yaml:"htmlExtensions"`
	FinalPass        *bool                  `yaml:"finalPass"` // nil = enabled
}

// CharacterReplacement is one entry of the character table.
type CharacterReplacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LogConfig defines diagnostics verbosity.
type LogConfig struct {
	Level string `yaml:"level"` // trace, debug, info, warn, error (empty = info)
}

// DefaultInputExtensions returns the Markdown extensions recognized by default.
func DefaultInputExtensions() []string {
	return []string{".md", ".markdown", ".txt"}
}

// DefaultConfig returns a neutral configuration where every field selects
// its built-in default.
func DefaultConfig() *Config {
	return &Config{}
}

// Effective returns a copy of c with every empty field replaced by its
// built-in default. The receiver is not modified.
func (c *Config) Effective() *Config {
	out := &Config{
		Input: InputConfig{
			DefaultDir: orDefault(c.Input.DefaultDir, DefaultInputDir),
			Extensions: c.InputExtensions(),
		},
		Output: OutputConfig{
			DefaultDir: orDefault(c.Output.DefaultDir, DefaultOutputDir),
		},
		Log: LogConfig{Level: orDefault(c.Log.Level, "info")},
	}

	fc := c.TagFilterConfig()
	out.Filter = FilterConfig{
		AllowedTags:  fc.Tags,
		Replacements: fc.Replacements,
		Discard:      fc.Discard,
	}

	finalPass := c.FinalPassEnabled()
	out.Sanitize = SanitizeConfig{
		Encodings:        c.Encodings(),
		BinaryExtensions: orDefaultList(c.Sanitize.BinaryExtensions, sanitize.DefaultBinaryExtensions()),
		HTMLExtensions:   orDefaultList(c.Sanitize.HTMLExtensions, sanitize.DefaultHTMLExtensions()),
		FinalPass:        &finalPass,
	}
	for _, r := range c.CharacterTable() {
		out.Sanitize.Characters = append(out.Sanitize.Characters, CharacterReplacement(r))
	}
	return out
}

// InputExtensions returns the configured input extensions, normalized.
func (c *Config) InputExtensions() []string {
	exts := orDefaultList(c.Input.Extensions, DefaultInputExtensions())
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		out = append(out, fileutil.NormalizeExtension(e))
	}
	return out
}

// TagFilterConfig returns the tag filter tables, falling back per table to
// the built-in defaults.
func (c *Config) TagFilterConfig() tagfilter.Config {
	cfg := tagfilter.DefaultConfig()
	if len(c.Filter.AllowedTags) > 0 {
		cfg.Tags = tagfilter.TagSet(c.Filter.AllowedTags).Clone()
		// The default replacements target tags a custom set may not allow.
		if c.Filter.Replacements == nil {
			cfg.Replacements = tagfilter.Replacements{}
		}
	}
	if c.Filter.Replacements != nil {
		cfg.Replacements = tagfilter.Replacements(c.Filter.Replacements).Clone()
	}
	if c.Filter.Discard != nil {
		cfg.Discard = append([]string(nil), c.Filter.Discard...)
	}
	return cfg
}

// Encodings returns the ordered decoding candidates.
func (c *Config) Encodings() []string {
	return orDefaultList(c.Sanitize.Encodings, sanitize.DefaultEncodings())
}

// CharacterTable returns the ordered character replacement table.
func (c *Config) CharacterTable() []sanitize.Replacement {
	if len(c.Sanitize.Characters) == 0 {
		return sanitize.DefaultReplacements()
	}
	out := make([]sanitize.Replacement, 0, len(c.Sanitize.Characters))
	for _, r := range c.Sanitize.Characters {
		out = append(out, sanitize.Replacement(r))
	}
	return out
}

// FinalPassEnabled reports whether the output directory is sanitized after a batch.
func (c *Config) FinalPassEnabled() bool {
	return c.Sanitize.FinalPass == nil || *c.Sanitize.FinalPass
}

// Validate checks field lengths and table consistency. Called automatically
// by LoadConfig, but available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateExtensions("input.extensions", c.Input.Extensions); err != nil {
		return err
	}
	if err := validateExtensions("sanitize.binaryExtensions", c.Sanitize.BinaryExtensions); err != nil {
		return err
	}
	if err := validateExtensions("sanitize.htmlExtensions", c.Sanitize.HTMLExtensions); err != nil {
		return err
	}

	if !logging.IsValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: log.level %q (must be one of %s)",
			ErrInvalidValue, c.Log.Level, strings.Join(logging.Levels, ", "))
	}

	// Filter tables
	if err := validateTableSize("filter.allowedTags", len(c.Filter.AllowedTags)); err != nil {
		return err
	}
	if err := validateTableSize("filter.replacements", len(c.Filter.Replacements)); err != nil {
		return err
	}
	if _, err := tagfilter.New(c.TagFilterConfig()); err != nil {
		return fmt.Errorf("%w: filter: %w", ErrInvalidValue, err)
	}

	// Sanitizer tables
	if err := validateTableSize("sanitize.encodings", len(c.Sanitize.Encodings)); err != nil {
		return err
	}
	if len(c.Sanitize.Encodings) > 0 {
		if _, err := sanitize.NewDecoder(c.Sanitize.Encodings...); err != nil {
			return fmt.Errorf("%w: sanitize.encodings: %w", ErrInvalidValue, err)
		}
	}
	if err := validateTableSize("sanitize.characters", len(c.Sanitize.Characters)); err != nil {
		return err
	}
	for i, r := range c.Sanitize.Characters {
		if err := validateFieldLength(fmt.Sprintf("sanitize.characters[%d].from", i), r.From, MaxPatternLength); err != nil {
			return err
		}
		if err := validateFieldLength(fmt.Sprintf("sanitize.characters[%d].to", i), r.To, MaxPatternLength); err != nil {
			return err
		}
	}
	if len(c.Sanitize.Characters) > 0 {
		if _, err := sanitize.NewNormalizer(c.CharacterTable()); err != nil {
			return fmt.Errorf("%w: sanitize.characters: %w", ErrInvalidValue, err)
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateTableSize(fieldName string, n int) error {
	if n > MaxTableEntries {
		return fmt.Errorf("%w: %s (%d entries, max %d)", ErrFieldTooLong, fieldName, n, MaxTableEntries)
	}
	return nil
}

func validateExtensions(fieldName string, exts []string) error {
	if err := validateTableSize(fieldName, len(exts)); err != nil {
		return err
	}
	for i, e := range exts {
		name := fmt.Sprintf("%s[%d]", fieldName, i)
		if err := validateFieldLength(name, e, MaxExtensionLength); err != nil {
			return err
		}
		if err := fileutil.ValidateExtension(strings.TrimLeft(strings.TrimSpace(e), ".")); err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidValue, name, e, err)
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultList(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return append([]string(nil), v...)
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, string, error) {
	if nameOrPath == "" {
		return nil, "", ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, "", err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, "", fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, configPath, nil
}

// SearchPaths returns the files tried for a config name, in order:
// name.yaml and name.yml in the current directory, then in
// <user config dir>/go-md2lms/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, userConfigDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file of SearchPaths(name).
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
