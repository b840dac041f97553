package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

// Config holds all configuration options for canopy.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// AnalysisConfig controls how the analysis pipeline runs.
type AnalysisConfig struct {
	Duplication bool  `koanf:"duplication" toml:"duplication" comment:"Run near-duplicate detection across functions and methods."`
	Jobs        int   `koanf:"jobs" toml:"jobs" comment:"Worker count for parallel analysis. 0 picks a value based on CPU count."`
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" comment:"Skip files larger than this many bytes. 0 means no limit."`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" comment:"Gitignore-style patterns excluded from discovery."`
	Dirs      []string `koanf:"dirs" toml:"dirs" comment:"Directory names skipped during discovery."`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" comment:"Respect .gitignore files inside a git repository."`
}

// OutputConfig controls report formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" comment:"Report format: json, yaml, toon, or text."`
	Path   string `koanf:"path" toml:"path" comment:"Report destination. \"-\" writes to stdout."`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Duplication: true,
			Jobs:        0,
			MaxFileSize: 0,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				".git",
				"__pycache__",
				".venv",
				"venv",
				".mypy_cache",
				".pytest_cache",
				".ruff_cache",
				".tox",
				".eggs",
				"node_modules",
				"build",
				"dist",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format: "json",
			Path:   "result.json",
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		parser = toml.Parser()
	}

	// Load the config file
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// Reject unknown keys and wrong types before unmarshalling
	if err := validate(k.Raw()); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"canopy.toml",
		"canopy.yaml",
		"canopy.yml",
		"canopy.json",
	}

	// Search in current directory and .canopy directory
	searchDirs := []string{".", ".canopy"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// validate checks a raw config document against the embedded JSON schema.
// The document is round-tripped through JSON so numbers and slices arrive
// in the forms the validator understands, whichever parser produced them.
func validate(raw map[string]any) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("canopy-config.json", doc); err != nil {
		return fmt.Errorf("register embedded schema: %w", err)
	}
	schema, err := compiler.Compile("canopy-config.json")
	if err != nil {
		return fmt.Errorf("compile embedded schema: %w", err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return err
	}

	return schema.Validate(instance)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
