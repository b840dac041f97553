package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if !cfg.Analysis.Duplication {
		t.Error("Analysis.Duplication should be true by default")
	}
	if cfg.Analysis.Jobs != 0 {
		t.Errorf("Analysis.Jobs = %d, want 0 (auto)", cfg.Analysis.Jobs)
	}
	if cfg.Analysis.MaxFileSize != 0 {
		t.Errorf("Analysis.MaxFileSize = %d, want 0 (no limit)", cfg.Analysis.MaxFileSize)
	}

	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if len(cfg.Exclude.Dirs) == 0 {
		t.Error("Exclude.Dirs should have default values")
	}

	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if cfg.Output.Path != "result.json" {
		t.Errorf("Output.Path = %s, want result.json", cfg.Output.Path)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "canopy.toml")

	content := `
[analysis]
duplication = false
jobs = 4

[exclude]
dirs = ["vendor", "custom_exclude"]
patterns = ["*_generated.py"]

[output]
format = "yaml"
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Analysis.Duplication {
		t.Error("Analysis.Duplication should be false")
	}
	if cfg.Analysis.Jobs != 4 {
		t.Errorf("Analysis.Jobs = %d, want 4", cfg.Analysis.Jobs)
	}
	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Dirs[0] != "vendor" {
		t.Errorf("Exclude.Dirs = %v, want [vendor custom_exclude]", cfg.Exclude.Dirs)
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("Output.Format = %s, want yaml", cfg.Output.Format)
	}
	// Untouched sections keep their defaults
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should keep its default")
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "canopy.yaml")

	content := `
analysis:
  duplication: false
  max_file_size: 1048576

output:
  format: toon
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Analysis.Duplication {
		t.Error("Analysis.Duplication should be false")
	}
	if cfg.Analysis.MaxFileSize != 1048576 {
		t.Errorf("Analysis.MaxFileSize = %d, want 1048576", cfg.Analysis.MaxFileSize)
	}
	if cfg.Output.Format != "toon" {
		t.Errorf("Output.Format = %s, want toon", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "canopy.json")

	content := `{
  "analysis": {
    "jobs": 8
  },
  "output": {
    "path": "report.json"
  }
}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Analysis.Jobs != 8 {
		t.Errorf("Analysis.Jobs = %d, want 8", cfg.Analysis.Jobs)
	}
	if cfg.Output.Path != "report.json" {
		t.Errorf("Output.Path = %s, want report.json", cfg.Output.Path)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/canopy.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "canopy.toml")

	content := `[analysis
invalid toml`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "canopy.toml")

	// "duplicaton" is a typo for "duplication"
	content := `
[analysis]
duplicaton = true
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should reject unknown keys")
	}
}

func TestLoadRejectsWrongTypes(t *testing.T) {
	tmpDir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"string jobs", "[analysis]\njobs = \"four\"\n"},
		{"negative jobs", "[analysis]\njobs = -1\n"},
		{"bad format", "[output]\nformat = \"xml\"\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, "canopy.toml")
			if err := os.WriteFile(configPath, []byte(tc.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			if _, err := Load(configPath); err == nil {
				t.Errorf("Load() should reject %s", tc.name)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	// In a directory without config files, should return defaults
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg == nil {
		t.Fatal("LoadOrDefault() returned nil")
	}

	if !cfg.Analysis.Duplication {
		t.Error("LoadOrDefault() should return defaults without a config file")
	}
}

func TestLoadOrDefaultWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	content := `
[analysis]
jobs = 7
`
	if err := os.WriteFile(filepath.Join(tmpDir, "canopy.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg.Analysis.Jobs != 7 {
		t.Errorf("LoadOrDefault() should load from file, got Jobs=%d", cfg.Analysis.Jobs)
	}
}

func TestLoadOrDefaultSearchesDotDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	if err := os.MkdirAll(filepath.Join(tmpDir, ".canopy"), 0755); err != nil {
		t.Fatalf("Failed to create .canopy dir: %v", err)
	}
	content := `
[output]
format = "text"
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".canopy", "canopy.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg.Output.Format != "text" {
		t.Errorf("LoadOrDefault() should find .canopy/canopy.toml, got format=%s", cfg.Output.Format)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		// Excluded directories
		{filepath.Join("__pycache__", "mod.py"), true},
		{filepath.Join("src", ".venv", "lib", "site.py"), true},
		{filepath.Join(".git", "hooks", "hook.py"), true},

		// Not excluded
		{"main.py", false},
		{filepath.Join("pkg", "util", "helpers.py"), false},
		{filepath.Join("pkg", "venv_tools.py"), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestShouldExcludeCustomPatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude.Patterns = append(cfg.Exclude.Patterns, "*_pb2.py", "test_*.py")

	tests := []struct {
		path string
		want bool
	}{
		{"service_pb2.py", true},
		{filepath.Join("pkg", "test_helpers.py"), true},
		{"main.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
