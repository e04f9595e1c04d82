package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Path != "." {
		t.Errorf("expected default path '.', got %q", cfg.Path)
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("expected default max file size 1MiB, got %d", cfg.MaxFileSize)
	}
	if cfg.MaxBindingLen != 120 {
		t.Errorf("expected default max binding length 120, got %d", cfg.MaxBindingLen)
	}
	if cfg.Compress || cfg.HasBudget || cfg.CacheEnabled {
		t.Error("expected compression, budget and cache off by default")
	}
}

func TestIncludeOnly(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{"rs", "toml"}

	if !cfg.ShouldIncludeExtension("rs") {
		t.Error("rs should be included")
	}
	if !cfg.ShouldIncludeExtension("toml") {
		t.Error("toml should be included")
	}
	if cfg.ShouldIncludeExtension("json") {
		t.Error("json should not be included")
	}
}

func TestExcludeOnly(t *testing.T) {
	cfg := Default()
	cfg.Exclude = []string{"test", "json"}

	if !cfg.ShouldIncludeExtension("rs") {
		t.Error("rs should be included")
	}
	if cfg.ShouldIncludeExtension("test") {
		t.Error("test should be excluded")
	}
	if cfg.ShouldIncludeExtension("json") {
		t.Error("json should be excluded")
	}
}

func TestIncludeAndExclude(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{"rs", "toml"}
	cfg.Exclude = []string{"toml"}

	if !cfg.ShouldIncludeExtension("rs") {
		t.Error("rs should be included")
	}
	if cfg.ShouldIncludeExtension("toml") {
		t.Error("toml is excluded even though it is in the include list")
	}
	if cfg.ShouldIncludeExtension("json") {
		t.Error("json should not be included")
	}
}

func TestExtensionCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{"RS"}

	if !cfg.ShouldIncludeExtension("rs") {
		t.Error("extension comparison should ignore case")
	}
}

func TestMatchNoPatterns(t *testing.T) {
	cfg := Default()
	if !cfg.ShouldIncludeByMatch("anything.rs") {
		t.Error("no patterns should include every name")
	}
}

func TestMatchSinglePattern(t *testing.T) {
	cfg := Default()
	cfg.Match = []string{"*_test.go"}

	if !cfg.ShouldIncludeByMatch("user_test.go") {
		t.Error("user_test.go should match")
	}
	if !cfg.ShouldIncludeByMatch("auth_test.go") {
		t.Error("auth_test.go should match")
	}
	if cfg.ShouldIncludeByMatch("main.go") {
		t.Error("main.go should not match")
	}
	if cfg.ShouldIncludeByMatch("test.rs") {
		t.Error("test.rs should not match")
	}
}

func TestMatchMultiplePatterns(t *testing.T) {
	cfg := Default()
	cfg.Match = []string{"*_test.go", "*.spec.js"}

	if !cfg.ShouldIncludeByMatch("user_test.go") {
		t.Error("user_test.go should match")
	}
	if !cfg.ShouldIncludeByMatch("button.spec.js") {
		t.Error("button.spec.js should match")
	}
	if cfg.ShouldIncludeByMatch("main.go") {
		t.Error("main.go should not match")
	}
}

func TestIsFullMatch(t *testing.T) {
	cfg := Default()
	if cfg.IsFullMatch("main.go") {
		t.Error("no patterns should pin nothing")
	}

	cfg.FullMatch = []string{"*.md", "Makefile"}
	if !cfg.IsFullMatch("README.md") {
		t.Error("README.md should be pinned")
	}
	if !cfg.IsFullMatch("Makefile") {
		t.Error("Makefile should be pinned")
	}
	if cfg.IsFullMatch("main.go") {
		t.Error("main.go should not be pinned")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Match = []string{"*.go"}
	cfg.FullMatch = []string{"README*"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid patterns rejected: %v", err)
	}

	cfg.Match = []string{"[unclosed"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for malformed match pattern")
	}

	cfg.Match = nil
	cfg.FullMatch = []string{"[unclosed"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for malformed full-match pattern")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	fc, err := LoadFile("/nonexistent/.flat.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(fc.Include) != 0 || fc.MaxSize != "" {
		t.Error("expected zero FileConfig for missing file")
	}
}

func TestLoadFile_Valid(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, ".flat.yaml")
	data := `
include: [go, md]
exclude: [json]
match: ["*.go"]
full_match: ["README*"]
max_size: "2M"
tokens: "50k"
compress: true
cache: true
max_binding_len: 200
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	cfg := Default()
	if err := cfg.Apply(fc); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(cfg.Include) != 2 || cfg.Include[0] != "go" {
		t.Errorf("Include = %v", cfg.Include)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "json" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.MaxFileSize != 2<<20 {
		t.Errorf("MaxFileSize = %d, want 2MiB", cfg.MaxFileSize)
	}
	if !cfg.HasBudget || cfg.TokenBudget != 50000 {
		t.Errorf("TokenBudget = %d (HasBudget %v), want 50000", cfg.TokenBudget, cfg.HasBudget)
	}
	if !cfg.Compress {
		t.Error("expected compress enabled")
	}
	if !cfg.CacheEnabled {
		t.Error("expected cache enabled")
	}
	if cfg.MaxBindingLen != 200 {
		t.Errorf("MaxBindingLen = %d, want 200", cfg.MaxBindingLen)
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, ".flat.yaml")
	if err := os.WriteFile(path, []byte("include: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestApply_UnsetFieldsKeepDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Apply(FileConfig{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("MaxFileSize = %d, want default", cfg.MaxFileSize)
	}
	if cfg.MaxBindingLen != 120 {
		t.Errorf("MaxBindingLen = %d, want default", cfg.MaxBindingLen)
	}
	if cfg.Compress || cfg.HasBudget || cfg.CacheEnabled {
		t.Error("expected toggles untouched by empty file config")
	}
}

func TestApply_InvalidSizes(t *testing.T) {
	cfg := Default()
	if err := cfg.Apply(FileConfig{MaxSize: "12Q"}); err == nil {
		t.Error("expected error for bad max_size")
	}
	if err := cfg.Apply(FileConfig{Tokens: "abc"}); err == nil {
		t.Error("expected error for bad tokens")
	}
}

func TestLocate_LocalFile(t *testing.T) {
	tmp := t.TempDir()
	local := filepath.Join(tmp, ".flat.yaml")
	if err := os.WriteFile(local, []byte("compress: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := Locate(tmp); got != local {
		t.Errorf("Locate = %q, want %q", got, local)
	}
}

func TestLocate_NoFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := Locate(t.TempDir()); got != "" {
		t.Errorf("Locate = %q, want empty", got)
	}
}
