package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/berth-dev/recall/internal/transcript"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFilesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadFiles(filepath.Join(home, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	if cfg.Search.Limit != 20 {
		t.Errorf("Search.Limit: got %d, want 20", cfg.Search.Limit)
	}
	if cfg.Search.Dialect != "all" {
		t.Errorf("Search.Dialect: got %q, want %q", cfg.Search.Dialect, "all")
	}
	if !cfg.History.Enabled || cfg.History.MaxAgeDays != 90 {
		t.Errorf("History: got %+v, want enabled with 90 days", cfg.History)
	}
	if want := filepath.Join(home, ".recall"); cfg.DataDir != want {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, want)
	}
	if want := []string{filepath.Join(home, ".claude", "projects")}; !reflect.DeepEqual(cfg.Sources.ClaudeDirs, want) {
		t.Errorf("ClaudeDirs: got %v, want %v", cfg.Sources.ClaudeDirs, want)
	}
	if cfg.Recap.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("Recap.APIKeyEnv: got %q", cfg.Recap.APIKeyEnv)
	}
}

func TestLoadFilesProjectOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	global := filepath.Join(tmpDir, "global", "config.yaml")
	writeFile(t, global, `search:
  limit: 50
  workers: 2
server:
  addr: "0.0.0.0:9000"
`)

	project := filepath.Join(tmpDir, "project", "config.yaml")
	writeFile(t, project, `search:
  limit: 5
sources:
  copilot_dirs:
    - ~/work/copilot
`)

	cfg, err := LoadFiles(global, project)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	if cfg.Search.Limit != 5 {
		t.Errorf("Search.Limit: got %d, want 5", cfg.Search.Limit)
	}
	if cfg.Search.Workers != 2 {
		t.Errorf("Search.Workers: got %d, want 2", cfg.Search.Workers)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr: got %q, want %q", cfg.Server.Addr, "0.0.0.0:9000")
	}
	if want := []string{filepath.Join(tmpDir, "work", "copilot")}; !reflect.DeepEqual(cfg.Sources.CopilotDirs, want) {
		t.Errorf("CopilotDirs: got %v, want %v", cfg.Sources.CopilotDirs, want)
	}
}

func TestLoadFilesEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("RECALL_SEARCH_LIMIT", "7")
	t.Setenv("RECALL_DATA_DIR", "/var/lib/recall")

	global := filepath.Join(tmpDir, "config.yaml")
	writeFile(t, global, "search:\n  limit: 50\n")

	cfg, err := LoadFiles(global)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	if cfg.Search.Limit != 7 {
		t.Errorf("Search.Limit: got %d, want 7", cfg.Search.Limit)
	}
	if cfg.DataDir != "/var/lib/recall" {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, "/var/lib/recall")
	}
}

func TestLoadFilesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "search: [unclosed\n")

	if _, err := LoadFiles(path); err == nil {
		t.Error("expected error for malformed YAML, got nil")
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	// Write a modified default config
	cfg := DefaultConfig()
	cfg.Recap.Model = "gpt-4.1"
	cfg.History.Enabled = false

	path := filepath.Join(tmpDir, ".recall", "config.yaml")
	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	// Read back through the layered loader
	loaded, err := LoadFiles(path)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	if loaded.Recap.Model != "gpt-4.1" {
		t.Errorf("Recap.Model: got %q, want %q", loaded.Recap.Model, "gpt-4.1")
	}
	if loaded.History.Enabled {
		t.Error("History.Enabled: got true, want false")
	}
}

func TestSearchSources(t *testing.T) {
	cfg := &Config{Sources: SourcesConfig{
		ClaudeDirs:  []string{"/a", "/b"},
		CopilotDirs: []string{"/c"},
	}}

	got := cfg.SearchSources()
	if len(got) != 3 {
		t.Fatalf("got %d sources, want 3", len(got))
	}
	if got[0].Dir != "/a" || got[0].Dialect != transcript.DialectClaude {
		t.Errorf("sources[0] = %+v", got[0])
	}
	if got[2].Dir != "/c" || got[2].Dialect != transcript.DialectCopilot {
		t.Errorf("sources[2] = %+v", got[2])
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/x/y", filepath.Join(home, "x", "y")},
		{"/abs/path", "/abs/path"},
		{"rel/~/path", "rel/~/path"},
		{"~other", "~other"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
