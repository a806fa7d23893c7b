package apps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apps.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeFile(t, `---
apps:
  - scheme: spotify
    name: Spotify
    platform: linux
    version: 1.2.31
    command: ["spotify", "--uri={url}"]
  - scheme: slack
`)

	config, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(config.Apps) != 2 {
		t.Fatalf("Load() returned %v apps, want 2", len(config.Apps))
	}
	if config.Apps[0].Version != "1.2.31" {
		t.Errorf("Load() version = %v, want 1.2.31", config.Apps[0].Version)
	}
	if len(config.Apps[0].Command) != 2 {
		t.Errorf("Load() command = %v, want 2 args", config.Apps[0].Command)
	}
}

func TestLoaderLoadWithTemplateVariables(t *testing.T) {
	path := writeFile(t, `---
apps:
  - scheme: spotify
    version: {{SPOTIFY_VERSION}}
  - scheme: slack
    version: {{UNSET_VERSION}}
`)

	loader := NewLoader(path)
	loader.lookup = func(name string) (string, bool) {
		if name == "SPOTIFY_VERSION" {
			return "1.2.31", true
		}
		return "", false
	}

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Apps[0].Version != "1.2.31" {
		t.Errorf("expanded version = %q, want 1.2.31", config.Apps[0].Version)
	}
	if config.Apps[1].Version != "" {
		t.Errorf("unset variable should expand to empty, got %q", config.Apps[1].Version)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	_, err := NewLoader("/nonexistent/path/apps.yaml").Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "apps: [unclosed")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() with invalid yaml should return error")
	}
}
