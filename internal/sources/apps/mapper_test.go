package apps

import (
	"testing"
)

func TestMapperMapApps(t *testing.T) {
	config := &AppsConfig{Apps: []AppProps{
		{Scheme: "Spotify://", Name: "Spotify", Version: "1.2.31", Command: []string{"spotify", "--uri={url}"}},
		{Scheme: "slack:", Platform: "Mac"},
	}}

	apps, err := NewMapper("linux").MapApps(config)
	if err != nil {
		t.Fatalf("MapApps() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("MapApps() returned %v apps, want 2", len(apps))
	}

	if apps[0].Scheme != "spotify" {
		t.Errorf("scheme = %v, want spotify", apps[0].Scheme)
	}
	if apps[0].Platform != "linux" {
		t.Errorf("platform = %v, want default linux", apps[0].Platform)
	}
	if apps[1].Platform != "mac" {
		t.Errorf("platform = %v, want mac", apps[1].Platform)
	}
	if apps[1].Name != "slack" {
		t.Errorf("name = %v, want scheme as fallback", apps[1].Name)
	}
	if len(apps[0].Sources) != 1 || apps[0].Sources[0] != SourceFile {
		t.Errorf("sources = %v, want [file]", apps[0].Sources)
	}
}

func TestMapperMapAppsEmptyConfig(t *testing.T) {
	apps, err := NewMapper("linux").MapApps(&AppsConfig{})
	if err == nil {
		t.Error("MapApps() with empty config should return error")
	}
	if apps != nil {
		t.Errorf("MapApps() with empty config should return nil apps, got %v", len(apps))
	}
}

func TestMapperSkipsInvalidSchemes(t *testing.T) {
	config := &AppsConfig{Apps: []AppProps{
		{Scheme: ""},
		{Scheme: "https"},
		{Scheme: "not a scheme"},
		{Scheme: "zoommtg"},
	}}

	apps, err := NewMapper("linux").MapApps(config)
	if err != nil {
		t.Fatalf("MapApps() error = %v", err)
	}
	if len(apps) != 1 || apps[0].Scheme != "zoommtg" {
		t.Errorf("MapApps() = %v, want only zoommtg", apps)
	}
}

func TestMapperLaterEntryWins(t *testing.T) {
	config := &AppsConfig{Apps: []AppProps{
		{Scheme: "spotify", Version: "1.0.0"},
		{Scheme: "spotify", Version: "2.0.0"},
	}}

	apps, err := NewMapper("linux").MapApps(config)
	if err != nil {
		t.Fatalf("MapApps() error = %v", err)
	}
	if len(apps) != 1 || apps[0].Version != "2.0.0" {
		t.Errorf("MapApps() should keep the last entry, got %+v", apps)
	}
}
