package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("expected default listen, got %q", cfg.Listen)
	}
	if cfg.EventsURL != "events.json" {
		t.Errorf("expected events.json, got %q", cfg.EventsURL)
	}
	if cfg.RefreshCron != "*/15 * * * *" {
		t.Errorf("unexpected refresh %q", cfg.RefreshCron)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("unexpected fetch timeout %v", cfg.FetchTimeout)
	}
	if cfg.Capture.Enabled {
		t.Error("expected capture disabled by default")
	}
	if cfg.BasicAuthEnabled() {
		t.Error("expected basic auth disabled by default")
	}
}

func TestLoadFirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Listen != defaultListen {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestLoadPreservesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `listen: ":9000"
timezone: Europe/Paris
events_url: https://example.com/events.json
fetch_timeout: 3s
highlight: [exam, deadline]
ics:
  - url: https://example.com/team.ics
    name: team
basic_auth:
  username: admin
  password: secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen != ":9000" || cfg.Timezone != "Europe/Paris" {
		t.Errorf("overrides lost: %+v", cfg)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.RefreshCron != defaultRefreshCron {
		t.Errorf("expected default refresh, got %q", cfg.RefreshCron)
	}
	if len(cfg.ICS) != 1 || cfg.ICS[0].SourceID() != "team" {
		t.Errorf("unexpected ics %+v", cfg.ICS)
	}
	if len(cfg.Highlight) != 2 {
		t.Errorf("unexpected highlight %v", cfg.Highlight)
	}
	if !cfg.BasicAuthEnabled() {
		t.Error("expected basic auth enabled")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.EventsURL = "/srv/events.json"
	cfg.Capture.Enabled = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.EventsURL != "/srv/events.json" || !got.Capture.Enabled {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{name: "empty means local", tz: ""},
		{name: "utc", tz: "UTC"},
		{name: "unknown falls back", tz: "Mars/Olympus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Timezone: tt.tz}
			loc, err := cfg.Location()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Location() err = %v, wantErr %v", err, tt.wantErr)
			}
			if loc == nil {
				t.Fatal("expected a location")
			}
		})
	}
}

func TestSourceID(t *testing.T) {
	tests := []struct {
		in   ICSConfig
		want string
	}{
		{ICSConfig{ID: "a", Name: "b", URL: "c"}, "a"},
		{ICSConfig{Name: "b", URL: "c"}, "b"},
		{ICSConfig{URL: "c"}, "c"},
	}
	for _, tt := range tests {
		if got := tt.in.SourceID(); got != tt.want {
			t.Errorf("SourceID() = %q, want %q", got, tt.want)
		}
	}
}
