package config

import (
	"os"
	"path/filepath"
	"testing"

	"yearcal/internal/model"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q, want default", cfg.Listen)
	}
	if cfg.Year <= 0 {
		t.Errorf("Year = %d, want a real year", cfg.Year)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config file was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file perms = %o, want 0600", perm)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &Config{
		Listen: "127.0.0.1:9999",
		Title:  "Training 2026",
		Year:   2026,
		Events: []model.Event{
			{ID: "race", Title: "Race day", Start: "2026-10-17", End: "2026-10-17", Color: "#dc2626"},
		},
		ICS: []ICSConfig{
			{URL: "https://example.com/cal.ics", ID: "team", Color: "#0ea5e9"},
		},
		BasicAuth: &BasicAuthConfig{Username: "u", Password: "p"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Training 2026" || got.Year != 2026 || got.Listen != "127.0.0.1:9999" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if len(got.Events) != 1 || got.Events[0].ID != "race" {
		t.Errorf("round trip lost events: %+v", got.Events)
	}
	if len(got.ICS) != 1 || got.ICS[0].ID != "team" {
		t.Errorf("round trip lost ICS sources: %+v", got.ICS)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "u" {
		t.Errorf("round trip lost basic auth: %+v", got.BasicAuth)
	}
	// Normalize must have filled the omitted refresh schedule.
	if got.RefreshCron == "" {
		t.Error("RefreshCron not defaulted")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	var c Config
	c.Normalize()

	if c.Listen == "" || c.Title == "" || c.RefreshCron == "" || c.SnapshotPath == "" {
		t.Errorf("Normalize left zero values: %+v", c)
	}
	if c.Events == nil || c.ICS == nil {
		t.Error("Normalize left nil slices")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("Load accepted an empty path")
	}
}
