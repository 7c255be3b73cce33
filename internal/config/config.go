// Package config loads and saves the planner's YAML configuration, including
// the static event list.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"yearcal/internal/model"
)

// ICSConfig describes a remote ICS subscription whose events are merged into
// the plan on each refresh.
type ICSConfig struct {
	// URL is the ICS endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging. Imported
	// event IDs are prefixed with it.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Color is applied to every event imported from this source.
	Color string `yaml:"color" json:"color"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the page and API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Title is shown as the page heading and as the exported calendar name.
	Title string `yaml:"title" json:"title"`

	// Year is the year rendered by the page. Events outside it are kept in
	// the store and simply never intersect a displayed month.
	Year int `yaml:"year" json:"year"`

	// Events is the static event list. IDs must be unique; start/end are
	// inclusive "YYYY-MM-DD" keys with start <= end.
	Events []model.Event `yaml:"events" json:"events"`

	// ICS lists optional remote subscriptions merged into the plan.
	ICS []ICSConfig `yaml:"ics,omitempty" json:"ics,omitempty"`

	// RefreshCron is a cron-style schedule for re-fetching ICS sources.
	// Ignored when no sources are configured.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// SnapshotPath is where the page snapshot PNG is written and from where
	// /preview.png is served.
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration with a small
// sample plan, so a first run renders something.
func DefaultConfig() *Config {
	year := time.Now().Year()
	return &Config{
		Listen:       "127.0.0.1:8080",
		Title:        "Year Plan",
		Year:         year,
		RefreshCron:  "*/30 * * * *",
		SnapshotPath: "./preview.png",
		Events: []model.Event{
			{
				ID:      "sample-kickoff",
				Title:   "Kickoff",
				Start:   time.Date(year, time.January, 5, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
				End:     time.Date(year, time.January, 5, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
				Color:   "#3b82f6",
				Details: "Replace this sample with your own events.",
			},
		},
		ICS:       []ICSConfig{},
		BasicAuth: nil,
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Title == "" {
		c.Title = "Year Plan"
	}
	if c.Year <= 0 {
		c.Year = time.Now().Year()
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = "./preview.png"
	}
	if c.Events == nil {
		c.Events = []model.Event{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (creating
// the parent directory, 0600 perms) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".yearcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save for convenience.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
