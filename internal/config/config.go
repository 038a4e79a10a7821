package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription shown alongside the
// events document.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// SourceID returns the identifier used in logs: ID, else Name, else URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls periodic PNG snapshots of the week page.
type CaptureConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// URL of the page to capture. Empty means the local /week page.
	URL    string `yaml:"url" json:"url"`
	Output string `yaml:"output" json:"output"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used for "today" and for date keys.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// EventsURL locates the events document: http(s) URL, file:// URL or
	// a plain path.
	EventsURL string `yaml:"events_url" json:"events_url"`

	// CacheDir holds the conditional-request cache for remote documents
	// and feeds. Empty disables it.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// FetchTimeout bounds each HTTP request.
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`

	// ICS is the list of subscribed feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// RefreshCron is the cron schedule of the background refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Highlight lists keywords whose events are drawn emphasised.
	Highlight []string `yaml:"highlight" json:"highlight"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if set with both fields, protects every endpoint except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultEventsURL    = "events.json"
	defaultRefreshCron  = "*/15 * * * *"
	defaultFetchTimeout = 15 * time.Second
	defaultLogLevel     = "info"
	defaultCaptureOut   = "preview.png"
	defaultCaptureW     = 1600
	defaultCaptureH     = 600
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values so partially-filled configs
// behave like the defaults.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.EventsURL == "" {
		c.EventsURL = defaultEventsURL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.Highlight == nil {
		c.Highlight = []string{}
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Capture.Output == "" {
		c.Capture.Output = defaultCaptureOut
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = defaultCaptureW
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = defaultCaptureH
	}
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown. The error reports an unknown zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// BasicAuthEnabled reports whether both credentials are set.
func (c *Config) BasicAuthEnabled() bool {
	return c.BasicAuth != nil && c.BasicAuth.Username != "" && c.BasicAuth.Password != ""
}

// Load loads configuration from the given YAML path.
//
// On first run (file missing) the defaults are written to path with 0600
// permissions and returned. If that write fails the defaults are still
// returned together with the error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
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

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
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

	tmp, err := os.CreateTemp(dir, ".weekcal-config-*.tmp")
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

// Save is a convenience wrapper around the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
