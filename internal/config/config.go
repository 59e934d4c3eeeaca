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

// Environment variables that override the booking credentials, so the
// password does not have to live in the YAML file.
const (
	EnvUsername = "ROOMOPS_USERNAME"
	EnvPassword = "ROOMOPS_PASSWORD"
)

// SiteConfig describes the booking application the schedule is read from.
type SiteConfig struct {
	// BaseURL is the site root; /login and /book are resolved against it.
	BaseURL  string `yaml:"base_url" json:"base_url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// BrowserConfig tunes the Chromium session.
type BrowserConfig struct {
	Headless bool `yaml:"headless" json:"headless"`

	// NavTimeoutSec bounds login and page navigation.
	NavTimeoutSec int `yaml:"nav_timeout_seconds" json:"nav_timeout_seconds"`
	// FieldTimeoutMs bounds each detail-panel field read.
	FieldTimeoutMs int `yaml:"field_timeout_ms" json:"field_timeout_ms"`
	// SettleMs is slept after clicks so Angular can render.
	SettleMs int `yaml:"settle_ms" json:"settle_ms"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone of the facility's operating day.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "0 4 * * *") for
	// periodic runs when not in -once mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DumpDir, when set, receives a JSON dump of every captured panel per
	// run so the run can be replayed offline.
	DumpDir string `yaml:"dump_dir,omitempty" json:"dump_dir,omitempty"`

	Site    SiteConfig    `yaml:"site" json:"site"`
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "America/New_York",
		RefreshCron: "0 4 * * *",
		LogLevel:    "info",
		Site: SiteConfig{
			BaseURL: "https://www.7pointops.com",
		},
		Browser: BrowserConfig{
			Headless:       true,
			NavTimeoutSec:  30,
			FieldTimeoutMs: 1000,
			SettleMs:       300,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = def.Site.BaseURL
	}
	c.Site.BaseURL = strings.TrimRight(c.Site.BaseURL, "/")
	if c.Browser.NavTimeoutSec <= 0 {
		c.Browser.NavTimeoutSec = def.Browser.NavTimeoutSec
	}
	if c.Browser.FieldTimeoutMs <= 0 {
		c.Browser.FieldTimeoutMs = def.Browser.FieldTimeoutMs
	}
	if c.Browser.SettleMs < 0 {
		c.Browser.SettleMs = 0
	}
}

// ApplyEnv overrides site credentials from the environment when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvUsername); v != "" {
		c.Site.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Site.Password = v
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

func (b BrowserConfig) NavTimeout() time.Duration {
	return time.Duration(b.NavTimeoutSec) * time.Second
}

func (b BrowserConfig) FieldTimeout() time.Duration {
	return time.Duration(b.FieldTimeoutMs) * time.Millisecond
}

func (b BrowserConfig) SettleDelay() time.Duration {
	return time.Duration(b.SettleMs) * time.Millisecond
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overrides are applied in both cases and are never saved back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			saveErr := Save(path, cfg)
			cfg.ApplyEnv()
			return cfg, saveErr
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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

	tmp, err := os.CreateTemp(dir, ".roomops-config-*.tmp")
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

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
