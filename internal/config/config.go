// Package config loads the posview daemon configuration from a YAML file
// with POSVIEW_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/posview/classify"
)

// Config is the top-level configuration.
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	Browser    BrowserConfig       `yaml:"browser"`
	Page       PageConfig          `yaml:"page"`
	Anchor     AnchorConfig        `yaml:"anchor"`
	Reconcile  ReconcileConfig     `yaml:"reconcile"`
	Prefs      PrefsConfig         `yaml:"prefs"`
	Thresholds classify.Thresholds `yaml:"thresholds"`
}

// BrowserConfig controls how Chrome is reached.
type BrowserConfig struct {
	// Remote is a DevTools WebSocket URL. Empty launches a local Chrome.
	Remote      string `yaml:"remote"`
	Headless    *bool  `yaml:"headless"`
	Bin         string `yaml:"bin"`
	UserDataDir string `yaml:"user_data_dir"`
	Stealth     *bool  `yaml:"stealth"`
}

// PageConfig identifies the POS tab.
type PageConfig struct {
	URL    string `yaml:"url"`
	Match  string `yaml:"match"`  // URL prefix of a tab to reuse
	Screen string `yaml:"screen"` // first route segment of the POS screen
}

// AnchorConfig controls the wait for the items panel.
type AnchorConfig struct {
	Label   string        `yaml:"label"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReconcileConfig controls pass scheduling.
type ReconcileConfig struct {
	Frame time.Duration `yaml:"frame"`
}

// PrefsConfig selects the preference tiers.
type PrefsConfig struct {
	Key    string      `yaml:"key"`
	SQLite string      `yaml:"sqlite"` // empty disables the durable tier
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig is the session tier. Empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file, applies environment overrides
// and defaults, and validates the result. An empty path yields the
// defaults plus overrides.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8097"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Browser.Headless == nil {
		c.Browser.Headless = boolPtr(true)
	}
	if c.Browser.Stealth == nil {
		c.Browser.Stealth = boolPtr(true)
	}
	if c.Page.URL == "" {
		c.Page.URL = "http://localhost:8000/app/point-of-sale"
	}
	if c.Page.Match == "" {
		c.Page.Match = c.Page.URL
	}
	if c.Page.Screen == "" {
		c.Page.Screen = "point-of-sale"
	}
	if c.Anchor.Label == "" {
		c.Anchor.Label = "All Items"
	}
	if c.Anchor.Timeout <= 0 {
		c.Anchor.Timeout = 15 * time.Second
	}
	if c.Reconcile.Frame <= 0 {
		c.Reconcile.Frame = 16 * time.Millisecond
	}
	if c.Prefs.Key == "" {
		c.Prefs.Key = "pos_item_view_mode"
	}
	if c.Prefs.Redis.TTL <= 0 {
		c.Prefs.Redis.TTL = 12 * time.Hour
	}
	c.Thresholds.ApplyDefaults()
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// applyEnv overrides file values with POSVIEW_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"POSVIEW_LISTEN":         &c.Listen,
		"POSVIEW_LOG_LEVEL":      &c.LogLevel,
		"POSVIEW_BROWSER_REMOTE": &c.Browser.Remote,
		"POSVIEW_BROWSER_BIN":    &c.Browser.Bin,
		"POSVIEW_PAGE_URL":       &c.Page.URL,
		"POSVIEW_PAGE_MATCH":     &c.Page.Match,
		"POSVIEW_PREFS_SQLITE":   &c.Prefs.SQLite,
		"POSVIEW_REDIS_ADDR":     &c.Prefs.Redis.Addr,
		"POSVIEW_REDIS_PASSWORD": &c.Prefs.Redis.Password,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	if v, ok := lookup("POSVIEW_BROWSER_HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: POSVIEW_BROWSER_HEADLESS: %w", err)
		}
		c.Browser.Headless = &b
	}
	if v, ok := lookup("POSVIEW_ANCHOR_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: POSVIEW_ANCHOR_TIMEOUT: %w", err)
		}
		c.Anchor.Timeout = d
	}
	if v, ok := lookup("POSVIEW_THUMB_POLICY"); ok {
		c.Thresholds.ThumbPolicy = classify.ThumbPolicy(v)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
