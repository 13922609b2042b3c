package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration. Values come from an optional YAML
// file; CLI flags override whatever is loaded here.
type Config struct {
	CachePath       string `yaml:"cache_path"`
	HTMLCachePath   string `yaml:"html_cache_path"`
	HTMLCacheMaxAge string `yaml:"html_cache_max_age"`
	Model           string `yaml:"model"`
	WatchdogSeconds int    `yaml:"watchdog_seconds"`
	MemCacheEntries int    `yaml:"mem_cache_entries"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		CachePath:       "webslide.db",
		HTMLCachePath:   "webslide-html-cache",
		HTMLCacheMaxAge: "24h",
		Model:           "gemini-2.5-flash",
		WatchdogSeconds: 8,
		MemCacheEntries: 256,
	}
}

// LoadConfig reads a YAML config file, falling back to defaults when the
// path is empty or the file does not exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.WatchdogSeconds <= 0 {
		cfg.WatchdogSeconds = DefaultConfig().WatchdogSeconds
	}
	if cfg.MemCacheEntries <= 0 {
		cfg.MemCacheEntries = DefaultConfig().MemCacheEntries
	}
	return cfg, nil
}

// HTMLCacheTTL parses the configured max-age, defaulting to 24h on error.
func (c *Config) HTMLCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.HTMLCacheMaxAge)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// WatchdogBudget is the build watchdog duration.
func (c *Config) WatchdogBudget() time.Duration {
	return time.Duration(c.WatchdogSeconds) * time.Second
}
