// Package config provides configuration loading and validation for the
// extraction service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the service configuration. It can be loaded from a JSON
// file; missing values use defaults. Env and CLI flags overlay on top.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Retention
	RetentionSeconds int `json:"retention_seconds,omitempty"` // artifact retention window
	SweepSeconds     int `json:"sweep_seconds,omitempty"`     // store janitor interval

	// Extraction loop
	DefaultScrollLimit int `json:"default_scroll_limit,omitempty"` // iteration budget when the request omits one
	MaxNumbers         int `json:"max_numbers,omitempty"`          // early-stop value ceiling
	NavRetries         int `json:"nav_retries,omitempty"`          // navigation attempts
	NavBackoffMillis   int `json:"nav_backoff_ms,omitempty"`       // delay between attempts
	NavTimeoutSeconds  int `json:"nav_timeout_seconds,omitempty"`  // per-attempt navigation timeout
	ScrollSettleMillis int `json:"scroll_settle_ms,omitempty"`     // wait after each scroll
	ExpandSettleMillis int `json:"expand_settle_ms,omitempty"`     // wait after expanding blocks

	// Streaming
	KeepAliveSeconds int `json:"keepalive_seconds,omitempty"` // SSE keep-alive interval

	// Browser
	ChromePath string `json:"chrome_path,omitempty"` // system Chromium binary, empty = bundled lookup
}

// Defaults returns the stock configuration. The loop constants preserve the
// tuned values this service shipped with.
func Defaults() Config {
	return Config{
		Port:               3000,
		RetentionSeconds:   60,
		SweepSeconds:       5,
		DefaultScrollLimit: 50,
		MaxNumbers:         800,
		NavRetries:         3,
		NavBackoffMillis:   3000,
		NavTimeoutSeconds:  120,
		ScrollSettleMillis: 2500,
		ExpandSettleMillis: 1500,
		KeepAliveSeconds:   15,
	}
}

// Load reads configuration from a JSON file. Returns an error if the file
// cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be in [0, 65535]")
	}
	if c.RetentionSeconds < 0 {
		return fmt.Errorf("config error: 'retention_seconds' must be non-negative")
	}
	if c.DefaultScrollLimit < 0 {
		return fmt.Errorf("config error: 'default_scroll_limit' must be non-negative")
	}
	if c.MaxNumbers < 0 {
		return fmt.Errorf("config error: 'max_numbers' must be non-negative")
	}
	if c.NavRetries < 0 {
		return fmt.Errorf("config error: 'nav_retries' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RetentionSeconds == 0 {
		result.RetentionSeconds = defaults.RetentionSeconds
	}
	if result.SweepSeconds == 0 {
		result.SweepSeconds = defaults.SweepSeconds
	}
	if result.DefaultScrollLimit == 0 {
		result.DefaultScrollLimit = defaults.DefaultScrollLimit
	}
	if result.MaxNumbers == 0 {
		result.MaxNumbers = defaults.MaxNumbers
	}
	if result.NavRetries == 0 {
		result.NavRetries = defaults.NavRetries
	}
	if result.NavBackoffMillis == 0 {
		result.NavBackoffMillis = defaults.NavBackoffMillis
	}
	if result.NavTimeoutSeconds == 0 {
		result.NavTimeoutSeconds = defaults.NavTimeoutSeconds
	}
	if result.ScrollSettleMillis == 0 {
		result.ScrollSettleMillis = defaults.ScrollSettleMillis
	}
	if result.ExpandSettleMillis == 0 {
		result.ExpandSettleMillis = defaults.ExpandSettleMillis
	}
	if result.KeepAliveSeconds == 0 {
		result.KeepAliveSeconds = defaults.KeepAliveSeconds
	}
	if result.ChromePath == "" {
		result.ChromePath = defaults.ChromePath
	}

	return result
}

// Retention returns the artifact retention window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionSeconds) * time.Second
}

// SweepInterval returns the janitor interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// NavBackoff returns the navigation retry delay as a duration.
func (c *Config) NavBackoff() time.Duration {
	return time.Duration(c.NavBackoffMillis) * time.Millisecond
}

// NavTimeout returns the per-attempt navigation timeout as a duration.
func (c *Config) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSeconds) * time.Second
}

// ScrollSettle returns the post-scroll settle delay as a duration.
func (c *Config) ScrollSettle() time.Duration {
	return time.Duration(c.ScrollSettleMillis) * time.Millisecond
}

// ExpandSettle returns the post-expand settle delay as a duration.
func (c *Config) ExpandSettle() time.Duration {
	return time.Duration(c.ExpandSettleMillis) * time.Millisecond
}

// KeepAlive returns the SSE keep-alive interval as a duration.
func (c *Config) KeepAlive() time.Duration {
	return time.Duration(c.KeepAliveSeconds) * time.Second
}
