// config.go: Configuration policy for the Vesta mounted-volume reloader
//
// Copyright (c) 2025 AGILira
// Series: AGILira System Libraries
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"os"
	"time"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

// DefaultContextPath is the kubelet's atomic-swap symlink inside every
// mounted volume. The per-key entries at the mount root are symlinks through
// this directory, and an update swaps its target in one rename. Vesta's
// watcher observes that swap; the reader never consults it directly.
const DefaultContextPath = "..data"

// CategoryConfig declares whether one mounted-volume category is watched and
// which mount paths to scan for it. No paths configured is equivalent to
// disabled even when Enabled is set, since there is nothing to scan.
type CategoryConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Paths   []string `yaml:"paths" json:"paths"`
}

// Config configures the Vesta reloader and mount watcher.
type Config struct {
	// ConfigMaps declares the ConfigMap-style mount paths (one property
	// source per file).
	ConfigMaps CategoryConfig `yaml:"config-maps" json:"config-maps"`

	// Secrets declares the Secret-style mount paths (one aggregated
	// property source per path).
	Secrets CategoryConfig `yaml:"secrets" json:"secrets"`

	// ContextPath is the atomic-swap symlink name inside each mount.
	// Default: "..data".
	ContextPath string `yaml:"context-path" json:"context-path"`

	// PollInterval is how often the mount watcher checks for snapshot
	// swaps. Default: 5 seconds.
	PollInterval time.Duration `yaml:"poll-interval" json:"poll-interval"`

	// CacheTTL is how long the watcher caches mount stat results.
	// Should be <= PollInterval for effectiveness.
	// Default: PollInterval / 2.
	CacheTTL time.Duration `yaml:"cache-ttl" json:"cache-ttl"`

	// Audit configures the reload audit trail.
	// Default: disabled.
	Audit AuditConfig `yaml:"audit" json:"audit"`

	// ErrorHandler is called when a mount path cannot be read.
	// If nil, skipped paths are logged to stderr.
	ErrorHandler ErrorHandler `yaml:"-" json:"-"`
}

// WithDefaults applies sensible defaults to the configuration
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.ContextPath == "" {
		config.ContextPath = DefaultContextPath
	}

	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}

	if config.CacheTTL <= 0 {
		config.CacheTTL = config.PollInterval / 2
	}

	// GUARD RAIL: Ensure CacheTTL <= PollInterval for effectiveness
	if config.CacheTTL > config.PollInterval {
		config.CacheTTL = config.PollInterval / 2
	}

	return &config
}

// Validate checks the configuration for inconsistencies that would make the
// reloader silently useless.
func (c *Config) Validate() error {
	if c.PollInterval < 0 {
		return errors.New(ErrCodeInvalidConfig, "poll interval cannot be negative")
	}
	if c.CacheTTL < 0 {
		return errors.New(ErrCodeInvalidConfig, "cache TTL cannot be negative")
	}

	for _, cat := range []struct {
		name   string
		policy CategoryConfig
	}{
		{"config-maps", c.ConfigMaps},
		{"secrets", c.Secrets},
	} {
		for _, path := range cat.policy.Paths {
			if path == "" {
				return errors.New(ErrCodeInvalidConfig, "empty mount path configured").
					WithContext("category", cat.name)
			}
		}
	}

	return nil
}

// Enabled reports whether any category is effectively active: enabled flag
// set and at least one mount path configured.
func (c *Config) Enabled() bool {
	return (c.ConfigMaps.Enabled && len(c.ConfigMaps.Paths) > 0) ||
		(c.Secrets.Enabled && len(c.Secrets.Paths) > 0)
}

// categoryConfig returns the policy for the given category.
func (c *Config) categoryConfig(category Category) CategoryConfig {
	if category == CategorySecret {
		return c.Secrets
	}
	return c.ConfigMaps
}

// LoadConfigFromFile loads a Config from a YAML (or JSON, a YAML subset)
// file and applies defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- configPath is user-provided intentionally
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, "failed to read config file").
			WithContext("path", path)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidConfig, "failed to parse config file").
			WithContext("path", path)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config.WithDefaults(), nil
}
