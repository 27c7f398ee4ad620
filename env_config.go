// env_config.go: Environment variable support for Vesta configuration
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Environment-based configuration for container deployments, where mount
// paths and flags arrive through the pod spec rather than a config file.

package vesta

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// Environment variables recognized by LoadConfigFromEnv:
//
//	VESTA_CONFIG_MAPS_ENABLED    bool
//	VESTA_CONFIG_MAPS_PATHS      comma-separated mount paths
//	VESTA_SECRETS_ENABLED        bool
//	VESTA_SECRETS_PATHS          comma-separated mount paths
//	VESTA_CONTEXT_PATH           atomic-swap symlink name (default "..data")
//	VESTA_POLL_INTERVAL          duration (e.g. "5s")
//	VESTA_CACHE_TTL              duration
//	VESTA_AUDIT_ENABLED          bool
//	VESTA_AUDIT_OUTPUT_FILE      audit output path ("" = unified SQLite)
//	VESTA_AUDIT_MIN_LEVEL        info | warn | critical
//	VESTA_AUDIT_BUFFER_SIZE      int
//	VESTA_AUDIT_FLUSH_INTERVAL   duration

// LoadConfigFromEnv loads Vesta configuration from VESTA_* environment
// variables, applies defaults and validates the result.
func LoadConfigFromEnv() (*Config, error) {
	config := &Config{}

	var err error
	if config.ConfigMaps.Enabled, err = envBool("VESTA_CONFIG_MAPS_ENABLED"); err != nil {
		return nil, err
	}
	config.ConfigMaps.Paths = envPaths("VESTA_CONFIG_MAPS_PATHS")

	if config.Secrets.Enabled, err = envBool("VESTA_SECRETS_ENABLED"); err != nil {
		return nil, err
	}
	config.Secrets.Paths = envPaths("VESTA_SECRETS_PATHS")

	config.ContextPath = os.Getenv("VESTA_CONTEXT_PATH")

	if config.PollInterval, err = envDuration("VESTA_POLL_INTERVAL"); err != nil {
		return nil, err
	}
	if config.CacheTTL, err = envDuration("VESTA_CACHE_TTL"); err != nil {
		return nil, err
	}

	if config.Audit.Enabled, err = envBool("VESTA_AUDIT_ENABLED"); err != nil {
		return nil, err
	}
	config.Audit.OutputFile = os.Getenv("VESTA_AUDIT_OUTPUT_FILE")
	if config.Audit.MinLevel, err = envAuditLevel("VESTA_AUDIT_MIN_LEVEL"); err != nil {
		return nil, err
	}
	if config.Audit.BufferSize, err = envInt("VESTA_AUDIT_BUFFER_SIZE"); err != nil {
		return nil, err
	}
	if config.Audit.FlushInterval, err = envDuration("VESTA_AUDIT_FLUSH_INTERVAL"); err != nil {
		return nil, err
	}
	if config.Audit.Enabled {
		if config.Audit.BufferSize <= 0 {
			config.Audit.BufferSize = DefaultAuditConfig().BufferSize
		}
		if config.Audit.FlushInterval <= 0 {
			config.Audit.FlushInterval = DefaultAuditConfig().FlushInterval
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config.WithDefaults(), nil
}

// envPaths parses a comma-separated path list, trimming whitespace and
// dropping empty segments.
func envPaths(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func envBool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrap(err, ErrCodeInvalidConfig, "invalid boolean environment variable").
			WithContext("variable", key).
			WithContext("value", raw)
	}
	return value, nil
}

func envInt(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(err, ErrCodeInvalidConfig, "invalid integer environment variable").
			WithContext("variable", key).
			WithContext("value", raw)
	}
	return value, nil
}

func envDuration(key string) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrap(err, ErrCodeInvalidConfig, "invalid duration environment variable").
			WithContext("variable", key).
			WithContext("value", raw)
	}
	return value, nil
}

func envAuditLevel(key string) (AuditLevel, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return AuditInfo, nil
	}

	switch strings.ToLower(raw) {
	case "info":
		return AuditInfo, nil
	case "warn", "warning":
		return AuditWarn, nil
	case "critical":
		return AuditCritical, nil
	default:
		return AuditInfo, errors.New(ErrCodeInvalidConfig, "invalid audit level environment variable").
			WithContext("variable", key).
			WithContext("value", raw)
	}
}
