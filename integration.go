// integration.go: FlashFlags integration for Vesta configuration
//
// Binds the full mounted-volume policy to command-line flags with automatic
// environment variable overlay, for applications that embed Vesta and want a
// single flag surface instead of a config file.
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"fmt"
	"os"
	"strings"

	flashflags "github.com/agilira/flash-flags"
)

// ConfigManager binds Vesta configuration to command-line flags.
type ConfigManager struct {
	flags *flashflags.FlagSet

	appName        string
	appDescription string
	appVersion     string
}

// NewConfigManager creates a flag-bound configuration manager. All Vesta
// flags are pre-registered; callers may add their own application flags on
// Flags() before parsing.
func NewConfigManager(appName string) *ConfigManager {
	cm := &ConfigManager{
		flags:   flashflags.New(appName),
		appName: appName,
	}

	cm.flags.Bool("config-maps-enabled", false, "Enable ConfigMap mounted-volume watching")
	cm.flags.StringSlice("config-maps-paths", nil, "ConfigMap mount paths to scan")
	cm.flags.Bool("secrets-enabled", false, "Enable Secret mounted-volume watching")
	cm.flags.StringSlice("secrets-paths", nil, "Secret mount paths to scan")
	cm.flags.String("context-path", DefaultContextPath, "Atomic-swap symlink name inside each mount")
	cm.flags.Duration("poll-interval", 0, "Mount polling interval (0 = default)")
	cm.flags.Duration("cache-ttl", 0, "Mount stat cache TTL (0 = default)")
	cm.flags.Bool("audit-enabled", false, "Enable the reload audit trail")
	cm.flags.String("audit-output", "", "Audit output file (empty = unified SQLite, .jsonl = JSONL)")

	return cm
}

// SetDescription sets the application description for help text
func (cm *ConfigManager) SetDescription(description string) *ConfigManager {
	cm.appDescription = description
	cm.flags.SetDescription(description)
	return cm
}

// SetVersion sets the application version for help text
func (cm *ConfigManager) SetVersion(version string) *ConfigManager {
	cm.appVersion = version
	cm.flags.SetVersion(version)
	return cm
}

// Flags exposes the underlying flag set for application-specific additions.
func (cm *ConfigManager) Flags() *flashflags.FlagSet {
	return cm.flags
}

// Parse parses command-line arguments with environment variable overlay
// (APPNAME_FLAG_NAME form, handled by FlashFlags).
func (cm *ConfigManager) Parse(args []string) error {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return fmt.Errorf("help requested")
		}
	}

	cm.flags.SetEnvPrefix(strings.ToUpper(cm.appName))

	if err := cm.flags.Parse(args); err != nil {
		return fmt.Errorf("failed to parse command-line flags: %w", err)
	}
	return nil
}

// ParseArgs is a convenience method that parses os.Args[1:]
func (cm *ConfigManager) ParseArgs() error {
	return cm.Parse(os.Args[1:])
}

// ParseArgsOrExit parses command-line arguments and exits gracefully on help/error
func (cm *ConfigManager) ParseArgsOrExit() {
	if err := cm.ParseArgs(); err != nil {
		if err.Error() == "help requested" {
			cm.PrintUsage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cm.PrintUsage()
		os.Exit(1)
	}
}

// PrintUsage prints help information for all flags
func (cm *ConfigManager) PrintUsage() {
	cm.flags.PrintHelp()
}

// ToConfig materializes the parsed flags into a validated Config with
// defaults applied.
func (cm *ConfigManager) ToConfig() (*Config, error) {
	config := &Config{
		ConfigMaps: CategoryConfig{
			Enabled: cm.flags.GetBool("config-maps-enabled"),
			Paths:   cm.flags.GetStringSlice("config-maps-paths"),
		},
		Secrets: CategoryConfig{
			Enabled: cm.flags.GetBool("secrets-enabled"),
			Paths:   cm.flags.GetStringSlice("secrets-paths"),
		},
		ContextPath:  cm.flags.GetString("context-path"),
		PollInterval: cm.flags.GetDuration("poll-interval"),
		CacheTTL:     cm.flags.GetDuration("cache-ttl"),
	}

	if cm.flags.GetBool("audit-enabled") {
		config.Audit = DefaultAuditConfig()
		config.Audit.OutputFile = cm.flags.GetString("audit-output")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config.WithDefaults(), nil
}
