// Command handlers for the Vesta CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/agilira/vesta"
)

// handleScan reads one mounted volume and prints the property sources the
// reloader would install for it.
func (m *Manager) handleScan(ctx *orpheus.Context) error {
	mountPath := ctx.GetArg(0)
	if mountPath == "" {
		return errors.New(vesta.ErrCodeInvalidConfig, "usage: vesta scan <mount-path> [--category=config-map|secret]")
	}

	category, err := parseCategory(ctx.GetFlagString("category"))
	if err != nil {
		return err
	}

	if m.auditLogger != nil {
		m.auditLogger.LogReload("cli_scan", category, mountPath)
	}

	entries, err := vesta.ReadMountDirectory(mountPath)
	if err != nil {
		return errors.Wrap(err, vesta.ErrCodeUnreadablePath, "failed to scan mount path")
	}

	var sources []*vesta.PropertySource
	switch category {
	case vesta.CategorySecret:
		sources = []*vesta.PropertySource{vesta.NewSecretPropertySource(mountPath, entries)}
	default:
		sources = vesta.NewConfigMapPropertySources(entries)
	}

	printSources(sources, ctx.GetFlagBool("values"))
	return nil
}

// handleValidate loads and validates a Vesta configuration file.
func (m *Manager) handleValidate(ctx *orpheus.Context) error {
	configPath := ctx.GetArg(0)
	if configPath == "" {
		return errors.New(vesta.ErrCodeInvalidConfig, "usage: vesta validate <config-file>")
	}

	config, err := vesta.LoadConfigFromFile(configPath)
	if err != nil {
		return err
	}

	fmt.Printf("%s: valid\n", configPath)
	if !config.Enabled() {
		fmt.Println("warning: no category is effectively enabled (check enabled flags and paths)")
	}
	return nil
}

// handleWatch runs the full reload stack and prints every refresh until
// interrupted (or until --duration elapses).
func (m *Manager) handleWatch(ctx *orpheus.Context) error {
	configPath := ctx.GetFlagString("config")

	refreshes := 0
	rt, err := vesta.MountedVolumeReloader(configPath, func() {
		refreshes++
		fmt.Printf("[%s] configuration refreshed (#%d)\n", time.Now().Format(time.RFC3339), refreshes)
	})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Stop() }()

	fmt.Printf("watching %d mount path(s); Ctrl-C to stop\n", rt.Watcher.WatchedMounts())

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	if rawDuration := ctx.GetFlagString("duration"); rawDuration != "" {
		duration, err := time.ParseDuration(rawDuration)
		if err != nil {
			return errors.Wrap(err, vesta.ErrCodeInvalidConfig, "invalid --duration value")
		}
		select {
		case <-stopCh:
		case <-time.After(duration):
		}
		return nil
	}

	<-stopCh
	return nil
}

// handleInfo prints the effective configuration after defaults.
func (m *Manager) handleInfo(ctx *orpheus.Context) error {
	configPath := ctx.GetFlagString("config")

	config, err := vesta.LoadConfigFromFile(configPath)
	if err != nil {
		return err
	}

	fmt.Printf("config file:    %s\n", configPath)
	fmt.Printf("context path:   %s\n", config.ContextPath)
	fmt.Printf("poll interval:  %s\n", config.PollInterval)
	fmt.Printf("cache ttl:      %s\n", config.CacheTTL)
	printCategory("config-maps", config.ConfigMaps)
	printCategory("secrets", config.Secrets)
	if config.Audit.Enabled {
		output := config.Audit.OutputFile
		if output == "" {
			output = "(unified SQLite)"
		}
		fmt.Printf("audit:          enabled, output %s\n", output)
	} else {
		fmt.Printf("audit:          disabled\n")
	}
	return nil
}
