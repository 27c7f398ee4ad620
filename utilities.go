// utilities.go: Convenience constructors wiring the full Vesta stack
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import "fmt"

// Runtime bundles a fully wired reload stack: the live store, the reaction
// controller and the mount watcher, plus the refresh bus applications
// subscribe to.
type Runtime struct {
	Environment *Environment
	Reloader    *Reloader
	Watcher     *MountWatcher
	Bus         *RefreshBus

	audit *AuditLogger
}

// MountedVolumeReloader builds and starts a complete reload stack from a
// config file: store, cache, reloader, refresh bus and polling mount
// watcher. onRefresh, if non-nil, is subscribed to the refresh bus and
// invoked after every property-source install.
//
// An initial reload of every enabled category runs before the watcher
// starts, so the environment is populated without waiting for the first
// snapshot swap.
//
// Example:
//
//	rt, err := vesta.MountedVolumeReloader("vesta.yml", func() {
//	    level, _ := rt.Environment.Get("log-level")
//	    applyLogLevel(level)
//	})
//	defer rt.Stop()
func MountedVolumeReloader(configPath string, onRefresh func()) (*Runtime, error) {
	config, err := LoadConfigFromFile(configPath)
	if err != nil {
		return nil, err
	}
	return NewRuntime(*config, onRefresh)
}

// NewRuntime builds and starts a complete reload stack from an in-memory
// configuration. See MountedVolumeReloader.
func NewRuntime(config Config, onRefresh func()) (*Runtime, error) {
	cfg := config.WithDefaults()

	var audit *AuditLogger
	if cfg.Audit.Enabled {
		var err error
		audit, err = NewAuditLogger(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audit trail: %w", err)
		}
	}

	env := NewEnvironment()
	bus := NewRefreshBus()
	if onRefresh != nil {
		bus.Subscribe(onRefresh)
	}

	reloader := NewReloader(*cfg, env,
		WithRefreshPublisher(bus),
		WithAuditLogger(audit),
	)

	// Populate before watching: the mounts already hold current content.
	if cfg.ConfigMaps.Enabled && len(cfg.ConfigMaps.Paths) > 0 {
		reloader.OnChange(ChangeEvent{Category: CategoryConfigMap})
	}
	if cfg.Secrets.Enabled && len(cfg.Secrets.Paths) > 0 {
		reloader.OnChange(ChangeEvent{Category: CategorySecret})
	}

	watcher, err := NewMountWatcher(*cfg, reloader.OnChange)
	if err != nil {
		return nil, err
	}
	if err := watcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mount watcher: %w", err)
	}

	return &Runtime{
		Environment: env,
		Reloader:    reloader,
		Watcher:     watcher,
		Bus:         bus,
		audit:       audit,
	}, nil
}

// Stop shuts down the watcher and flushes the audit trail.
func (rt *Runtime) Stop() error {
	if err := rt.Watcher.Stop(); err != nil {
		return err
	}
	return rt.audit.Close()
}
