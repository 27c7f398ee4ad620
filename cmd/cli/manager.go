// Package cli provides the command-line interface for Vesta mounted-volume
// configuration management.
//
// Architecture:
// - Manager: CLI orchestration and command routing (Orpheus framework)
// - Handlers: individual command implementations
// - Utils: shared helpers for mount inspection and output formatting
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package cli

import (
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/agilira/vesta"
)

// Manager provides CLI operations for Vesta mount inspection and reload
// monitoring, built on the Orpheus framework.
type Manager struct {
	app         *orpheus.App
	auditLogger *vesta.AuditLogger // Optional audit integration
}

// NewManager creates the Vesta CLI manager with all commands registered.
func NewManager() *Manager {
	app := orpheus.New("vesta").
		SetDescription("Kubernetes mounted-volume configuration reloader").
		SetVersion("1.0.0")

	manager := &Manager{
		app: app,
	}

	manager.setupScanCommand()
	manager.setupValidateCommand()
	manager.setupWatchCommand()
	manager.setupInfoCommand()

	return manager
}

// WithAudit enables audit logging for CLI operations.
func (m *Manager) WithAudit(auditLogger *vesta.AuditLogger) *Manager {
	m.auditLogger = auditLogger
	return m
}

// Run executes the CLI application with the provided arguments.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// Command Setup Methods

// setupScanCommand configures 'scan': one-shot mount directory inspection.
func (m *Manager) setupScanCommand() {
	scanCmd := orpheus.NewCommand("scan", "Read a mounted volume and print the property sources it yields")
	scanCmd.SetHandler(m.handleScan)
	scanCmd.AddFlag("category", "c", "config-map", "Mount category (config-map|secret)")
	scanCmd.AddBoolFlag("values", "v", false, "Print entry values, not just keys")
	m.app.AddCommand(scanCmd)
}

// setupValidateCommand configures 'validate': config file validation.
func (m *Manager) setupValidateCommand() {
	validateCmd := orpheus.NewCommand("validate", "Validate a Vesta configuration file")
	validateCmd.SetHandler(m.handleValidate)
	m.app.AddCommand(validateCmd)
}

// setupWatchCommand configures 'watch': live reload monitoring.
func (m *Manager) setupWatchCommand() {
	watchCmd := orpheus.NewCommand("watch", "Watch configured mounts and print every refresh")
	watchCmd.SetHandler(m.handleWatch)
	watchCmd.AddFlag("config", "c", "vesta.yml", "Vesta configuration file")
	watchCmd.AddFlag("duration", "d", "", "Stop after this duration (e.g. 30s; empty = run until interrupted)")
	m.app.AddCommand(watchCmd)
}

// setupInfoCommand configures 'info': effective configuration diagnostics.
func (m *Manager) setupInfoCommand() {
	infoCmd := orpheus.NewCommand("info", "Show the effective configuration for a Vesta config file")
	infoCmd.SetHandler(m.handleInfo)
	infoCmd.AddFlag("config", "c", "vesta.yml", "Vesta configuration file")
	m.app.AddCommand(infoCmd)
}
