// audit_test.go: Testing the reload audit trail
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newJSONLAuditLogger(t *testing.T) (*AuditLogger, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewAuditLogger(AuditConfig{
		Enabled:    true,
		OutputFile: path,
		MinLevel:   AuditInfo,
		BufferSize: 100,
	})
	if err != nil {
		t.Fatalf("NewAuditLogger failed: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return logger, path
}

func readAuditEvents(t *testing.T, path string) []AuditEvent {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}

	var events []AuditEvent
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var event AuditEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("Malformed audit line %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func TestAuditLoggerJSONL(t *testing.T) {
	t.Run("writes_reload_lifecycle", func(t *testing.T) {
		logger, path := newJSONLAuditLogger(t)

		logger.LogReload("reload_start", CategoryConfigMap, "/etc/config")
		logger.LogReload("reload_complete", CategoryConfigMap, "/etc/config")
		if err := logger.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}

		events := readAuditEvents(t, path)
		if len(events) != 2 {
			t.Fatalf("Expected 2 events, got %d", len(events))
		}
		if events[0].Event != "reload_start" || events[1].Event != "reload_complete" {
			t.Errorf("Unexpected event sequence: %q, %q", events[0].Event, events[1].Event)
		}
		if events[0].Category != "config-map" || events[0].MountPath != "/etc/config" {
			t.Errorf("Unexpected event payload: %+v", events[0])
		}
		if events[0].Component != "vesta" || events[0].Checksum == "" {
			t.Errorf("Expected component and checksum set: %+v", events[0])
		}
	})

	t.Run("records_source_context", func(t *testing.T) {
		logger, path := newJSONLAuditLogger(t)

		ps := NewSecretPropertySource("/etc/secrets", []MountEntry{{Key: "token", Value: "abc"}})
		logger.LogSourceChange("source_installed", ps)
		if err := logger.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}

		events := readAuditEvents(t, path)
		if len(events) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(events))
		}
		event := events[0]
		if event.SourceName != "/etc/secrets-secret" || event.Category != "secret" {
			t.Errorf("Unexpected source event: %+v", event)
		}
		if event.Context["entries"] != float64(1) {
			t.Errorf("Expected entry count in context, got %v", event.Context["entries"])
		}
	})

	t.Run("min_level_filters", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.jsonl")
		logger, err := NewAuditLogger(AuditConfig{
			Enabled:    true,
			OutputFile: path,
			MinLevel:   AuditWarn,
			BufferSize: 100,
		})
		if err != nil {
			t.Fatalf("NewAuditLogger failed: %v", err)
		}
		defer func() { _ = logger.Close() }()

		logger.LogReload("reload_start", CategoryConfigMap, "") // Info, filtered
		logger.LogPathSkip(CategoryConfigMap, "/etc/config", os.ErrNotExist)
		if err := logger.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}

		events := readAuditEvents(t, path)
		if len(events) != 1 || events[0].Event != "path_skipped" {
			t.Fatalf("Expected only the warn-level event, got %+v", events)
		}
	})

	t.Run("buffer_overflow_triggers_flush", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.jsonl")
		logger, err := NewAuditLogger(AuditConfig{
			Enabled:    true,
			OutputFile: path,
			BufferSize: 2,
		})
		if err != nil {
			t.Fatalf("NewAuditLogger failed: %v", err)
		}
		defer func() { _ = logger.Close() }()

		logger.LogReload("reload_start", CategoryConfigMap, "")
		logger.LogReload("reload_complete", CategoryConfigMap, "")

		events := readAuditEvents(t, path)
		if len(events) != 2 {
			t.Errorf("Expected auto-flush at buffer capacity, got %d events on disk", len(events))
		}
	})
}

func TestAuditLoggerNilSafety(t *testing.T) {
	var logger *AuditLogger

	// Every method must be callable on a nil logger so auditing stays
	// strictly optional at call sites.
	logger.LogReload("reload_start", CategoryConfigMap, "/etc/config")
	logger.LogSourceChange("source_installed",
		NewSecretPropertySource("/etc/secrets", nil))
	logger.LogPathSkip(CategorySecret, "/etc/secrets", os.ErrNotExist)
	if err := logger.Flush(); err != nil {
		t.Errorf("Nil Flush must return nil, got %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Nil Close must return nil, got %v", err)
	}
}

func TestAuditLoggerDisabled(t *testing.T) {
	logger, err := NewAuditLogger(AuditConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewAuditLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.LogReload("reload_start", CategoryConfigMap, "")
	if err := logger.Flush(); err != nil {
		t.Errorf("Disabled logger Flush must be a no-op, got %v", err)
	}
}

func TestDefaultAuditConfig(t *testing.T) {
	cfg := DefaultAuditConfig()
	if !cfg.Enabled || cfg.OutputFile != "" {
		t.Errorf("Expected enabled unified-storage default, got %+v", cfg)
	}
	if cfg.BufferSize != 1000 || cfg.FlushInterval != 5*time.Second {
		t.Errorf("Unexpected buffering defaults: %+v", cfg)
	}
	if cfg.MinLevel != AuditInfo {
		t.Errorf("Expected info min level, got %v", cfg.MinLevel)
	}
}

func TestAuditLevelString(t *testing.T) {
	tests := []struct {
		level AuditLevel
		want  string
	}{
		{AuditInfo, "INFO"},
		{AuditWarn, "WARN"},
		{AuditCritical, "CRITICAL"},
		{AuditLevel(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("AuditLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}
