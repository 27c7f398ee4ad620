// audit.go: Audit trail for Vesta configuration reloads
//
// Mounted-volume reloads change the effective configuration of a running
// process with no human in the loop, so every install, removal and skipped
// path is recorded in a durable, tamper-evident trail.
//
// Features:
// - Immutable audit logs with tamper detection
// - Structured events with reload context
// - Buffered writes with background flushing
// - Pluggable storage backends (unified SQLite, JSONL)
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of audit events
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AuditEvent represents a single auditable reload event
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       AuditLevel             `json:"level"`
	Event       string                 `json:"event"`
	Component   string                 `json:"component"`
	Category    string                 `json:"category,omitempty"`
	MountPath   string                 `json:"mount_path,omitempty"`
	SourceName  string                 `json:"source_name,omitempty"`
	ProcessID   int                    `json:"process_id"`
	ProcessName string                 `json:"process_name"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Checksum    string                 `json:"checksum"` // For tamper detection
}

// AuditConfig configures the audit system
type AuditConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	OutputFile    string        `json:"output_file" yaml:"output-file"`
	MinLevel      AuditLevel    `json:"min_level" yaml:"min-level"`
	BufferSize    int           `json:"buffer_size" yaml:"buffer-size"`
	FlushInterval time.Duration `json:"flush_interval" yaml:"flush-interval"`
}

// DefaultAuditConfig returns the default audit configuration with unified
// SQLite storage. An empty OutputFile selects the system-wide audit database;
// a path ending in .jsonl selects the append-only JSONL backend instead.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		OutputFile:    "", // Empty triggers unified SQLite backend
		MinLevel:      AuditInfo,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
	}
}

// AuditLogger provides buffered audit logging with pluggable backends.
// All Log* methods are safe on a nil receiver, so callers can wire auditing
// optionally without guarding every call site.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	processID   int
	processName string
}

// NewAuditLogger creates an audit logger with automatic backend selection
// (SQLite unified trail preferred, JSONL for .jsonl output files).
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	backend, err := createAuditBackend(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit backend: %w", err)
	}

	logger := &AuditLogger{
		config:      config,
		backend:     backend,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		stopCh:      make(chan struct{}),
		processID:   os.Getpid(),
		processName: getProcessName(),
	}

	if config.FlushInterval > 0 {
		logger.flushTicker = time.NewTicker(config.FlushInterval)
		go logger.flushLoop()
	}

	return logger, nil
}

// Log records an audit event.
func (al *AuditLogger) Log(level AuditLevel, event, category, mountPath, sourceName string, context map[string]interface{}) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	auditEvent := AuditEvent{
		Timestamp:   timecache.CachedTime(),
		Level:       level,
		Event:       event,
		Component:   "vesta",
		Category:    category,
		MountPath:   mountPath,
		SourceName:  sourceName,
		ProcessID:   al.processID,
		ProcessName: al.processName,
		Context:     context,
	}
	auditEvent.Checksum = al.generateChecksum(auditEvent)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, auditEvent)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe() // Keep logging non-blocking on flush errors
	}
	al.bufferMu.Unlock()
}

// LogReload logs reload lifecycle events for one category.
func (al *AuditLogger) LogReload(event string, category Category, mountPath string) {
	al.Log(AuditInfo, event, category.String(), mountPath, "", nil)
}

// LogSourceChange logs the install or removal of one property source.
func (al *AuditLogger) LogSourceChange(event string, ps *PropertySource) {
	al.Log(AuditCritical, event, ps.Category().String(), "", ps.Name(),
		map[string]interface{}{
			"priority": ps.Priority(),
			"entries":  ps.Len(),
		})
}

// LogPathSkip logs a mount path skipped because it could not be read.
func (al *AuditLogger) LogPathSkip(category Category, mountPath string, err error) {
	al.Log(AuditWarn, "path_skipped", category.String(), mountPath, "",
		map[string]interface{}{
			"reason": err.Error(),
		})
}

// Flush immediately writes all buffered events
func (al *AuditLogger) Flush() error {
	if al == nil {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	return al.flushBufferUnsafe()
}

// Close gracefully shuts down the audit logger
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}

	close(al.stopCh)
	if al.flushTicker != nil {
		al.flushTicker.Stop()
	}

	if err := al.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit logger during close: %w", err)
	}

	if al.backend != nil {
		if err := al.backend.Close(); err != nil {
			return fmt.Errorf("failed to close audit backend: %w", err)
		}
	}

	return nil
}

// flushLoop runs the background flush process
func (al *AuditLogger) flushLoop() {
	for {
		select {
		case <-al.flushTicker.C:
			_ = al.Flush() // Background flush errors must not disturb reloads
		case <-al.stopCh:
			return
		}
	}
}

// flushBufferUnsafe writes the buffer to backend storage (caller must hold bufferMu).
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 {
		return nil
	}

	if err := al.backend.Write(al.buffer); err != nil {
		return fmt.Errorf("failed to write audit events to backend: %w", err)
	}

	al.buffer = al.buffer[:0]
	return nil
}

// generateChecksum creates a tamper-detection checksum using SHA-256
func (al *AuditLogger) generateChecksum(event AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		event.Timestamp.Format(time.RFC3339Nano),
		event.Event, event.Category, event.MountPath, event.SourceName)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

func getProcessName() string {
	return "vesta" // Could read from /proc/self/comm
}
