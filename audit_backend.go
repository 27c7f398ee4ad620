// audit_backend.go: Pluggable storage backends for the Vesta audit trail
//
// Two backends cover the deployment spectrum:
//   - SQLite unified backend: one system-wide database consolidating audit
//     events across every Vesta-enabled process, WAL mode for concurrent
//     writers, schema managed in-place.
//   - JSONL backend: append-only newline-delimited JSON for environments
//     where a log shipper owns durability.
//
// Backend selection is automatic from AuditConfig.OutputFile: empty selects
// the unified SQLite database, a .jsonl path selects JSONL, any other path
// is used as a dedicated SQLite database file.
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// auditBackend abstracts audit event persistence.
type auditBackend interface {
	// Write persists a batch of events atomically.
	Write(events []AuditEvent) error

	// Flush forces pending writes to durable storage.
	Flush() error

	// Close releases backend resources after a final flush.
	Close() error
}

// createAuditBackend selects and initializes the backend for config.
// A disabled config yields no backend; the logger then drops all events.
func createAuditBackend(config AuditConfig) (auditBackend, error) {
	if !config.Enabled {
		return nil, nil
	}

	if strings.HasSuffix(config.OutputFile, ".jsonl") {
		return newJSONLBackend(config)
	}
	return newSQLiteBackend(config)
}

// unifiedAuditPath returns the system-wide audit database location used when
// no explicit output file is configured.
func unifiedAuditPath() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "vesta", "audit.db")
	}
	return filepath.Join(os.TempDir(), "vesta", "audit.db")
}

// SQLite backend

type sqliteAuditBackend struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	mu         sync.Mutex
}

func newSQLiteBackend(config AuditConfig) (*sqliteAuditBackend, error) {
	dbPath := config.OutputFile
	if dbPath == "" {
		dbPath = unifiedAuditPath()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audit database directory: %w", err)
	}

	// WAL keeps concurrent Vesta processes from serializing on the
	// unified database; busy_timeout covers checkpoint windows.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	backend := &sqliteAuditBackend{db: db}
	if err := backend.initializeSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := backend.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return backend, nil
}

func (s *sqliteAuditBackend) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		event TEXT NOT NULL,
		component TEXT NOT NULL,
		category TEXT,
		mount_path TEXT,
		source_name TEXT,
		process_id INTEGER NOT NULL,
		process_name TEXT NOT NULL,
		context TEXT,
		checksum TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_events_event ON audit_events(event);
	CREATE INDEX IF NOT EXISTS idx_audit_events_category ON audit_events(category);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) prepareStatements() error {
	stmt, err := s.db.Prepare(`
		INSERT INTO audit_events
		(timestamp, level, event, component, category, mount_path, source_name, process_id, process_name, context, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare audit insert statement: %w", err)
	}
	s.insertStmt = stmt
	return nil
}

func (s *sqliteAuditBackend) Write(events []AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}

	stmt := tx.Stmt(s.insertStmt)
	for _, event := range events {
		var contextJSON []byte
		if event.Context != nil {
			contextJSON, _ = json.Marshal(event.Context)
		}

		if _, err := stmt.Exec(
			event.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"),
			event.Level.String(),
			event.Event,
			event.Component,
			event.Category,
			event.MountPath,
			event.SourceName,
			event.ProcessID,
			event.ProcessName,
			string(contextJSON),
			event.Checksum,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit transaction: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err != nil {
		return fmt.Errorf("failed to checkpoint audit database: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertStmt != nil {
		_ = s.insertStmt.Close()
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close audit database: %w", err)
	}
	return nil
}

// JSONL backend

type jsonlAuditBackend struct {
	file *os.File
	mu   sync.Mutex
}

func newJSONLBackend(config AuditConfig) (*jsonlAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- operator-configured audit path
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &jsonlAuditBackend{file: file}, nil
}

func (j *jsonlAuditBackend) Write(events []AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}
		if _, err := j.file.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write audit event: %w", err)
		}
	}
	return nil
}

func (j *jsonlAuditBackend) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit log file: %w", err)
	}
	return nil
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.file.Close(); err != nil {
		return fmt.Errorf("failed to close audit log file: %w", err)
	}
	return nil
}
