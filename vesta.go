// vesta: Kubernetes mounted-volume configuration reloader
//
// Philosophy:
// - Minimal dependencies (AGILira ecosystem only: go-errors, go-timecache)
// - Full delete-then-rebuild on every change event: correctness via idempotence
// - Explicit ownership: the cache and store are instances, never globals
// - Per-category serialization, cross-category independence
//
// Example Usage:
//   env := vesta.NewEnvironment()
//   reloader := vesta.NewReloader(vesta.Config{
//       ConfigMaps: vesta.CategoryConfig{Enabled: true, Paths: []string{"/etc/config"}},
//       Secrets:    vesta.CategoryConfig{Enabled: true, Paths: []string{"/etc/secrets"}},
//   }, env)
//
//   reloader.OnChange(vesta.ChangeEvent{Category: vesta.CategoryConfigMap})
//   value, _ := env.Get("application.yml")
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"log"
	"sync"
)

// Error codes for Vesta operations
const (
	ErrCodeInvalidConfig  = "VESTA_INVALID_CONFIG"
	ErrCodeUnreadablePath = "VESTA_UNREADABLE_PATH"
	ErrCodeWatcherStopped = "VESTA_WATCHER_STOPPED"
	ErrCodeWatcherBusy    = "VESTA_WATCHER_BUSY"
	ErrCodeIOError        = "VESTA_IO_ERROR"
)

// ChangeEvent is the inbound notification that a watched mounted volume
// changed. It carries only the category tag: the Reloader always performs a
// full re-scan of that category's mount paths rather than an incremental
// patch, so no path or diff information is needed.
type ChangeEvent struct {
	Category Category
}

// ErrorHandler is called when a mount path cannot be read during a rebuild.
// The path is skipped for the cycle; the next ChangeEvent retries naturally.
type ErrorHandler func(err error, path string)

// defaultErrorHandler logs skipped paths to stderr (backward compatible with
// running without any handler wired).
func defaultErrorHandler(err error, path string) {
	log.Printf("vesta: skipping unreadable mount path %s: %v", path, err)
}

// Reloader reacts to mounted-volume change events by reconciling the live
// configuration store with the current directory contents: it removes every
// previously installed source of the affected category, re-scans the
// configured mount paths, and installs freshly built sources, refreshing the
// store and publishing a notification per install.
//
// Events for the same category are processed strictly sequentially; the
// ConfigMap and Secret categories are independent and may proceed
// concurrently since they touch disjoint names in cache and store.
type Reloader struct {
	config    Config
	store     PropertySourceStore
	cache     *SourceCache
	publisher RefreshPublisher
	audit     *AuditLogger

	// One mutex per category; index by Category value.
	categoryMu [2]sync.Mutex
}

// ReloaderOption customizes a Reloader at construction.
type ReloaderOption func(*Reloader)

// WithCache hands the Reloader an externally owned registered-source cache.
// Useful when the caller wants to inspect installed sources.
func WithCache(cache *SourceCache) ReloaderOption {
	return func(r *Reloader) { r.cache = cache }
}

// WithRefreshPublisher sets the outbound refresh notification publisher.
func WithRefreshPublisher(publisher RefreshPublisher) ReloaderOption {
	return func(r *Reloader) { r.publisher = publisher }
}

// WithAuditLogger attaches an audit trail for reload lifecycle events.
func WithAuditLogger(audit *AuditLogger) ReloaderOption {
	return func(r *Reloader) { r.audit = audit }
}

// NewReloader creates a Reloader bound to the given policy and live store.
func NewReloader(config Config, store PropertySourceStore, opts ...ReloaderOption) *Reloader {
	cfg := config.WithDefaults()

	r := &Reloader{
		config: *cfg,
		store:  store,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewSourceCache()
	}
	return r
}

// Cache returns the registered-source cache backing this Reloader.
func (r *Reloader) Cache() *SourceCache {
	return r.cache
}

// OnChange processes one mounted-volume change event. It never returns an
// error: the Reloader runs as a background reaction with no synchronous
// caller awaiting a result, so failures are logged, audited and skipped.
func (r *Reloader) OnChange(event ChangeEvent) {
	category := event.Category
	policy := r.config.categoryConfig(category)

	// Disabled category, or nothing to scan: stay idle. An empty path set
	// disables processing even when the enabled flag is on.
	if !policy.Enabled || len(policy.Paths) == 0 {
		return
	}

	r.categoryMu[category].Lock()
	defer r.categoryMu[category].Unlock()

	r.audit.LogReload("reload_start", category, "")

	r.clearCategory(category)
	r.rebuildCategory(category, policy.Paths)

	r.audit.LogReload("reload_complete", category, "")
}

// clearCategory removes every previously installed source of the category
// from the live store and the cache, then refreshes the store. This runs
// unconditionally so stale entries disappear even when the rebuild finds
// nothing (mount directory deleted entirely).
func (r *Reloader) clearCategory(category Category) {
	stale := r.cache.ListCategory(category)
	if len(stale) == 0 {
		return
	}

	for _, ps := range stale {
		r.store.RemovePropertySource(ps.Name())
	}
	for _, ps := range stale {
		r.cache.Remove(ps.Name())
		r.audit.LogSourceChange("source_removed", ps)
	}
	r.store.Refresh()
}

// rebuildCategory re-scans every configured mount path of the category and
// installs freshly built property sources. A read failure on one path is
// reported and that path skipped; remaining paths still process, and the
// clearing already performed is not rolled back: unreadable content is
// genuinely gone and its prior configuration drops with no replacement.
func (r *Reloader) rebuildCategory(category Category, paths []string) {
	for _, path := range paths {
		entries, err := ReadMountDirectory(path)
		if err != nil {
			r.handleError(err, path)
			r.audit.LogPathSkip(category, path, err)
			continue
		}

		switch category {
		case CategoryConfigMap:
			for _, ps := range NewConfigMapPropertySources(entries) {
				r.install(ps)
			}
		case CategorySecret:
			r.install(NewSecretPropertySource(path, entries))
		}
	}
}

// install is one small transaction: store install, cache install, store
// refresh, refresh notification. Refresh fires per source rather than once
// per rebuild so observers see monotonically increasing information instead
// of a single large jump.
func (r *Reloader) install(ps *PropertySource) {
	r.store.AddPropertySource(ps)
	r.cache.Add(ps)
	r.store.Refresh()

	r.audit.LogSourceChange("source_installed", ps)

	if r.publisher != nil {
		r.publisher.PublishRefresh()
	}
}

func (r *Reloader) handleError(err error, path string) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err, path)
		return
	}
	defaultErrorHandler(err, path)
}
