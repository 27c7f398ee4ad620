// mountwatch.go: Polling watcher for mounted-volume snapshot swaps
//
// Kubelet volume mounts update atomically: the per-key files are symlinks
// through a `..data` directory whose target is swapped in a single rename.
// The watcher polls each configured mount for that swap (falling back to the
// directory's own stat when no snapshot link exists) and raises a ChangeEvent
// tagged with the mount's category. It deliberately reports no paths or
// diffs; the Reloader re-scans the whole category either way.
//
// Polling keeps the watcher portable across OSes and filesystems, and a
// TTL'd stat cache keeps syscall overhead negligible at config-file scale.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// mountState captures what the watcher can cheaply observe about one mount:
// the current snapshot link target when present, otherwise the directory's
// modification time. Value types only, cached with timecache timestamps.
type mountState struct {
	linkTarget string    // resolved ContextPath symlink target ("" if absent)
	modTime    time.Time // directory modification time fallback
	exists     bool      // whether the mount directory exists
	cachedAt   int64     // timecache nano timestamp
}

// isExpired checks if the cached state is expired using timecache for zero-allocation timing
func (ms *mountState) isExpired(ttl time.Duration) bool {
	now := timecache.CachedTimeNano()
	return (now - ms.cachedAt) > int64(ttl)
}

// changedFrom reports whether the observable mount state differs in a way
// that warrants a reload: existence flip, snapshot swap, or modtime bump.
func (ms mountState) changedFrom(prev mountState) bool {
	if ms.exists != prev.exists {
		return true
	}
	if ms.linkTarget != prev.linkTarget {
		return true
	}
	return ms.linkTarget == "" && ms.exists && !ms.modTime.Equal(prev.modTime)
}

// watchedMount is one configured mount path under observation.
type watchedMount struct {
	path      string
	category  Category
	lastState mountState
	primed    bool // first observation recorded, diffs meaningful
}

// MountWatcher polls the configured ConfigMap and Secret mount paths and
// invokes its handler with a ChangeEvent whenever a mount's snapshot swaps.
// Events are delivered from the polling goroutine, one per changed category
// per cycle, so same-category delivery is naturally sequential.
type MountWatcher struct {
	config  Config
	handler func(ChangeEvent)
	mounts  []*watchedMount

	// LOCK-FREE CACHE: atomic.Pointer for zero-contention stat reads
	stateCache atomic.Pointer[map[string]mountState]

	running   atomic.Bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewMountWatcher creates a watcher over every mount path the configuration
// enables. The handler is typically (*Reloader).OnChange.
func NewMountWatcher(config Config, handler func(ChangeEvent)) (*MountWatcher, error) {
	if handler == nil {
		return nil, errors.New(ErrCodeInvalidConfig, "change handler cannot be nil")
	}

	cfg := config.WithDefaults()
	w := &MountWatcher{
		config:    *cfg,
		handler:   handler,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}

	initialCache := make(map[string]mountState)
	w.stateCache.Store(&initialCache)

	if cfg.ConfigMaps.Enabled {
		for _, path := range cfg.ConfigMaps.Paths {
			w.mounts = append(w.mounts, &watchedMount{path: path, category: CategoryConfigMap})
		}
	}
	if cfg.Secrets.Enabled {
		for _, path := range cfg.Secrets.Paths {
			w.mounts = append(w.mounts, &watchedMount{path: path, category: CategorySecret})
		}
	}

	return w, nil
}

// WatchedMounts returns the number of mount paths under observation.
func (w *MountWatcher) WatchedMounts() int {
	return len(w.mounts)
}

// Start begins polling the configured mounts for snapshot swaps.
func (w *MountWatcher) Start() error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New(ErrCodeWatcherBusy, "mount watcher is already running")
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher and waits for the polling loop to exit.
func (w *MountWatcher) Stop() error {
	if !w.running.CompareAndSwap(true, false) {
		return errors.New(ErrCodeWatcherStopped, "mount watcher is not running")
	}

	close(w.stopCh)
	<-w.stoppedCh
	return nil
}

// IsRunning returns true if the watcher is currently polling.
func (w *MountWatcher) IsRunning() bool {
	return w.running.Load()
}

// Close is an alias for Stop() for defer-friendly resource management.
func (w *MountWatcher) Close() error {
	return w.Stop()
}

// watchLoop is the main polling loop.
func (w *MountWatcher) watchLoop() {
	defer close(w.stoppedCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Prime initial state so the first tick only reports real changes.
	w.pollMounts(false)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.pollMounts(true)
		}
	}
}

// pollMounts observes every mount and raises one ChangeEvent per category
// that changed this cycle. The handler runs on this goroutine: a slow reload
// delays the next poll rather than piling up concurrent rebuilds.
func (w *MountWatcher) pollMounts(emit bool) {
	var changed [2]bool

	for _, m := range w.mounts {
		current := w.getState(m.path)
		if m.primed && current.changedFrom(m.lastState) {
			changed[m.category] = true
		}
		m.lastState = current
		m.primed = true
	}

	if !emit {
		return
	}
	for category, hit := range changed {
		if hit {
			w.handler(ChangeEvent{Category: Category(category)})
		}
	}
}

// getState returns the cached mount state or observes the filesystem if the
// cache entry is missing or expired.
// LOCK-FREE: atomic.Pointer reads, copy-on-write updates.
func (w *MountWatcher) getState(path string) mountState {
	cacheMap := *w.stateCache.Load()
	if cached, exists := cacheMap[path]; exists {
		if !cached.isExpired(w.config.CacheTTL) {
			return cached
		}
	}

	state := w.observeMount(path)
	w.updateCache(path, state)
	return state
}

// observeMount performs the actual filesystem observation for one mount.
func (w *MountWatcher) observeMount(path string) mountState {
	state := mountState{cachedAt: timecache.CachedTimeNano()}

	info, err := os.Stat(path)
	if err != nil {
		return state // exists=false covers both deleted and unreadable
	}
	state.exists = true
	state.modTime = info.ModTime()

	// The snapshot link target is the cheapest swap signal: one rename on
	// the kubelet side, one readlink here.
	if target, err := os.Readlink(filepath.Join(path, w.config.ContextPath)); err == nil {
		state.linkTarget = target
	}

	return state
}

// updateCache atomically updates the state cache using copy-on-write.
func (w *MountWatcher) updateCache(path string, state mountState) {
	for {
		oldMapPtr := w.stateCache.Load()
		oldMap := *oldMapPtr
		newMap := make(map[string]mountState, len(oldMap)+1)
		for k, v := range oldMap {
			newMap[k] = v
		}
		newMap[path] = state

		if w.stateCache.CompareAndSwap(oldMapPtr, &newMap) {
			return
		}
		// Retry if another goroutine updated the cache concurrently
	}
}
