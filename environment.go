// environment.go: Live configuration store and refresh notification bus
//
// The Reloader depends only on the PropertySourceStore and RefreshPublisher
// interfaces; Environment and RefreshBus are the in-process reference
// implementations so Vesta runs end to end without a host framework.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"sort"
	"sync"
)

// PropertySourceStore is the live configuration store the Reloader installs
// property sources into. Refresh re-resolves all installed sources into the
// store's effective key/value view.
type PropertySourceStore interface {
	AddPropertySource(ps *PropertySource)
	RemovePropertySource(name string)
	GetPropertySources() []*PropertySource
	Refresh()
}

// RefreshPublisher broadcasts a zero-payload "configuration refreshed"
// notification after each successful property-source install.
type RefreshPublisher interface {
	PublishRefresh()
}

// Environment is a layered, in-process PropertySourceStore. Key collisions
// across sources resolve by priority, higher winning; among equal priorities
// the most recently added source wins.
//
// The effective view is recomputed only by Refresh, so readers observe a
// consistent snapshot between refreshes.
type Environment struct {
	mu        sync.RWMutex
	sources   []*PropertySource // insertion order
	effective map[string]string // rebuilt by Refresh
}

// NewEnvironment creates an empty live configuration store.
func NewEnvironment() *Environment {
	return &Environment{effective: make(map[string]string)}
}

// AddPropertySource installs the source, replacing any installed source with
// the same name. The effective view is unchanged until Refresh.
func (e *Environment) AddPropertySource(ps *PropertySource) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.sources {
		if existing.Name() == ps.Name() {
			e.sources[i] = ps
			return
		}
	}
	e.sources = append(e.sources, ps)
}

// RemovePropertySource uninstalls the source with the given name, if any.
// The effective view is unchanged until Refresh.
func (e *Environment) RemovePropertySource(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.sources {
		if existing.Name() == name {
			e.sources = append(e.sources[:i], e.sources[i+1:]...)
			return
		}
	}
}

// GetPropertySources returns the installed sources. The slice is a copy;
// the sources themselves are immutable.
func (e *Environment) GetPropertySources() []*PropertySource {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sources := make([]*PropertySource, len(e.sources))
	copy(sources, e.sources)
	return sources
}

// Refresh re-resolves all installed sources into the effective view.
func (e *Environment) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Ascending priority so higher-priority sources overwrite lower ones.
	// Stable sort keeps insertion order among equal priorities, so the
	// later-added source wins there.
	ordered := make([]*PropertySource, len(e.sources))
	copy(ordered, e.sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	effective := make(map[string]string)
	for _, ps := range ordered {
		for _, key := range ps.Keys() {
			if v, ok := ps.Get(key); ok {
				effective[key] = v
			}
		}
	}
	e.effective = effective
}

// Get returns the effective value for key as of the last Refresh.
func (e *Environment) Get(key string) (string, bool) {
	e.mu.RLock()
	v, ok := e.effective[key]
	e.mu.RUnlock()
	return v, ok
}

// Keys returns the effective keys as of the last Refresh, sorted.
func (e *Environment) Keys() []string {
	e.mu.RLock()
	keys := make([]string, 0, len(e.effective))
	for k := range e.effective {
		keys = append(keys, k)
	}
	e.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// RefreshBus is a minimal in-process RefreshPublisher: subscribers are
// invoked synchronously, in subscription order, on every publish.
type RefreshBus struct {
	mu          sync.RWMutex
	subscribers []func()
}

// NewRefreshBus creates an empty refresh notification bus.
func NewRefreshBus() *RefreshBus {
	return &RefreshBus{}
}

// Subscribe registers fn to be called on every refresh notification.
// Subscribers must tolerate transiently incomplete configuration: during a
// rebuild each source installs and refreshes individually, so intermediate
// states are externally visible.
func (b *RefreshBus) Subscribe(fn func()) {
	b.mu.Lock()
	b.subscribers = append(b.subscribers, fn)
	b.mu.Unlock()
}

// PublishRefresh invokes all subscribers.
func (b *RefreshBus) PublishRefresh() {
	b.mu.RLock()
	subscribers := make([]func(), len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, fn := range subscribers {
		fn()
	}
}
