// cache.go: Registered-source cache for Vesta
//
// The cache remembers every property source currently installed in the live
// configuration store, keyed by source name. It is what makes deletion
// correct: once a mount directory disappears, the filesystem no longer shows
// which sources were derived from it, but the cache still does, so the next
// reload can remove them from the store symmetrically.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import "sync"

// SourceCache maps property-source name to the source last installed under
// that name. It is an explicitly owned instance handed to the Reloader at
// construction; all mutation funnels through this API.
//
// The Reloader serializes mutations per category, but the ConfigMap and
// Secret categories may run concurrently, so the map itself is mutex-guarded.
type SourceCache struct {
	mu      sync.RWMutex
	sources map[string]*PropertySource
}

// NewSourceCache creates an empty registered-source cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{sources: make(map[string]*PropertySource)}
}

// Add inserts the source, overwriting any cached source with the same name.
func (c *SourceCache) Add(ps *PropertySource) {
	c.mu.Lock()
	c.sources[ps.Name()] = ps
	c.mu.Unlock()
}

// Remove deletes the source cached under name, if any.
func (c *SourceCache) Remove(name string) {
	c.mu.Lock()
	delete(c.sources, name)
	c.mu.Unlock()
}

// Get returns the source cached under name and whether it is present.
func (c *SourceCache) Get(name string) (*PropertySource, bool) {
	c.mu.RLock()
	ps, ok := c.sources[name]
	c.mu.RUnlock()
	return ps, ok
}

// Len returns the number of cached sources across all categories.
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

// ListCategory returns every cached source tagged with category.
// This is the read-only form used before clearing mutates anything.
func (c *SourceCache) ListCategory(category Category) []*PropertySource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []*PropertySource
	for _, ps := range c.sources {
		if ps.Category() == category {
			matched = append(matched, ps)
		}
	}
	return matched
}

// RemoveCategory deletes every cached source tagged with category and
// returns the removed sources for symmetric removal from the live store.
func (c *SourceCache) RemoveCategory(category Category) []*PropertySource {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []*PropertySource
	for name, ps := range c.sources {
		if ps.Category() == category {
			removed = append(removed, ps)
			delete(c.sources, name)
		}
	}
	return removed
}
