// propertysource.go: Property source model for Vesta mounted-volume configuration
//
// A property source is a named, prioritized mapping of configuration keys to
// values contributed to the layered configuration store. Mounted ConfigMaps
// yield one single-entry source per file (so individual keys stay addressable
// by name); mounted Secrets yield one aggregated source per mount path.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

// Category identifies the kind of mounted volume a property source was
// derived from. Cache and store clearing match on this tag rather than on
// name substrings, so a filename that happens to contain a suffix literal
// can never be swept by the wrong category.
type Category int

const (
	// CategoryConfigMap marks sources derived from ConfigMap volume mounts.
	CategoryConfigMap Category = iota

	// CategorySecret marks sources derived from Secret volume mounts.
	CategorySecret
)

func (c Category) String() string {
	switch c {
	case CategoryConfigMap:
		return "config-map"
	case CategorySecret:
		return "secret"
	default:
		return "unknown"
	}
}

// Priority layout for the live configuration store. Higher priority wins on
// key collisions across sources.
const (
	// EnvironmentPriority is the base priority of environment-derived sources
	// in the live store. Mounted-volume sources rank above it by a
	// category-specific offset.
	EnvironmentPriority = 100

	// ConfigMapPriorityOffset ranks ConfigMap sources above environment
	// sources but below Secret sources.
	ConfigMapPriorityOffset = 100

	// SecretPriorityOffset ranks Secret sources above default
	// environment-derived sources but below explicit user overrides.
	SecretPriorityOffset = 150
)

// SecretNameSuffix is appended to the mount path to form the name of an
// aggregated Secret property source. Kept as a naming convention only;
// category matching uses the Category tag.
const SecretNameSuffix = "-secret"

// PropertySource is a named, prioritized, ordered key/value mapping installed
// into the live configuration store. Sources are immutable after construction;
// a rebuild replaces them wholesale rather than mutating in place.
type PropertySource struct {
	name     string
	category Category
	priority int
	keys     []string          // insertion order, stable across rebuilds
	values   map[string]string // key -> decoded text content
}

// NewPropertySource builds a property source from ordered entries.
// Duplicate keys keep the last value but are not re-appended to the order.
func NewPropertySource(name string, category Category, priority int, entries []MountEntry) *PropertySource {
	ps := &PropertySource{
		name:     name,
		category: category,
		priority: priority,
		keys:     make([]string, 0, len(entries)),
		values:   make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if _, exists := ps.values[e.Key]; !exists {
			ps.keys = append(ps.keys, e.Key)
		}
		ps.values[e.Key] = e.Value
	}
	return ps
}

// Name returns the unique source name used as the cache and store key.
func (ps *PropertySource) Name() string { return ps.name }

// Category returns the mounted-volume category this source was derived from.
func (ps *PropertySource) Category() Category { return ps.category }

// Priority returns the collision-resolution priority (higher wins).
func (ps *PropertySource) Priority() int { return ps.priority }

// Len returns the number of entries in the source.
func (ps *PropertySource) Len() int { return len(ps.keys) }

// Keys returns the entry keys in their original mount order.
// The returned slice is a copy and safe to retain.
func (ps *PropertySource) Keys() []string {
	keys := make([]string, len(ps.keys))
	copy(keys, ps.keys)
	return keys
}

// Get returns the value for key and whether it is present.
func (ps *PropertySource) Get(key string) (string, bool) {
	v, ok := ps.values[key]
	return v, ok
}

// NewConfigMapPropertySources builds one single-entry property source per
// mounted file. The source name equals the filename, preserving
// one-property-per-file granularity so individual keys can be referenced by
// name in application configuration lookups.
func NewConfigMapPropertySources(entries []MountEntry) []*PropertySource {
	sources := make([]*PropertySource, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, NewPropertySource(
			e.Key,
			CategoryConfigMap,
			EnvironmentPriority+ConfigMapPriorityOffset,
			[]MountEntry{e},
		))
	}
	return sources
}

// NewSecretPropertySource aggregates all files under one Secret mount path
// into a single property source named <mountPath><SecretNameSuffix>.
func NewSecretPropertySource(mountPath string, entries []MountEntry) *PropertySource {
	return NewPropertySource(
		mountPath+SecretNameSuffix,
		CategorySecret,
		EnvironmentPriority+SecretPriorityOffset,
		entries,
	)
}
