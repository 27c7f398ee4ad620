// cache_test.go: Testing the registered-source cache
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"sync"
	"testing"
)

func makeSource(name string, category Category) *PropertySource {
	return NewPropertySource(name, category, 100, []MountEntry{{Key: name, Value: "v"}})
}

func TestSourceCache(t *testing.T) {
	t.Run("add_and_get", func(t *testing.T) {
		cache := NewSourceCache()
		ps := makeSource("app.yml", CategoryConfigMap)
		cache.Add(ps)

		got, ok := cache.Get("app.yml")
		if !ok || got != ps {
			t.Fatalf("Expected cached source back, got %v (present=%v)", got, ok)
		}
		if cache.Len() != 1 {
			t.Errorf("Expected 1 cached source, got %d", cache.Len())
		}
	})

	t.Run("add_overwrites_by_name", func(t *testing.T) {
		cache := NewSourceCache()
		cache.Add(makeSource("app.yml", CategoryConfigMap))
		replacement := makeSource("app.yml", CategoryConfigMap)
		cache.Add(replacement)

		if cache.Len() != 1 {
			t.Fatalf("Expected overwrite, got %d entries", cache.Len())
		}
		if got, _ := cache.Get("app.yml"); got != replacement {
			t.Error("Expected latest source under the shared name")
		}
	})

	t.Run("remove", func(t *testing.T) {
		cache := NewSourceCache()
		cache.Add(makeSource("app.yml", CategoryConfigMap))
		cache.Remove("app.yml")

		if _, ok := cache.Get("app.yml"); ok {
			t.Error("Expected source to be removed")
		}
		// Removing a missing name is a no-op.
		cache.Remove("absent")
	})

	t.Run("list_category_filters_by_tag", func(t *testing.T) {
		cache := NewSourceCache()
		cache.Add(makeSource("app.yml", CategoryConfigMap))
		cache.Add(makeSource("feature-flags", CategoryConfigMap))
		cache.Add(makeSource("/etc/secrets-secret", CategorySecret))

		configMaps := cache.ListCategory(CategoryConfigMap)
		if len(configMaps) != 2 {
			t.Errorf("Expected 2 ConfigMap sources, got %d", len(configMaps))
		}
		secrets := cache.ListCategory(CategorySecret)
		if len(secrets) != 1 {
			t.Errorf("Expected 1 Secret source, got %d", len(secrets))
		}
	})

	t.Run("category_tag_beats_name_lookalikes", func(t *testing.T) {
		// A ConfigMap file whose name contains the secret suffix text
		// must not be swept with the Secret category.
		cache := NewSourceCache()
		cache.Add(makeSource("my-secret", CategoryConfigMap))
		cache.Add(makeSource("/etc/secrets-secret", CategorySecret))

		removed := cache.RemoveCategory(CategorySecret)
		if len(removed) != 1 || removed[0].Name() != "/etc/secrets-secret" {
			t.Fatalf("Expected only the tagged Secret source removed, got %d", len(removed))
		}
		if _, ok := cache.Get("my-secret"); !ok {
			t.Error("ConfigMap source with lookalike name must survive Secret clearing")
		}
	})

	t.Run("remove_category_returns_removed", func(t *testing.T) {
		cache := NewSourceCache()
		cache.Add(makeSource("a", CategoryConfigMap))
		cache.Add(makeSource("b", CategoryConfigMap))

		removed := cache.RemoveCategory(CategoryConfigMap)
		if len(removed) != 2 {
			t.Fatalf("Expected both sources returned, got %d", len(removed))
		}
		if cache.Len() != 0 {
			t.Errorf("Expected empty cache, got %d entries", cache.Len())
		}
	})

	t.Run("concurrent_category_access", func(t *testing.T) {
		cache := NewSourceCache()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				cache.Add(makeSource("app.yml", CategoryConfigMap))
				cache.RemoveCategory(CategoryConfigMap)
			}()
			go func() {
				defer wg.Done()
				cache.Add(makeSource("/etc/secrets-secret", CategorySecret))
				cache.ListCategory(CategorySecret)
			}()
		}
		wg.Wait()
	})
}
