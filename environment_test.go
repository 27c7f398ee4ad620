// environment_test.go: Testing the layered configuration store and refresh bus
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import "testing"

func sourceWithEntry(name string, priority int, key, value string) *PropertySource {
	return NewPropertySource(name, CategoryConfigMap, priority, []MountEntry{{Key: key, Value: value}})
}

func TestEnvironment(t *testing.T) {
	t.Run("refresh_resolves_by_priority", func(t *testing.T) {
		env := NewEnvironment()
		env.AddPropertySource(sourceWithEntry("low", 100, "key", "low-value"))
		env.AddPropertySource(sourceWithEntry("high", 250, "key", "high-value"))
		env.Refresh()

		if v, _ := env.Get("key"); v != "high-value" {
			t.Errorf("Expected higher priority to win, got %q", v)
		}
	})

	t.Run("equal_priority_later_source_wins", func(t *testing.T) {
		env := NewEnvironment()
		env.AddPropertySource(sourceWithEntry("first", 200, "key", "first"))
		env.AddPropertySource(sourceWithEntry("second", 200, "key", "second"))
		env.Refresh()

		if v, _ := env.Get("key"); v != "second" {
			t.Errorf("Expected later source to win at equal priority, got %q", v)
		}
	})

	t.Run("add_replaces_same_name", func(t *testing.T) {
		env := NewEnvironment()
		env.AddPropertySource(sourceWithEntry("app", 200, "key", "old"))
		env.AddPropertySource(sourceWithEntry("app", 200, "key", "new"))
		env.Refresh()

		if len(env.GetPropertySources()) != 1 {
			t.Fatalf("Expected replacement, got %d sources", len(env.GetPropertySources()))
		}
		if v, _ := env.Get("key"); v != "new" {
			t.Errorf("Expected replaced value, got %q", v)
		}
	})

	t.Run("remove_then_refresh_drops_keys", func(t *testing.T) {
		env := NewEnvironment()
		env.AddPropertySource(sourceWithEntry("app", 200, "key", "value"))
		env.Refresh()

		env.RemovePropertySource("app")
		if _, ok := env.Get("key"); !ok {
			t.Error("Effective view must not change before Refresh")
		}

		env.Refresh()
		if _, ok := env.Get("key"); ok {
			t.Error("Expected key gone after remove + refresh")
		}
	})

	t.Run("remove_unknown_is_noop", func(t *testing.T) {
		env := NewEnvironment()
		env.RemovePropertySource("absent")
		if len(env.GetPropertySources()) != 0 {
			t.Error("Expected store to stay empty")
		}
	})

	t.Run("keys_sorted", func(t *testing.T) {
		env := NewEnvironment()
		env.AddPropertySource(sourceWithEntry("b", 200, "b-key", "1"))
		env.AddPropertySource(sourceWithEntry("a", 200, "a-key", "2"))
		env.Refresh()

		keys := env.Keys()
		if len(keys) != 2 || keys[0] != "a-key" || keys[1] != "b-key" {
			t.Errorf("Expected sorted keys, got %v", keys)
		}
	})
}

func TestRefreshBus(t *testing.T) {
	t.Run("publish_invokes_subscribers_in_order", func(t *testing.T) {
		bus := NewRefreshBus()

		var order []int
		bus.Subscribe(func() { order = append(order, 1) })
		bus.Subscribe(func() { order = append(order, 2) })

		bus.PublishRefresh()
		bus.PublishRefresh()

		if len(order) != 4 || order[0] != 1 || order[1] != 2 {
			t.Errorf("Unexpected invocation order: %v", order)
		}
	})

	t.Run("publish_without_subscribers", func(t *testing.T) {
		NewRefreshBus().PublishRefresh()
		// Test passes if no panic occurs
	})
}
