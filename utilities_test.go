// utilities_test.go: End-to-end test of the wired reload stack
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRuntime(t *testing.T) {
	dir := t.TempDir()
	swapSnapshot(t, dir, "v1", map[string]string{"log-level": "info"})

	var refreshes atomic.Int64
	rt, err := NewRuntime(Config{
		ConfigMaps:   CategoryConfig{Enabled: true, Paths: []string{dir}},
		PollInterval: 30 * time.Millisecond,
		CacheTTL:     5 * time.Millisecond,
	}, func() { refreshes.Add(1) })
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	defer func() { _ = rt.Stop() }()

	// The initial reload runs before the watcher starts.
	if v, _ := rt.Environment.Get("log-level"); v != "info" {
		t.Fatalf("Expected initial content loaded, got %q", v)
	}
	if refreshes.Load() == 0 {
		t.Error("Expected refresh notifications from the initial reload")
	}
	if !rt.Watcher.IsRunning() {
		t.Error("Expected the mount watcher running")
	}

	// Let the watcher prime its baseline before swapping.
	time.Sleep(100 * time.Millisecond)

	// A kubelet-style snapshot swap must propagate to the effective view.
	swapSnapshot(t, dir, "v2", map[string]string{"log-level": "debug"})

	if !waitFor(t, 2*time.Second, func() bool {
		v, _ := rt.Environment.Get("log-level")
		return v == "debug"
	}) {
		v, _ := rt.Environment.Get("log-level")
		t.Fatalf("Expected swap to propagate, effective value still %q", v)
	}
}

func TestMountedVolumeReloader(t *testing.T) {
	mountDir := t.TempDir()
	writeMountFile(t, mountDir, "feature", "on")

	configPath := filepath.Join(t.TempDir(), "vesta.yml")
	content := "config-maps:\n  enabled: true\n  paths:\n    - " + mountDir + "\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}

	rt, err := MountedVolumeReloader(configPath, nil)
	if err != nil {
		t.Fatalf("MountedVolumeReloader failed: %v", err)
	}
	defer func() { _ = rt.Stop() }()

	if v, _ := rt.Environment.Get("feature"); v != "on" {
		t.Errorf("Expected initial content loaded, got %q", v)
	}
}

func TestMountedVolumeReloaderBadConfig(t *testing.T) {
	if _, err := MountedVolumeReloader(filepath.Join(t.TempDir(), "absent.yml"), nil); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestRuntimeStop(t *testing.T) {
	rt, err := NewRuntime(Config{
		ConfigMaps:   CategoryConfig{Enabled: true, Paths: []string{t.TempDir()}},
		PollInterval: 30 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}

	if err := rt.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if rt.Watcher.IsRunning() {
		t.Error("Expected the watcher stopped")
	}
}
