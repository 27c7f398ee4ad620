// doc.go: Package documentation for Vesta
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package vesta synchronizes a running process's configuration with the
// contents of Kubernetes-style mounted ConfigMap and Secret volumes.
//
// # Overview
//
// An orchestrator mounts ConfigMaps and Secrets as flat directories: one file
// per key, with the stable entries symlinked through a versioned snapshot
// directory (".." + "data") whose target is swapped atomically on update.
// Vesta watches those mounts and, on every swap, reconciles the process's
// live configuration:
//
//   - every property source previously derived from the changed category is
//     removed from the live store and the registered-source cache
//   - the configured mount paths are re-scanned into fresh property sources
//   - each fresh source is installed, the store refreshed, and a
//     "configuration refreshed" notification published
//
// The full delete-then-rebuild runs on every event regardless of what
// actually changed; idempotence makes the simple strategy correct, and the
// cache is what keeps deletions honest: once a directory is gone the
// filesystem no longer shows which sources came from it, but the cache does.
//
// ConfigMap mounts yield one single-entry property source per file, so
// individual keys stay addressable; Secret mounts aggregate into one source
// per mount path, named with the "-secret" suffix and ranked above
// environment-derived sources by a fixed priority offset.
//
// # Usage
//
//	rt, err := vesta.MountedVolumeReloader("vesta.yml", func() {
//	    // configuration refreshed
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Stop()
//
//	value, ok := rt.Environment.Get("application.yml")
//
// Applications embedding their own store implement PropertySourceStore and
// drive the Reloader directly:
//
//	reloader := vesta.NewReloader(cfg, store)
//	reloader.OnChange(vesta.ChangeEvent{Category: vesta.CategoryConfigMap})
//
// # Concurrency
//
// Events for one category are processed strictly sequentially; ConfigMap and
// Secret processing is independent and may run concurrently since the
// categories touch disjoint source names. Each install-and-refresh is its own
// small transaction, so observers see configuration grow monotonically during
// a rebuild and must tolerate transiently incomplete state.
package vesta
