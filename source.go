// source.go: Mounted-volume directory reader for Vesta
//
// Reads the flat file layout the kubelet produces for ConfigMap and Secret
// volume mounts: one file per key at the mount root, with the stable entries
// symlinked through a versioned snapshot directory (`..data`). Reading always
// follows symlinks so an atomic snapshot swap is observed as new content.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package vesta

import (
	"os"
	"path/filepath"

	"github.com/agilira/go-errors"
)

// MountEntry is one file of a mounted volume: the filename as configuration
// key and the decoded text content as value.
type MountEntry struct {
	Key   string
	Value string
}

// ReadMountDirectory lists the direct children of path and loads every
// non-directory entry as a MountEntry, in lexical filename order.
//
// Symbolic links are dereferenced transparently, both when path itself is a
// symlink and for the per-key symlinks the kubelet creates into the current
// `..data` snapshot. Entries that resolve to directories are skipped; the
// kubelet's hidden snapshot directories fall out naturally this way.
//
// Any failure to open the directory or read a file returns a coded error and
// no entries: the caller treats the whole path as unreadable for this cycle
// and continues with its remaining paths.
func ReadMountDirectory(path string) ([]MountEntry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeUnreadablePath, "failed to read mounted volume directory").
			WithContext("path", path)
	}

	entries := make([]MountEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entryPath := filepath.Join(path, de.Name())

		// de.IsDir() reports the link itself for symlinked entries;
		// os.Stat follows the link to the real target.
		info, err := os.Stat(entryPath)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeUnreadablePath, "failed to stat mounted volume entry").
				WithContext("path", entryPath)
		}
		if info.IsDir() {
			continue
		}

		data, err := os.ReadFile(entryPath) // #nosec G304 -- mount paths are operator-configured
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeUnreadablePath, "failed to read mounted volume entry").
				WithContext("path", entryPath)
		}

		entries = append(entries, MountEntry{Key: de.Name(), Value: string(data)})
	}

	return entries, nil
}
