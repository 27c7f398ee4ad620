// Utility functions for the Vesta CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/agilira/vesta"
)

// parseCategory maps a --category flag value to a mount category.
func parseCategory(raw string) (vesta.Category, error) {
	switch strings.ToLower(raw) {
	case "config-map", "configmap", "config-maps":
		return vesta.CategoryConfigMap, nil
	case "secret", "secrets":
		return vesta.CategorySecret, nil
	default:
		return vesta.CategoryConfigMap, errors.New(vesta.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown category %q (expected config-map or secret)", raw))
	}
}

// printSources renders property sources in scan output form.
func printSources(sources []*vesta.PropertySource, withValues bool) {
	fmt.Printf("%d property source(s)\n", len(sources))
	for _, ps := range sources {
		fmt.Printf("- %s (category=%s priority=%d entries=%d)\n",
			ps.Name(), ps.Category(), ps.Priority(), ps.Len())
		for _, key := range ps.Keys() {
			if withValues {
				value, _ := ps.Get(key)
				fmt.Printf("    %s=%s\n", key, truncate(value, 80))
			} else {
				fmt.Printf("    %s\n", key)
			}
		}
	}
}

// printCategory renders one category policy line for the info command.
func printCategory(name string, policy vesta.CategoryConfig) {
	state := "disabled"
	if policy.Enabled && len(policy.Paths) > 0 {
		state = "enabled"
	} else if policy.Enabled {
		state = "enabled (no paths, effectively disabled)"
	}
	fmt.Printf("%-15s %s", name+":", state)
	if len(policy.Paths) > 0 {
		fmt.Printf(" %s", strings.Join(policy.Paths, ", "))
	}
	fmt.Println()
}

// truncate shortens long values for terminal output, normalizing newlines.
func truncate(value string, max int) string {
	value = strings.ReplaceAll(value, "\n", "\\n")
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
