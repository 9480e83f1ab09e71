// Package board renders a plan's blackboard index for the CLI.
package board

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// FormatTable writes blackboard index entries as a fixed-width table, sorted
// by key. Returns the number of entries formatted.
func FormatTable(w io.Writer, entries map[string]string, planID string) int {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No blackboard entries found for plan '%s'\n", planID)
		return 0
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "Blackboard for plan '%s':\n\n", planID)
	fmt.Fprintf(w, "%-60s %s\n", "KEY", "DESCRIPTION")
	fmt.Fprintf(w, "%-60s %s\n",
		"------------------------------------------------------------",
		"----------------------------------------")

	for _, key := range keys {
		fmt.Fprintf(w, "%-60s %s\n", truncate(key, 60), truncate(entries[key], 80))
	}

	countMsg := "entry"
	if len(entries) != 1 {
		countMsg = "entries"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(entries), countMsg)

	return len(entries)
}

// FormatJSON writes the blackboard index as pretty-printed JSON.
func FormatJSON(w io.Writer, entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal blackboard to JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
