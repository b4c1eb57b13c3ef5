package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ariel-frischer/chlog/internal/record"
	"github.com/ariel-frischer/chlog/internal/store"
)

// PendingTable writes pending entries as a fixed-width table with columns
// ID, BUMP, TYPE, CATEGORY, AGE and MESSAGE. Returns the number of rows.
func PendingTable(w io.Writer, entries []store.Entry, now time.Time) int {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No pending changes")
		return 0
	}

	fmt.Fprintf(w, "%-10s %-6s %-8s %-16s %-8s %s\n",
		"ID", "BUMP", "TYPE", "CATEGORY", "AGE", "MESSAGE")
	fmt.Fprintf(w, "%-10s %-6s %-8s %-16s %-8s %s\n",
		"----------", "------", "--------", "----------------", "--------", "----------------------------------------")

	for _, e := range entries {
		fmt.Fprintf(w, "%-10s %-6s %-8s %-16s %-8s %s\n",
			formatID(e.ID),
			truncate(e.Change.VersionType, 6),
			truncate(e.Change.Type, 8),
			truncate(e.Change.Category, 16),
			formatAge(e.ModTime, now),
			formatMessage(e.Change.Message),
		)
	}

	noun := "change"
	if len(entries) != 1 {
		noun = "changes"
	}
	fmt.Fprintf(w, "\n%d pending %s\n", len(entries), noun)

	return len(entries)
}

type pendingLine struct {
	ID       string    `json:"id"`
	Modified time.Time `json:"modified"`
	record.Change
}

// PendingJSONL writes pending entries as line-delimited JSON, one object per
// entry with the change fields plus id and modified.
func PendingJSONL(w io.Writer, entries []store.Entry) error {
	for _, e := range entries {
		data, err := json.Marshal(pendingLine{ID: e.ID, Modified: e.ModTime.UTC(), Change: e.Change})
		if err != nil {
			return fmt.Errorf("failed to marshal pending change to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// ReleaseList writes one version per line, marking current with "*".
func ReleaseList(w io.Writer, releases []record.Release, current record.Release) {
	if len(releases) == 0 {
		fmt.Fprintln(w, "No releases")
		return
	}
	for _, r := range releases {
		marker := " "
		if r.String() == current.String() {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, r.String())
	}
}

// formatID truncates an id to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatMessage keeps the first non-empty line, at most 40 characters.
func formatMessage(msg string) string {
	var first string
	for _, line := range strings.Split(msg, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			first = trimmed
			break
		}
	}
	if first == "" {
		return "-"
	}
	return truncate(first, 40)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// formatAge renders the time since t, like "2m ago".
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
