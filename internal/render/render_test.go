package render

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/chlog/internal/record"
	"github.com/ariel-frischer/chlog/internal/store"
)

func change(kind, category, message string) record.Change {
	return record.Change{VersionType: "minor", Category: category, Type: kind, Message: message}
}

func TestSectionTitle(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		kind string
		want string
	}{
		"new":        {kind: "new", want: SectionAdded},
		"change":     {kind: "change", want: SectionChanged},
		"removed":    {kind: "removed", want: SectionRemoved},
		"fix":        {kind: "fix", want: SectionFixed},
		"mixed case": {kind: " Fix ", want: SectionFixed},
		"unknown":    {kind: "security", want: SectionOther},
		"empty":      {kind: "", want: SectionOther},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SectionTitle(tt.kind))
		})
	}
}

func TestGroupBySection(t *testing.T) {
	t.Parallel()

	changes := []record.Change{
		change("fix", "Application", "crash on start"),
		change("new", "Application", "dark mode"),
		change("perf", "Application", "faster load"),
		change("new", "Content", "new article"),
	}

	got := GroupBySection(changes)
	require.Len(t, got, 3)
	assert.Equal(t, SectionAdded, got[0].Title)
	assert.Equal(t, []record.Change{changes[1], changes[3]}, got[0].Changes)
	assert.Equal(t, SectionFixed, got[1].Title)
	assert.Equal(t, SectionOther, got[2].Title)
}

func TestMarkdownString(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc         Document
		contains    []string
		notContains []string
	}{
		"releases newest first": {
			doc: Document{
				Project: "chlog",
				Releases: []record.Release{
					{Major: 1, Minor: 3, Patch: "0", Changes: []record.Change{change("new", "Application", "dark mode")}},
					{Major: 1, Minor: 2, Patch: "4", Changes: []record.Change{change("fix", "Content", "typo")}},
				},
			},
			contains: []string{
				"# Changelog",
				"All notable changes to chlog",
				"## [1.3.0]\n\n### Added\n- **Application**: dark mode\n",
				"## [1.2.4]\n\n### Fixed\n- **Content**: typo\n",
			},
			notContains: []string{"[Unreleased]"},
		},
		"unreleased section": {
			doc: Document{
				Unreleased: []record.Change{change("removed", "Application", "old flag")},
			},
			contains:    []string{"## [Unreleased]\n\n### Removed\n- **Application**: old flag\n"},
			notContains: []string{"All notable changes"},
		},
		"empty release keeps heading": {
			doc: Document{
				Releases: []record.Release{{Major: 0, Minor: 1, Patch: ""}},
			},
			contains:    []string{"## [0.1.]\n"},
			notContains: []string{"###"},
		},
		"multiline message folded": {
			doc: Document{
				Releases: []record.Release{
					{Major: 1, Changes: []record.Change{change("change", "Docs", "line one\n  line two")}},
				},
			},
			contains: []string{"- **Docs**: line one line two\n"},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := MarkdownString(tt.doc)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestMarkdown_Deterministic(t *testing.T) {
	t.Parallel()

	doc := Document{
		Project:    "chlog",
		Unreleased: []record.Change{change("fix", "A", "one")},
		Releases:   []record.Release{{Major: 1, Changes: []record.Change{change("new", "B", "two")}}},
	}

	first, err := MarkdownString(doc)
	require.NoError(t, err)
	second, err := MarkdownString(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTerminal_Plain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := record.Release{Major: 1, Minor: 2, Patch: "4"}
	err := Terminal(&buf, ReleaseHeading(r), []record.Change{
		change("fix", "Content", "typo"),
		change("new", "Application", "dark mode"),
	}, FormatOptions{Plain: true})
	require.NoError(t, err)

	assert.Equal(t,
		"## v1.2.4\n\n### Added\n  - [Application] dark mode\n\n### Fixed\n  - [Content] typo\n",
		buf.String())
}

func TestTerminal_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, "Unreleased", nil, FormatOptions{Plain: true}))
	assert.Equal(t, "## Unreleased\n  (no changes)\n", buf.String())
}

func TestWrapText(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		text     string
		maxWidth int
		want     string
	}{
		"fits":         {text: "short text", maxWidth: 20, want: "short text"},
		"wraps":        {text: "one two three four", maxWidth: 9, want: "one two\n  three\n  four"},
		"no width":     {text: "anything goes", maxWidth: 0, want: "anything goes"},
		"long no gaps": {text: "abcdefghij", maxWidth: 4, want: "abcd\n  efgh\n  ij"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, wrapText(tt.text, tt.maxWidth, "  "))
		})
	}
}

func TestPendingTable(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []store.Entry{
		{
			ID:      "3f2c1a9e-0000-4000-8000-000000000000",
			ModTime: now.Add(-5 * time.Minute),
			Change:  change("new", "Application", "dark mode\nsecond line"),
		},
		{
			ID:      "short",
			ModTime: now.Add(-49 * time.Hour),
			Change:  change("fix", "NAV-Content-Extra-Long", strings.Repeat("x", 60)),
		},
	}

	var buf bytes.Buffer
	n := PendingTable(&buf, entries, now)
	assert.Equal(t, 2, n)

	out := buf.String()
	assert.Contains(t, out, "ID         BUMP   TYPE     CATEGORY         AGE      MESSAGE")
	assert.Contains(t, out, "3f2c1a9e ")
	assert.Contains(t, out, "5m ago")
	assert.Contains(t, out, "2d ago")
	assert.Contains(t, out, "dark mode\n")
	assert.NotContains(t, out, "second line")
	assert.Contains(t, out, "NAV-Content-E...")
	assert.Contains(t, out, strings.Repeat("x", 37)+"...")
	assert.Contains(t, out, "2 pending changes")
}

func TestPendingTable_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Equal(t, 0, PendingTable(&buf, nil, time.Now()))
	assert.Equal(t, "No pending changes\n", buf.String())
}

func TestPendingJSONL(t *testing.T) {
	t.Parallel()

	mod := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []store.Entry{
		{ID: "a", ModTime: mod, Change: change("new", "Application", "one")},
		{ID: "b", ModTime: mod, Change: change("fix", "Content", "two")},
	}

	var buf bytes.Buffer
	require.NoError(t, PendingJSONL(&buf, entries))

	scanner := bufio.NewScanner(&buf)
	var lines []map[string]any
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0]["id"])
	assert.Equal(t, "minor", lines[0]["version_type"])
	assert.Equal(t, "Application", lines[0]["category"])
	assert.Equal(t, "new", lines[0]["type"])
	assert.Equal(t, "one", lines[0]["message"])
	assert.Equal(t, "2026-03-01T12:00:00Z", lines[0]["modified"])
}

func TestReleaseList(t *testing.T) {
	t.Parallel()

	releases := []record.Release{{Major: 1, Patch: "0"}, {Major: 1, Minor: 1, Patch: "0"}}

	var buf bytes.Buffer
	ReleaseList(&buf, releases, releases[1])
	assert.Equal(t, "  1.0.0\n* 1.1.0\n", buf.String())

	buf.Reset()
	ReleaseList(&buf, nil, record.Release{})
	assert.Equal(t, "No releases\n", buf.String())
}

func TestFormatAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "-", formatAge(time.Time{}, now))
	assert.Equal(t, "30s ago", formatAge(now.Add(-30*time.Second), now))
	assert.Equal(t, "3h ago", formatAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "0s ago", formatAge(now.Add(time.Minute), now))
}
