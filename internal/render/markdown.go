// Package render turns changes and releases into human-readable output:
// a Keep a Changelog markdown document, colored terminal listings, and
// table or JSONL views of the pending pool.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/chlog/internal/record"
)

// Section titles in the order they are rendered.
const (
	SectionAdded   = "Added"
	SectionChanged = "Changed"
	SectionRemoved = "Removed"
	SectionFixed   = "Fixed"
	SectionOther   = "Other"
)

var sectionOrder = []string{SectionAdded, SectionChanged, SectionRemoved, SectionFixed, SectionOther}

var kindSections = map[string]string{
	record.KindNew:     SectionAdded,
	record.KindChange:  SectionChanged,
	record.KindRemoved: SectionRemoved,
	record.KindFix:     SectionFixed,
}

// SectionTitle returns the section a change type is listed under. Types
// outside the default vocabulary land in Other.
func SectionTitle(kind string) string {
	if title, ok := kindSections[strings.ToLower(strings.TrimSpace(kind))]; ok {
		return title
	}
	return SectionOther
}

// Section is a titled group of changes.
type Section struct {
	Title   string
	Changes []record.Change
}

// GroupBySection groups changes by section title, keeping their relative
// order. Empty sections are omitted.
func GroupBySection(changes []record.Change) []Section {
	grouped := make(map[string][]record.Change)
	for _, c := range changes {
		title := SectionTitle(c.Type)
		grouped[title] = append(grouped[title], c)
	}

	var sections []Section
	for _, title := range sectionOrder {
		if entries, ok := grouped[title]; ok {
			sections = append(sections, Section{Title: title, Changes: entries})
		}
	}
	return sections
}

// Document is everything rendered into a changelog file.
type Document struct {
	// Project names the project in the header. Empty omits the sentence.
	Project string
	// Unreleased, when non-empty, renders an [Unreleased] section first.
	Unreleased []record.Change
	// Releases are rendered in the given order, normally newest first.
	Releases []record.Release
}

// Markdown writes doc as a Keep a Changelog document
// (https://keepachangelog.com/en/1.1.0/). Output is deterministic for a
// given document.
func Markdown(w io.Writer, doc Document) error {
	if err := renderHeader(doc.Project, w); err != nil {
		return fmt.Errorf("rendering header: %w", err)
	}

	if len(doc.Unreleased) > 0 {
		if err := renderVersion("## [Unreleased]", doc.Unreleased, w); err != nil {
			return fmt.Errorf("rendering unreleased: %w", err)
		}
	}

	for _, r := range doc.Releases {
		if err := renderVersion(fmt.Sprintf("## [%s]", r.String()), r.Changes, w); err != nil {
			return fmt.Errorf("rendering version %s: %w", r.String(), err)
		}
	}

	return nil
}

// MarkdownString is a convenience function that renders to a string.
func MarkdownString(doc Document) (string, error) {
	var b strings.Builder
	if err := Markdown(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderHeader(project string, w io.Writer) error {
	header := "# Changelog\n\n"
	if project != "" {
		header += "All notable changes to " + project + " will be documented in this file.\n\n"
	}
	header += "The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.1.0/).\n"
	_, err := io.WriteString(w, header)
	return err
}

func renderVersion(heading string, changes []record.Change, w io.Writer) error {
	if _, err := io.WriteString(w, "\n"+heading+"\n"); err != nil {
		return err
	}
	for _, s := range GroupBySection(changes) {
		if err := renderSection(s, w); err != nil {
			return err
		}
	}
	return nil
}

func renderSection(s Section, w io.Writer) error {
	if _, err := io.WriteString(w, "\n### "+s.Title+"\n"); err != nil {
		return err
	}
	for _, c := range s.Changes {
		if _, err := io.WriteString(w, "- "+entryText(c)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// entryText is the markdown line body of a change. Embedded newlines are
// folded so one change stays one list item.
func entryText(c record.Change) string {
	msg := strings.Join(strings.Fields(c.Message), " ")
	return fmt.Sprintf("**%s**: %s", c.Category, msg)
}
