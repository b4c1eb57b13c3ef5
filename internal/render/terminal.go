package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ariel-frischer/chlog/internal/output"
	"github.com/ariel-frischer/chlog/internal/record"
)

// SectionStyle defines the color and icon for a changelog section.
type SectionStyle struct {
	Color *color.Color
	Icon  string
}

var sectionStyles = map[string]SectionStyle{
	SectionAdded:   {Color: color.New(color.FgGreen), Icon: "✓"},
	SectionChanged: {Color: color.New(color.FgBlue), Icon: "~"},
	SectionRemoved: {Color: color.New(color.FgRed), Icon: "✗"},
	SectionFixed:   {Color: color.New(color.FgYellow), Icon: "⚡"},
	SectionOther:   {Color: color.New(color.FgCyan), Icon: "•"},
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// Terminal writes changes under a version heading, grouped by section with
// color-coded headers.
func Terminal(w io.Writer, heading string, changes []record.Change, opts FormatOptions) error {
	if err := writeHeading(heading, w, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if len(changes) == 0 {
		_, err := io.WriteString(w, "  (no changes)\n")
		return err
	}

	width := resolveWidth(opts.MaxWidth)
	for _, s := range GroupBySection(changes) {
		if err := writeSection(s, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseHeading is the terminal heading of a release.
func ReleaseHeading(r record.Release) string {
	return "v" + r.String()
}

func writeHeading(heading string, w io.Writer, opts FormatOptions) error {
	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s\n", heading)
		return err
	}
	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "## %s\n", bold(heading))
	return err
}

func writeSection(s Section, w io.Writer, opts FormatOptions, width int) error {
	style := sectionStyles[s.Title]

	if opts.Plain {
		if _, err := fmt.Fprintf(w, "\n### %s\n", s.Title); err != nil {
			return err
		}
	} else {
		colored := style.Color.SprintFunc()
		if _, err := fmt.Fprintf(w, "\n%s %s\n", colored(style.Icon), colored(s.Title)); err != nil {
			return err
		}
	}

	for _, c := range s.Changes {
		if err := writeEntry(c, style, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(c record.Change, style SectionStyle, w io.Writer, opts FormatOptions, width int) error {
	prefix := "  - "
	label := "[" + c.Category + "] "
	text := strings.Join(strings.Fields(c.Message), " ")

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s%s%s\n", prefix, label, text)
		return err
	}

	wrapped := wrapText(label+text, width-len(prefix), "    ")
	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, colored(wrapped))
	return err
}

func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	return output.GetTerminalWidth()
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}
