// Package output provides terminal output helpers for the chlog CLI.
// It has minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// Printer writes status lines, colored unless Plain is set.
type Printer struct {
	Out   io.Writer
	Plain bool
}

// Success prints a green checkmark line.
func (p Printer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.Plain {
		fmt.Fprintf(p.Out, "✓ %s\n", msg)
		return
	}
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(p.Out, "%s %s\n", green("✓"), cyan(msg))
}

// Warning prints a yellow warning line.
func (p Printer) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.Plain {
		fmt.Fprintf(p.Out, "! %s\n", msg)
		return
	}
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Fprintf(p.Out, "%s %s\n", yellow("!"), msg)
}

// UsePlain reports whether output to w should be plain: either forced, or
// w is not a terminal.
func UsePlain(w io.Writer, forced bool) bool {
	if forced {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return !term.IsTerminal(int(f.Fd()))
}
