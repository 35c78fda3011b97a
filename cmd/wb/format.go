package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/ledger"
)

// defaultWidth is used when stdout is not a terminal.
const defaultWidth = 100

// terminalWidth returns the usable output width.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// renderBoard prints the board one column per section, tasks indented.
func renderBoard(out io.Writer, b board.Status) {
	width := terminalWidth()

	fmt.Fprintf(out, "%s / migration %s\n", b.FeatureName, b.MigrationID)
	fmt.Fprintln(out, strings.Repeat("=", min(width, 60)))

	for _, col := range b.Columns {
		header := fmt.Sprintf("%s (%d)", col.Name, len(col.Tasks))
		if col.WIPLimit > 0 {
			header = fmt.Sprintf("%s (%d/%d)", col.Name, len(col.Tasks), col.WIPLimit)
		}
		fmt.Fprintln(out, header)

		if len(col.Tasks) == 0 {
			fmt.Fprintln(out, "  -")
			continue
		}
		for _, t := range col.Tasks {
			desc := ledger.DisplayDescription(t.Description)
			line := fmt.Sprintf("  %s  %s", t.ID, desc)
			if t.Story != "" {
				line += "  [" + t.Story + "]"
			}
			fmt.Fprintln(out, truncate(line, width))
		}
	}
}

// truncate shortens a line to the given width with an ellipsis.
func truncate(s string, width int) string {
	if width < 8 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
