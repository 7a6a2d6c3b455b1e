package table

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// applyViewport extracts a horizontal slice of a styled string: the cells
// from visual column startX spanning width columns, padded with spaces
// when the line is shorter. Escape sequences are carried through.
func applyViewport(s string, startX, width int) string {
	if width <= 0 {
		return ""
	}
	if startX < 0 {
		startX = 0
	}

	out := ansi.Cut(s, startX, startX+width)
	if n := ansi.StringWidth(out); n < width {
		out += strings.Repeat(" ", width-n)
	}
	return out
}

// stripStyles removes escape sequences, leaving the visible text.
func stripStyles(s string) string {
	return ansi.Strip(s)
}
