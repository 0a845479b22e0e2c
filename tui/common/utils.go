package common

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Truncate cuts s to width terminal cells, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// OneLine collapses s onto a single line for previews.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Plural formats n with the singular or plural noun.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
