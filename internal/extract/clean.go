package extract

import (
	"regexp"
	"strings"
)

var (
	pageMarker = regexp.MustCompile(`Page \d+`)
	dotRun     = regexp.MustCompile(`\.{2,}`)
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9\s.,-]`)
	spaceRun   = regexp.MustCompile(`\s+`)
)

// Clean normalizes extracted text the way the analysis service does before
// summarizing: drops "Page N" markers, collapses dot leaders, replaces anything
// outside letters, digits, whitespace and ".,-" with a space, and collapses whitespace.
func Clean(text string) string {
	text = pageMarker.ReplaceAllString(text, "")
	text = dotRun.ReplaceAllString(text, ".")
	text = disallowed.ReplaceAllString(text, " ")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
