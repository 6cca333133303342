package cards

import (
	"regexp"
	"strings"
)

var (
	nonNameChars = regexp.MustCompile(`[^\w\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a card name for comparison and cache keys.
// It lowercases, removes everything but word characters, whitespace and
// hyphens, collapses whitespace runs and trims. The result is stable:
// NormalizeName(NormalizeName(s)) == NormalizeName(s).
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = nonNameChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
