package decklist

import (
	"strings"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

// FindBestMatch returns the candidate whose normalized name equals the
// normalized search name. Failing that, among candidates whose normalized
// name contains the search term or is contained in it, it returns the one
// whose length is closest to the search term's; the first one wins ties.
// It returns nil when nothing qualifies.
func FindBestMatch(search string, candidates []*cards.Card) *cards.Card {
	needle := cards.NormalizeName(search)
	if needle == "" {
		return nil
	}

	for _, c := range candidates {
		if c != nil && cards.NormalizeName(c.Name) == needle {
			return c
		}
	}

	var best *cards.Card
	bestDiff := -1
	for _, c := range candidates {
		if c == nil {
			continue
		}
		name := cards.NormalizeName(c.Name)
		if name == "" || !(strings.Contains(name, needle) || strings.Contains(needle, name)) {
			continue
		}

		diff := len(name) - len(needle)
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = c, diff
		}
	}
	return best
}
