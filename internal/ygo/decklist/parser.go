// Package decklist parses decklist entries and reconciles them with the
// card records fetched for them.
package decklist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

// MaxQuantity bounds the copies a single entry may request.
const MaxQuantity = 99

var (
	// "Dark Magician x3", "Dark Magician x 3"
	suffixQuantity = regexp.MustCompile(`(?i)^(.+?)\s*x\s*(\d+)$`)
	// "3x Dark Magician", "3 x Dark Magician", "3 Dark Magician"
	prefixQuantity = regexp.MustCompile(`(?i)^(\d+)\s*x?\s+(.+)$`)
	quoted         = regexp.MustCompile(`^["'](.*)["']$`)
)

// Entry is one parsed decklist line.
type Entry struct {
	Name     string
	Quantity int
}

// ParseEntry parses "Name xN", "Nx Name" / "N x Name" or a bare name with
// quantity 1, trying the shapes in that order. Surrounding quotes are
// dropped. Empty text and quantities outside 1..MaxQuantity are rejected
// with a *cards.ParseError.
func ParseEntry(text string) (Entry, error) {
	entry := strings.TrimSpace(text)
	entry = strings.TrimSpace(quoted.ReplaceAllString(entry, "$1"))
	if entry == "" {
		return Entry{}, &cards.ParseError{Input: text, Reason: "empty entry"}
	}

	if m := suffixQuantity.FindStringSubmatch(entry); m != nil {
		return newEntry(text, m[1], m[2])
	}
	if m := prefixQuantity.FindStringSubmatch(entry); m != nil {
		return newEntry(text, m[2], m[1])
	}
	return Entry{Name: entry, Quantity: 1}, nil
}

func newEntry(text, name, quantity string) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, &cards.ParseError{Input: text, Reason: "missing card name"}
	}

	n, err := strconv.Atoi(quantity)
	if err != nil || n < 1 || n > MaxQuantity {
		return Entry{}, &cards.ParseError{Input: text, Reason: "quantity must be between 1 and " + strconv.Itoa(MaxQuantity)}
	}
	return Entry{Name: name, Quantity: n}, nil
}

// String formats the entry in the "Name xN" shape.
func (e Entry) String() string {
	return e.Name + " x" + strconv.Itoa(e.Quantity)
}
