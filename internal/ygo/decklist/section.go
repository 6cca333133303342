package decklist

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

// Section names a part of a deck.
type Section string

const (
	Main    Section = "main"
	Extra   Section = "extra"
	Side    Section = "side"
	Upgrade Section = "upgrade"
)

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch sec := Section(strings.ToLower(strings.TrimSpace(s))); sec {
	case Main, Extra, Side, Upgrade:
		return sec, nil
	default:
		return "", fmt.Errorf("unknown deck section %q", s)
	}
}

// Title is the heading shown above the section. Upgrade lists have none.
func (s Section) Title() string {
	switch s {
	case Main:
		return "Main Deck"
	case Extra:
		return "Extra Deck"
	case Side:
		return "Side Deck"
	default:
		return ""
	}
}

// SlotKind tells a renderer what to draw for a slot.
type SlotKind int

const (
	// SlotCard is one copy of a resolved card.
	SlotCard SlotKind = iota
	// SlotMissing marks an entry no card matched.
	SlotMissing
	// SlotInvalid marks an entry that could not be parsed.
	SlotInvalid
)

// Slot is one rendered position in a decklist.
type Slot struct {
	Kind  SlotKind
	Raw   string
	Entry Entry
	Card  *cards.Card

	// Copy is the 1-based copy index for SlotCard.
	Copy int

	// Err is a *cards.ParseError for SlotInvalid or a *cards.NotFoundError
	// for SlotMissing.
	Err error
}

// Names returns the card names to fetch for the raw entries, in order and
// without duplicates. Unparseable entries are skipped.
func Names(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, text := range raw {
		entry, err := ParseEntry(text)
		if err != nil {
			continue
		}
		if _, ok := seen[entry.Name]; ok {
			continue
		}
		seen[entry.Name] = struct{}{}
		names = append(names, entry.Name)
	}
	return names
}

// ResolveSection turns raw entries into render slots: one slot per
// requested copy when a candidate matches, a single SlotMissing when none
// does, and a SlotInvalid for text that does not parse.
func ResolveSection(raw []string, candidates []*cards.Card) []Slot {
	return resolve(raw, nil, candidates)
}

// ResolveFetched is ResolveSection for cards keyed by the name they were
// requested under. A card fetched for an entry's exact name is used as is,
// even when the database returned it under a different spelling; other
// entries fall back to FindBestMatch.
func ResolveFetched(raw []string, fetched map[string]*cards.Card) []Slot {
	candidates := make([]*cards.Card, 0, len(fetched))
	for _, name := range Names(raw) {
		if card, ok := fetched[name]; ok {
			candidates = append(candidates, card)
		}
	}
	return resolve(raw, fetched, candidates)
}

func resolve(raw []string, fetched map[string]*cards.Card, candidates []*cards.Card) []Slot {
	slots := make([]Slot, 0, len(raw))
	for _, text := range raw {
		entry, err := ParseEntry(text)
		if err != nil {
			slots = append(slots, Slot{Kind: SlotInvalid, Raw: text, Err: err})
			continue
		}

		card := fetched[entry.Name]
		if card == nil {
			card = FindBestMatch(entry.Name, candidates)
		}
		if card == nil {
			slots = append(slots, Slot{
				Kind:  SlotMissing,
				Raw:   text,
				Entry: entry,
				Err:   &cards.NotFoundError{Name: entry.Name},
			})
			continue
		}

		for i := 1; i <= entry.Quantity; i++ {
			slots = append(slots, Slot{Kind: SlotCard, Raw: text, Entry: entry, Card: card, Copy: i})
		}
	}
	return slots
}

// Count returns the number of card copies among slots.
func Count(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if s.Kind == SlotCard {
			n++
		}
	}
	return n
}
