// Package cards defines the card record shared by the lookup, cache and
// rendering layers, together with name normalization and the error kinds
// produced while resolving cards.
package cards

import "strings"

// Card represents the metadata of a single Yu-Gi-Oh! card as served by the
// card database. Records are immutable once fetched.
type Card struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// Type is the full card type, e.g. "Effect Monster", "Spell Card".
	Type string `json:"type"`

	// Race is the monster typing ("Spellcaster") or the spell/trap
	// property ("Continuous").
	Race      string `json:"race,omitempty"`
	Attribute string `json:"attribute,omitempty"`

	// Level holds the level or rank of a monster.
	Level   *int `json:"level,omitempty"`
	ATK     *int `json:"atk,omitempty"`
	DEF     *int `json:"def,omitempty"`
	LinkVal *int `json:"linkval,omitempty"`

	Description string `json:"desc"`

	SmallImageURL string `json:"img_small"`
	LargeImageURL string `json:"img_large"`

	Prices Prices `json:"prices"`
}

// Prices holds the market prices of a card in USD (TCGplayer) and EUR
// (Cardmarket). Missing prices are nil.
type Prices struct {
	TCGPlayer  *float64 `json:"tcg,omitempty"`
	Cardmarket *float64 `json:"cardmarket,omitempty"`
}

// Complete reports whether the record carries full metadata rather than a
// placeholder. Only complete records are served from the cache.
func (c *Card) Complete() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.Name) != "" &&
		c.Type != "" &&
		c.SmallImageURL != "" &&
		c.LargeImageURL != ""
}

// IsMonster reports whether the card is a monster card.
func (c *Card) IsMonster() bool {
	return strings.Contains(c.Type, "Monster")
}

// IsSpell reports whether the card is a spell card.
func (c *Card) IsSpell() bool {
	return strings.Contains(c.Type, "Spell")
}

// IsTrap reports whether the card is a trap card.
func (c *Card) IsTrap() bool {
	return strings.Contains(c.Type, "Trap")
}

// IsLink reports whether the card is a link monster.
func (c *Card) IsLink() bool {
	return c.LinkVal != nil
}
