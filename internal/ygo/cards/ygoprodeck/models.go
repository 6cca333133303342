package ygoprodeck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

// CardInfoResponse is the envelope returned by /cardinfo.php.
type CardInfoResponse struct {
	Data []APICard `json:"data"`
}

// APICard represents a card in the YGOPRODeck API response format.
type APICard struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	FrameType string `json:"frameType,omitempty"`
	Desc      string `json:"desc"`
	Race      string `json:"race,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Archetype string `json:"archetype,omitempty"`

	ATK     *int `json:"atk,omitempty"`
	DEF     *int `json:"def,omitempty"`
	Level   *int `json:"level,omitempty"`
	Rank    *int `json:"rank,omitempty"`
	LinkVal *int `json:"linkval,omitempty"`

	CardImages []CardImage `json:"card_images"`
	CardPrices []CardPrice `json:"card_prices,omitempty"`
}

// CardImage holds the artwork URLs of a card.
type CardImage struct {
	ID            int    `json:"id"`
	ImageURL      string `json:"image_url"`
	ImageURLSmall string `json:"image_url_small"`
	ImageURLCrop  string `json:"image_url_cropped,omitempty"`
}

// CardPrice holds market prices as decimal strings.
type CardPrice struct {
	CardmarketPrice string `json:"cardmarket_price"`
	TCGPlayerPrice  string `json:"tcgplayer_price"`
	EbayPrice       string `json:"ebay_price,omitempty"`
	AmazonPrice     string `json:"amazon_price,omitempty"`
}

// DBVersion is the response of /checkDBVer.php.
type DBVersion struct {
	Version    string `json:"database_version"`
	LastUpdate string `json:"last_update"`
}

// APIError represents an error body returned by the API.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("YGOPRODeck API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("YGOPRODeck API error (HTTP %d)", e.Status)
}

// NotFoundError represents a query that matched no card.
type NotFoundError struct {
	Query string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no card matching %s", e.Query)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ToCard converts an API card into the shared card record.
func (a *APICard) ToCard() *cards.Card {
	card := &cards.Card{
		ID:          a.ID,
		Name:        strings.TrimSpace(a.Name),
		Type:        a.Type,
		Race:        a.Race,
		Attribute:   a.Attribute,
		ATK:         a.ATK,
		DEF:         a.DEF,
		LinkVal:     a.LinkVal,
		Description: a.Desc,
	}

	// Xyz monsters report their rank in "level" on most responses; fall
	// back to "rank" when only that is present.
	card.Level = a.Level
	if card.Level == nil {
		card.Level = a.Rank
	}

	if len(a.CardImages) > 0 {
		card.SmallImageURL = a.CardImages[0].ImageURLSmall
		card.LargeImageURL = a.CardImages[0].ImageURL
	}

	if len(a.CardPrices) > 0 {
		card.Prices.TCGPlayer = parsePrice(a.CardPrices[0].TCGPlayerPrice)
		card.Prices.Cardmarket = parsePrice(a.CardPrices[0].CardmarketPrice)
	}

	return card
}

func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
