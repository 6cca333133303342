package cards

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dark Magician", "dark magician"},
		{"  Blue-Eyes   White Dragon ", "blue-eyes white dragon"},
		{"Pot of Greed!", "pot of greed"},
		{"Elemental HERO Neos (Alt Art)", "elemental hero neos alt art"},
		{"Ash Blossom & Joyous Spring", "ash blossom joyous spring"},
		{"D.D. Crow", "dd crow"},
		{"", ""},
		{"\t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"Dark Magician",
		"Number 39: Utopia",
		"  Red-Eyes  B. Dragon  ",
		"Ghost Ogre & Snow Rabbit",
		"İstanbul ‘quoted’ name",
		"Crusadia_Arboria",
		"--",
	}

	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestCard_Complete(t *testing.T) {
	full := &Card{
		Name:          "Dark Magician",
		Type:          "Normal Monster",
		SmallImageURL: "https://images.example/small/46986414.jpg",
		LargeImageURL: "https://images.example/46986414.jpg",
	}
	assert.True(t, full.Complete())

	partial := *full
	partial.LargeImageURL = ""
	assert.False(t, partial.Complete())

	var missing *Card
	assert.False(t, missing.Complete())
}

func TestErrorPredicates(t *testing.T) {
	wrapped := fmt.Errorf("batch: %w", &TransportError{Op: "lookup", Err: errors.New("connection refused")})

	assert.True(t, IsTransport(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(&NotFoundError{Name: "Mirror Force"}))
	assert.True(t, IsTimeout(fmt.Errorf("x: %w", &TimeoutError{Name: "Mirror Force"})))
	assert.True(t, IsParse(&ParseError{Reason: "empty entry"}))
	assert.Contains(t, wrapped.Error(), "connection refused")
}
