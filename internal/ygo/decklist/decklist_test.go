package decklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		in   string
		want Entry
	}{
		{"Dark Magician x3", Entry{Name: "Dark Magician", Quantity: 3}},
		{"3x Blue-Eyes White Dragon", Entry{Name: "Blue-Eyes White Dragon", Quantity: 3}},
		{"Mirror Force", Entry{Name: "Mirror Force", Quantity: 1}},
		{"Dark Magician X 2", Entry{Name: "Dark Magician", Quantity: 2}},
		{"2 x Pot of Greed", Entry{Name: "Pot of Greed", Quantity: 2}},
		{"2 Pot of Greed", Entry{Name: "Pot of Greed", Quantity: 2}},
		{"  \"Raigeki\"  ", Entry{Name: "Raigeki", Quantity: 1}},
		{"Number 39: Utopia x1", Entry{Name: "Number 39: Utopia", Quantity: 1}},
		// Suffix form wins when both shapes match.
		{"2x Dark Magician x3", Entry{Name: "2x Dark Magician", Quantity: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntry(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntry_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "''", "Dark Magician x0", "0x Dark Magician", "Dark Magician x100"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseEntry(in)
			require.Error(t, err)
			assert.True(t, cards.IsParse(err))
		})
	}
}

func TestEntry_String(t *testing.T) {
	assert.Equal(t, "Dark Magician x3", Entry{Name: "Dark Magician", Quantity: 3}.String())
}

func named(names ...string) []*cards.Card {
	out := make([]*cards.Card, len(names))
	for i, name := range names {
		out[i] = &cards.Card{ID: i + 1, Name: name}
	}
	return out
}

func TestFindBestMatch(t *testing.T) {
	candidates := named("Dark Magician Girl", "Dark Magician", "Magician of Black Chaos")

	got := FindBestMatch("dark magician", candidates)
	require.NotNil(t, got)
	assert.Equal(t, "Dark Magician", got.Name)

	got = FindBestMatch("Dark Magician Girl!", candidates)
	require.NotNil(t, got)
	assert.Equal(t, "Dark Magician Girl", got.Name)
}

func TestFindBestMatch_ClosestLength(t *testing.T) {
	candidates := named("Blue-Eyes Ultimate Dragon", "Blue-Eyes White Dragon", "Blue-Eyes Alternative White Dragon")

	got := FindBestMatch("blue-eyes", candidates)
	require.NotNil(t, got)
	assert.Equal(t, "Blue-Eyes White Dragon", got.Name)

	// Search term containing the candidate.
	got = FindBestMatch("Raigeki Break", named("Raigeki"))
	require.NotNil(t, got)
	assert.Equal(t, "Raigeki", got.Name)
}

func TestFindBestMatch_TieKeepsFirst(t *testing.T) {
	got := FindBestMatch("hero", named("Hero Abc", "Hero Xyz"))
	require.NotNil(t, got)
	assert.Equal(t, "Hero Abc", got.Name)
}

func TestFindBestMatch_None(t *testing.T) {
	assert.Nil(t, FindBestMatch("Mirror Force", named("Dark Magician")))
	assert.Nil(t, FindBestMatch("", named("Dark Magician")))
	assert.Nil(t, FindBestMatch("Dark Magician", nil))
	assert.Nil(t, FindBestMatch("Dark Magician", []*cards.Card{nil}))
}

func TestResolveSection(t *testing.T) {
	raw := []string{"Dark Magician x3", "Unknown Card x2", "", "1x Mirror Force"}
	slots := ResolveSection(raw, named("Dark Magician", "Mirror Force"))

	require.Len(t, slots, 6)
	for i := 0; i < 3; i++ {
		assert.Equal(t, SlotCard, slots[i].Kind)
		assert.Equal(t, "Dark Magician", slots[i].Card.Name)
		assert.Equal(t, i+1, slots[i].Copy)
	}

	assert.Equal(t, SlotMissing, slots[3].Kind)
	assert.True(t, cards.IsNotFound(slots[3].Err))
	assert.Equal(t, "Unknown Card", slots[3].Entry.Name)

	assert.Equal(t, SlotInvalid, slots[4].Kind)
	assert.True(t, cards.IsParse(slots[4].Err))

	assert.Equal(t, SlotCard, slots[5].Kind)
	assert.Equal(t, "Mirror Force", slots[5].Card.Name)

	assert.Equal(t, 4, Count(slots))
}

func TestNames(t *testing.T) {
	got := Names([]string{"Dark Magician x3", "1x Dark Magician", "", "Mirror Force"})
	assert.Equal(t, []string{"Dark Magician", "Mirror Force"}, got)
}

func TestParseSection(t *testing.T) {
	sec, err := ParseSection(" Main ")
	require.NoError(t, err)
	assert.Equal(t, Main, sec)
	assert.Equal(t, "Main Deck", sec.Title())
	assert.Equal(t, "Extra Deck", Extra.Title())
	assert.Equal(t, "Side Deck", Side.Title())
	assert.Empty(t, Upgrade.Title())

	_, err = ParseSection("graveyard")
	assert.Error(t, err)
}

func TestResolveFetched(t *testing.T) {
	bewd := &cards.Card{ID: 89631139, Name: "Blue-Eyes White Dragon"}
	fetched := map[string]*cards.Card{
		"Blue Eyes":     bewd,
		"Dark Magician": {ID: 46986414, Name: "Dark Magician"},
	}

	slots := ResolveFetched([]string{"Blue Eyes x2", "Dark Magician", "Pot of Greed"}, fetched)

	require.Len(t, slots, 4)
	assert.Same(t, bewd, slots[0].Card)
	assert.Same(t, bewd, slots[1].Card)
	assert.Equal(t, "Dark Magician", slots[2].Card.Name)
	assert.Equal(t, SlotMissing, slots[3].Kind)
}
