package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/ygo-embed/internal/storage"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testCard(name string) *cards.Card {
	return &cards.Card{
		ID:            len(name),
		Name:          name,
		Type:          "Effect Monster",
		Description:   "Test card " + name,
		SmallImageURL: "https://images.example/small/" + name + ".jpg",
		LargeImageURL: "https://images.example/" + name + ".jpg",
	}
}

func newTestCache(store storage.Store, clock *testClock) *Cache {
	return New(store, Options{
		Now:    clock.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestCache_GetByLiteralAndNormalizedName(t *testing.T) {
	c := newTestCache(storage.NewMemoryStore(0), newTestClock())

	names := []string{"Dark Magician", "Blue-Eyes White Dragon", "Ash Blossom & Joyous Spring", "D.D. Crow"}
	for _, name := range names {
		c.Put(testCard(name))
	}

	for _, name := range names {
		got, ok := c.Get(name)
		require.True(t, ok, "literal %q", name)
		assert.Equal(t, name, got.Name)

		got, ok = c.Get(cards.NormalizeName(name))
		require.True(t, ok, "normalized %q", name)
		assert.Equal(t, name, got.Name)
	}
}

func TestCache_GetCaseInsensitiveAndTrimmed(t *testing.T) {
	c := newTestCache(storage.NewMemoryStore(0), newTestClock())
	c.Put(testCard("Number 39: Utopia"))

	got, ok := c.Get("  NUMBER 39: UTOPIA ")
	require.True(t, ok)
	assert.Equal(t, "Number 39: Utopia", got.Name)

	_, ok = c.Get("")
	assert.False(t, ok)
}

func TestCache_Alias(t *testing.T) {
	c := newTestCache(storage.NewMemoryStore(0), newTestClock())
	c.Put(testCard("Blue-Eyes White Dragon"), "Blue Eyes", "BEWD")

	got, ok := c.Get("BEWD")
	require.True(t, ok)
	assert.Equal(t, "Blue-Eyes White Dragon", got.Name)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	clock := newTestClock()
	c := newTestCache(storage.NewMemoryStore(0), clock)
	c.Put(testCard("Mirror Force"))

	clock.Advance(DefaultExpiry - time.Minute)
	_, ok := c.Get("Mirror Force")
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("Mirror Force")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_IncompleteEntryIsMiss(t *testing.T) {
	c := newTestCache(storage.NewMemoryStore(0), newTestClock())

	partial := testCard("Pot of Greed")
	partial.LargeImageURL = ""
	c.Put(partial)

	_, ok := c.Get("Pot of Greed")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
	assert.Empty(t, c.Cards())
}

func TestCache_MaxEntriesDropsAliases(t *testing.T) {
	c := New(storage.NewMemoryStore(0), Options{MaxEntries: 2, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	c.Put(testCard("Card A"))
	c.Put(testCard("Card B"))
	_, _ = c.Get("Card A") // A becomes most recent
	c.Put(testCard("Card C"))

	_, ok := c.Get("Card B")
	assert.False(t, ok)
	_, ok = c.Get("Card A")
	assert.True(t, ok)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 2, stats.Aliases)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestCache_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	clock := newTestClock()

	c := newTestCache(store, clock)
	c.Put(testCard("Dark Magician"), "DM")
	c.Put(testCard("Mirror Force"))
	c.Persist(ctx)

	reloaded := newTestCache(store, clock)
	reloaded.Load(ctx)

	assert.Equal(t, 2, reloaded.Len())
	got, ok := reloaded.Get("DM")
	require.True(t, ok)
	assert.Equal(t, "Dark Magician", got.Name)
	_, ok = reloaded.Get("mirror force")
	assert.True(t, ok)
}

func TestCache_LoadCorruptOrMissing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)

	c := newTestCache(store, newTestClock())
	c.Load(ctx)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, store.Save(ctx, DefaultKey, "{not json"))
	c.Load(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestCache_LoadExpiredSnapshot(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	clock := newTestClock()

	c := newTestCache(store, clock)
	c.Put(testCard("Dark Magician"))
	c.Persist(ctx)

	clock.Advance(DefaultExpiry + time.Hour)
	reloaded := newTestCache(store, clock)
	reloaded.Load(ctx)
	assert.Equal(t, 0, reloaded.Len())
}

func TestCache_PersistQuotaEvictsHalf(t *testing.T) {
	ctx := context.Background()

	// Measure the full snapshot first.
	measure := storage.NewMemoryStore(0)
	full := newTestCache(measure, newTestClock())
	for i := 0; i < 10; i++ {
		full.Put(testCard(fmt.Sprintf("Card %02d", i)))
	}
	full.Persist(ctx)
	size := measure.Used()
	require.Positive(t, size)

	store := storage.NewMemoryStore(size * 7 / 10)
	c := newTestCache(store, newTestClock())
	for i := 0; i < 10; i++ {
		c.Put(testCard(fmt.Sprintf("Card %02d", i)))
	}
	// Touch the oldest card so it survives the eviction.
	_, _ = c.Get("Card 00")

	c.Persist(ctx)

	assert.LessOrEqual(t, c.Len(), 5)
	_, ok := c.Get("Card 00")
	assert.True(t, ok)
	_, ok = c.Get("Card 01")
	assert.False(t, ok)

	_, saved, err := store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestCache_PersistQuotaGivesUp(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(16)

	c := newTestCache(store, newTestClock())
	for i := 0; i < 6; i++ {
		c.Put(testCard(fmt.Sprintf("Card %d", i)))
	}

	assert.NotPanics(t, func() { c.Persist(ctx) })
	assert.Equal(t, 3, c.Len())

	_, saved, err := store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)

	c := newTestCache(store, newTestClock())
	c.Put(testCard("Dark Magician"))
	c.Persist(ctx)
	c.Clear(ctx)

	assert.Equal(t, 0, c.Len())
	_, ok, err := store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_StartAutoSave(t *testing.T) {
	store := storage.NewMemoryStore(0)
	c := newTestCache(store, newTestClock())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := c.StartAutoSave(ctx, time.Hour)
	c.Put(testCard("Dark Magician"))
	stop()
	stop()

	_, ok, err := store.Load(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok, "final persist on stop")
}

func TestCache_StartAutoSaveZeroInterval(t *testing.T) {
	store := storage.NewMemoryStore(0)
	c := newTestCache(store, newTestClock())

	stop := c.StartAutoSave(context.Background(), 0)
	c.Put(testCard("Dark Magician"))

	_, ok, err := store.Load(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok, "no periodic save")

	stop()

	_, ok, err = store.Load(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok, "final persist on stop")
}

func TestCache_CaseInsensitiveAliasPrefersRecent(t *testing.T) {
	c := newTestCache(storage.NewMemoryStore(0), newTestClock())

	c.Put(testCard("Card One"), "Featured Pick")
	c.Put(testCard("Card Two"), "featured pick")

	for range 20 {
		got, ok := c.Get("FEATURED PICK")
		require.True(t, ok)
		assert.Equal(t, "Card Two", got.Name)
	}

	_, ok := c.Get("Card One")
	require.True(t, ok)

	got, ok := c.Get("FEATURED PICK")
	require.True(t, ok)
	assert.Equal(t, "Card One", got.Name)
}

func TestCache_PunctuationOnlyNameReachableByLiteralOnly(t *testing.T) {
	c := newTestCache(storage.NewMemoryStore(0), newTestClock())
	c.Put(testCard("???"))

	got, ok := c.Get("  ??? ")
	require.True(t, ok)
	assert.Equal(t, "???", got.Name)

	// The normalized form is empty and never matches.
	_, ok = c.Get(cards.NormalizeName("???"))
	assert.False(t, ok)
}
