// Package cache implements the persistent card cache. Records are indexed by
// normalized name with additional aliases for the literal fetched name and
// any requested spelling, expire after a fixed age, and are persisted as one
// snapshot in a storage.Store.
package cache

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/ramonehamilton/ygo-embed/internal/storage"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

const (
	DefaultKey        = "ygo-cache-v3"
	DefaultExpiry     = 7 * 24 * time.Hour
	DefaultMaxEntries = 10000
)

// Entry is a cached card with the time it was fetched.
type Entry struct {
	Card      cards.Card `json:"card"`
	FetchedAt time.Time  `json:"fetched_at"`
	Complete  bool       `json:"complete"`
}

// valid reports whether the entry may be served at now.
func (e *Entry) valid(now time.Time, expiry time.Duration) bool {
	return e.Complete && now.Sub(e.FetchedAt) < expiry
}

// Options configures the cache.
type Options struct {
	// Key is the store key holding the snapshot. Default: "ygo-cache-v3"
	Key string

	// Expiry is the maximum age of an entry. Default: 7 days
	Expiry time.Duration

	// MaxEntries bounds the number of records kept in memory; the least
	// recently used record is dropped beyond it. Default: 10000
	MaxEntries int

	// Now overrides the clock, for tests.
	Now func() time.Time

	Logger *slog.Logger
}

// Stats tracks cache performance metrics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Aliases   int
}

// Cache is a card cache backed by a storage.Store. It is safe for
// concurrent use.
type Cache struct {
	mu    sync.Mutex
	store storage.Store
	opts  Options

	// entries is keyed by normalized name and ordered by recency.
	entries *simplelru.LRU[string, *Entry]

	// aliases maps trimmed literal names to entry keys; keyAliases is the
	// reverse index used to drop aliases together with their entry.
	aliases    map[string]string
	keyAliases map[string][]string

	stats Stats
}

// New creates an empty cache persisting to store.
func New(store storage.Store, opts Options) *Cache {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Cache{
		store:      store,
		opts:       opts,
		aliases:    make(map[string]string),
		keyAliases: make(map[string][]string),
	}

	// NewLRU only fails on a non-positive size, which is ruled out above.
	c.entries, _ = simplelru.NewLRU[string, *Entry](opts.MaxEntries, c.onEvict)
	return c
}

// onEvict drops the aliases of an evicted entry. Called with c.mu held.
func (c *Cache) onEvict(key string, _ *Entry) {
	for _, alias := range c.keyAliases[key] {
		if c.aliases[alias] == key {
			delete(c.aliases, alias)
		}
	}
	delete(c.keyAliases, key)
	c.stats.Evictions++
}

// entryKey returns the primary key for a card name. Names made only of
// punctuation normalize to "" and are keyed by their lowercased form, so
// such cards are reachable by literal name only.
func entryKey(name string) string {
	if key := cards.NormalizeName(name); key != "" {
		return key
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the cached card for name. It tries the exact trimmed name,
// then the normalized name, then a case-insensitive scan of known names.
// Expired and incomplete entries are misses.
func (c *Cache) Get(name string) (*cards.Card, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()

	if key, ok := c.aliases[name]; ok {
		if card, ok := c.lookupLocked(key, now); ok {
			return card, true
		}
	}

	if card, ok := c.lookupLocked(entryKey(name), now); ok {
		return card, true
	}

	// Most recently used entries win when aliases differ only by case.
	keys := c.entries.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		for _, alias := range c.keyAliases[keys[i]] {
			if !strings.EqualFold(alias, name) {
				continue
			}
			if card, ok := c.lookupLocked(keys[i], now); ok {
				return card, true
			}
			break
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *Cache) lookupLocked(key string, now time.Time) (*cards.Card, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}

	if now.Sub(entry.FetchedAt) >= c.opts.Expiry {
		c.entries.Remove(key)
		return nil, false
	}
	if !entry.Complete {
		return nil, false
	}

	c.stats.Hits++
	card := entry.Card
	return &card, true
}

// Put stores card under its trimmed literal name and its normalized name,
// plus any extra aliases (for example the spelling that was requested).
// Records without full metadata are kept but never served.
func (c *Cache) Put(card *cards.Card, aliases ...string) {
	if card == nil {
		return
	}
	name := strings.TrimSpace(card.Name)
	if name == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.putLocked(entryKey(name), &Entry{
		Card:      *card,
		FetchedAt: c.opts.Now(),
		Complete:  card.Complete(),
	}, append([]string{name}, aliases...))
}

func (c *Cache) putLocked(key string, entry *Entry, aliases []string) {
	c.entries.Add(key, entry)

	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		if prev, ok := c.aliases[alias]; ok {
			if prev == key {
				continue
			}
			c.keyAliases[prev] = removeString(c.keyAliases[prev], alias)
		}
		c.aliases[alias] = key
		c.keyAliases[key] = append(c.keyAliases[key], alias)
	}
}

// Cards returns every servable card, least recently used first.
func (c *Cache) Cards() []*cards.Card {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	result := make([]*cards.Card, 0, c.entries.Len())
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if !ok || !entry.valid(now, c.opts.Expiry) {
			continue
		}
		card := entry.Card
		result = append(result, &card)
	}
	return result
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = c.entries.Len()
	stats.Aliases = len(c.aliases)
	return stats
}

// evictOldestLocked drops the least recently used half of the records and
// returns how many were removed.
func (c *Cache) evictOldestLocked() int {
	n := c.entries.Len()
	remove := n - n/2
	for i := 0; i < remove; i++ {
		c.entries.RemoveOldest()
	}
	return remove
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
