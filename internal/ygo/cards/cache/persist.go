package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ramonehamilton/ygo-embed/internal/storage"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

const snapshotVersion = 3

// snapshot is the persisted form of the cache. Records are listed least
// recently used first so that loading restores recency.
type snapshot struct {
	Version   int              `json:"version"`
	Timestamp int64            `json:"timestamp"`
	Records   []snapshotRecord `json:"records"`
}

type snapshotRecord struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases"`
	Entry   *Entry   `json:"entry"`
}

// Load replaces the cache contents with the persisted snapshot. A missing,
// corrupt or expired snapshot leaves the cache empty; failures are logged,
// never returned.
func (c *Cache) Load(ctx context.Context) {
	raw, ok, err := c.store.Load(ctx, c.opts.Key)
	if err != nil {
		c.opts.Logger.Warn("Error loading card cache", "error", &cards.StorageError{Op: "load", Err: err})
		return
	}
	if !ok {
		return
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.opts.Logger.Warn("Discarding corrupt card cache", "error", &cards.StorageError{Op: "decode", Err: err})
		return
	}

	now := c.opts.Now()
	if snap.Timestamp == 0 || now.Sub(time.UnixMilli(snap.Timestamp)) >= c.opts.Expiry {
		c.opts.Logger.Info("Card cache expired, starting empty")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	for _, rec := range snap.Records {
		if rec.Entry == nil || rec.Key == "" || now.Sub(rec.Entry.FetchedAt) >= c.opts.Expiry {
			continue
		}
		c.putLocked(rec.Key, rec.Entry, rec.Aliases)
	}
	c.stats.Evictions = 0

	c.opts.Logger.Info("Loaded cached cards", "count", c.entries.Len())
}

// Persist writes the cache to the store. When the store is full it drops
// the least recently used half of the records and retries once. Errors are
// logged and never returned.
func (c *Cache) Persist(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.saveLocked(ctx)
	if err == nil {
		return
	}

	if !storage.IsQuotaExceeded(err) {
		c.opts.Logger.Warn("Error saving card cache", "error", &cards.StorageError{Op: "save", Err: err})
		return
	}

	removed := c.evictOldestLocked()
	c.opts.Logger.Warn("Card cache exceeds storage quota, evicted oldest entries",
		"evicted", removed, "remaining", c.entries.Len())

	if err := c.saveLocked(ctx); err != nil {
		c.opts.Logger.Error("Failed to save card cache even after eviction",
			"error", &cards.StorageError{Op: "save", Err: err})
		return
	}
	c.opts.Logger.Info("Reduced card cache saved", "count", c.entries.Len())
}

func (c *Cache) saveLocked(ctx context.Context) error {
	snap := snapshot{
		Version:   snapshotVersion,
		Timestamp: c.opts.Now().UnixMilli(),
		Records:   make([]snapshotRecord, 0, c.entries.Len()),
	}
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		snap.Records = append(snap.Records, snapshotRecord{
			Key:     key,
			Aliases: c.keyAliases[key],
			Entry:   entry,
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.store.Save(ctx, c.opts.Key, string(data))
}

// Clear empties the cache and removes the persisted snapshot.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.stats = Stats{}

	if err := c.store.Remove(ctx, c.opts.Key); err != nil {
		c.opts.Logger.Error("Failed to clear card cache", "error", &cards.StorageError{Op: "remove", Err: err})
		return
	}
	c.opts.Logger.Info("Card cache cleared")
}

func (c *Cache) resetLocked() {
	c.entries.Purge()
	c.aliases = make(map[string]string)
	c.keyAliases = make(map[string][]string)
}

// StartAutoSave persists the cache every interval until ctx is done or the
// returned stop function is called; both paths persist one final time. A
// non-positive interval disables the periodic saves.
func (c *Cache) StartAutoSave(ctx context.Context, interval time.Duration) (stop func()) {
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	var once sync.Once

	wg.Add(1)
	go func() {
		defer wg.Done()

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				c.Persist(ctx)
			case <-ctx.Done():
				c.Persist(context.WithoutCancel(ctx))
				return
			case <-stopCh:
				c.Persist(context.WithoutCancel(ctx))
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(stopCh) })
		wg.Wait()
	}
}
