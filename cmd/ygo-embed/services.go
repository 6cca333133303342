package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ramonehamilton/ygo-embed/internal/config"
	"github.com/ramonehamilton/ygo-embed/internal/metrics"
	"github.com/ramonehamilton/ygo-embed/internal/storage"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cardlookup"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards/cache"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards/queue"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards/ygoprodeck"
)

// services holds the wired card lookup stack.
type services struct {
	cfg      *config.Config
	db       *storage.DB
	store    *storage.SQLiteStore
	cache    *cache.Cache
	client   *ygoprodeck.Client
	queue    *queue.Queue
	lookup   *cardlookup.Service
	metrics  *metrics.LookupMetrics
	logger   *slog.Logger
	stopSave func()
}

// newServices opens the store, loads the cache and starts its auto-save.
// Close must be called to flush the cache.
func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	logger := slog.Default()

	apiTimeout, _ := cfg.GetAPITimeout()
	lookupTimeout, _ := cfg.GetLookupTimeout()
	batchDelay, _ := cfg.GetBatchDelay()
	expiry, _ := cfg.GetCacheExpiry()
	saveInterval, _ := cfg.GetSaveInterval()

	dbPath, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(storage.DefaultConfig(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open card store: %w", err)
	}
	store := storage.NewSQLiteStore(db, cfg.Storage.Quota)

	c := cache.New(store, cache.Options{
		Key:        cfg.Cache.Key,
		Expiry:     expiry,
		MaxEntries: cfg.Cache.MaxEntries,
		Logger:     logger.With("component", "cache"),
	})
	c.Load(ctx)

	client := ygoprodeck.NewClient(ygoprodeck.ClientOptions{
		BaseURL:   cfg.API.BaseURL,
		RateLimit: time.Duration(float64(time.Second) / cfg.API.RateLimit),
		Timeout:   apiTimeout,
		UserAgent: cfg.API.UserAgent,
		Logger:    logger.With("component", "api"),
	})

	m := metrics.NewLookupMetrics()
	if batchDelay == 0 {
		batchDelay = -1
	}
	q := queue.New(client, c, queue.Options{
		BatchSize:     cfg.Queue.BatchSize,
		MaxConcurrent: cfg.Queue.MaxConcurrent,
		LookupTimeout: lookupTimeout,
		BatchDelay:    batchDelay,
		Metrics:       m,
		Logger:        logger.With("component", "queue"),
	})

	return &services{
		cfg:      cfg,
		db:       db,
		store:    store,
		cache:    c,
		client:   client,
		queue:    q,
		lookup:   cardlookup.NewService(c, q, client, logger),
		metrics:  m,
		logger:   logger,
		stopSave: c.StartAutoSave(ctx, saveInterval),
	}, nil
}

// Close stops the queue, persists the cache and closes the store.
func (s *services) Close() error {
	s.queue.Close()
	s.stopSave()

	if snap := s.metrics.Snapshot(); snap.Lookup.Count > 0 {
		s.logger.Debug("Card lookup metrics",
			"batches", snap.Batches,
			"found", snap.Found,
			"not_found", snap.NotFound,
			"timeouts", snap.Timeouts,
			"failures", snap.Failures,
			"p50_ms", snap.Lookup.P50,
			"p95_ms", snap.Lookup.P95,
			"cache", s.cache.Stats())
	}

	return s.db.Close()
}
