package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. It is used in tests and when
// persistence is disabled.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]string
	used  int64
	quota int64
}

// NewMemoryStore creates a memory store limited to quota bytes
// (0 = unlimited).
func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]string),
		quota: quota,
	}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	return value, ok, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used
	if old, ok := s.data[key]; ok {
		used -= entrySize(key, old)
	}
	used += entrySize(key, value)

	if s.quota > 0 && used > s.quota {
		return fmt.Errorf("save %q (%d of %d bytes): %w", key, used, s.quota, ErrQuotaExceeded)
	}

	s.data[key] = value
	s.used = used
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.used -= entrySize(key, old)
		delete(s.data, key)
	}
	return nil
}

// Used returns the number of bytes currently stored.
func (s *MemoryStore) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
