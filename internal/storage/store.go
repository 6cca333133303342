// Package storage provides the persistent key/value stores backing the card
// cache. Stores behave like browser localStorage: string values, one
// namespace, and a byte quota that rejects writes once exceeded.
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by Save when the write would exceed the
// store's quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is a key/value string store with a quota.
type Store interface {
	// Load returns the value stored under key. The boolean is false when the
	// key does not exist.
	Load(ctx context.Context, key string) (string, bool, error)

	// Save stores value under key, replacing any previous value. It returns
	// ErrQuotaExceeded (possibly wrapped) when the quota would be exceeded.
	Save(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// IsQuotaExceeded reports whether err signals a full store.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// entrySize is the accounted size of one key/value pair.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
