package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefaultQuota mirrors the 5 MB budget browsers give localStorage.
const DefaultQuota int64 = 5 * 1024 * 1024

// SQLiteStore is a Store persisted in the kv_store table.
type SQLiteStore struct {
	db    *DB
	quota int64
}

// NewSQLiteStore creates a store on db limited to quota bytes
// (0 = unlimited). The kv_store migration must have been applied.
func NewSQLiteStore(db *DB, quota int64) *SQLiteStore {
	return &SQLiteStore{db: db, quota: quota}
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.conn.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %q: %w", key, err)
	}
	return value, true, nil
}

// Save implements Store. The quota check and the write share one
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, key, value string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %q: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	size := entrySize(key, value)

	if s.quota > 0 {
		var others int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(size), 0) FROM kv_store WHERE key <> ?`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("measure store usage: %w", err)
		}
		if others+size > s.quota {
			return fmt.Errorf("save %q (%d of %d bytes): %w", key, others+size, s.quota, ErrQuotaExceeded)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, size, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			size = excluded.size,
			updated_at = excluded.updated_at`,
		key, value, size)
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save %q: %w", key, err)
	}
	return nil
}

// Remove implements Store.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Used returns the number of bytes currently stored.
func (s *SQLiteStore) Used(ctx context.Context) (int64, error) {
	var used int64
	if err := s.db.conn.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM kv_store`).Scan(&used); err != nil {
		return 0, fmt.Errorf("measure store usage: %w", err)
	}
	return used, nil
}
