package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type cacheView struct{ s *Store }

// Cache returns the store.CacheStore view of this Store.
func (s *Store) Cache() store.CacheStore { return cacheView{s} }

func (v cacheView) Get(ctx context.Context, fingerprint string) (types.CacheEntry, bool, error) {
	var (
		e          types.CacheEntry
		ttlSeconds int64
	)
	err := v.s.db.QueryRowContext(ctx, `
		SELECT fingerprint, value, created_at, ttl_seconds, version
		FROM cache_entries WHERE fingerprint = ?`, fingerprint).
		Scan(&e.Fingerprint, &e.Value, &e.CreatedAt, &ttlSeconds, &e.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CacheEntry{}, false, nil
	}
	if err != nil {
		return types.CacheEntry{}, false, fmt.Errorf("sqlite: cache get: %w", err)
	}
	e.TTL = time.Duration(ttlSeconds) * time.Second
	return e, true, nil
}

func (v cacheView) Set(ctx context.Context, entry types.CacheEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := v.s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (fingerprint, value, created_at, ttl_seconds, version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			value=excluded.value, created_at=excluded.created_at,
			ttl_seconds=excluded.ttl_seconds, version=excluded.version`,
		entry.Fingerprint, entry.Value, entry.CreatedAt, int64(entry.TTL/time.Second), entry.Version)
	if err != nil {
		return fmt.Errorf("sqlite: cache set: %w", err)
	}
	return nil
}

func (v cacheView) Delete(ctx context.Context, fingerprint string) error {
	_, err := v.s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return fmt.Errorf("sqlite: cache delete: %w", err)
	}
	return nil
}

func (v cacheView) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := v.s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("sqlite: cache purge: %w", err)
	}
	return res.RowsAffected()
}
