package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/kailas-cloud/kbassist/internal/db"
)

// Expired rows are invisible to reads and restart from zero on Incr, matching Redis key expiry.

// Get retrieves a live cache entry.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.nowMillis(),
	).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// Put upserts a cache entry. A non-positive ttl keeps it until overwritten.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, s.expiry(ttl),
	)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Counter reads a live counter. Missing or expired counters read as zero.
func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT CAST(value AS INTEGER) FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.nowMillis(),
	).Scan(&n)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, &db.Error{Op: db.OpGet, Err: err}
	}
	return n, nil
}

// Incr adds delta to a counter in one statement and returns the new total.
// The expiry is set by the first write and kept by later ones.
func (s *Store) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	now := s.nowMillis()
	var total int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = CASE
				WHEN kv.expires_at IS NOT NULL AND kv.expires_at <= ? THEN excluded.value
				ELSE CAST(CAST(kv.value AS INTEGER) + CAST(excluded.value AS INTEGER) AS TEXT)
			END,
			expires_at = CASE
				WHEN kv.expires_at IS NOT NULL AND kv.expires_at <= ? THEN excluded.expires_at
				ELSE COALESCE(kv.expires_at, excluded.expires_at)
			END
		RETURNING CAST(value AS INTEGER)`,
		key, strconv.FormatInt(delta, 10), s.expiry(ttl), now, now,
	).Scan(&total)
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return total, nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.nowMillis())
	if err != nil {
		return 0, &db.Error{Op: db.OpDel, Err: err}
	}
	return res.RowsAffected()
}

func (s *Store) expiry(ttl time.Duration) sql.NullInt64 {
	if ttl <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: s.nowMillis() + ttl.Milliseconds(), Valid: true}
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}
