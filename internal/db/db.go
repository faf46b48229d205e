// Package db defines the storage contracts shared by the SQLite and Redis backends.
//
// Both backends hold two kinds of small records next to the article corpus:
// expiring cache entries (completion summaries) and integer counters (token budgets).
// Article search lives behind backend-specific repositories.
package db

import (
	"context"
	"time"
)

// Store is the facade every backend implements.
type Store interface {
	Pinger
	KVStore
	CounterStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore holds opaque cache entries. Get returns ErrKeyNotFound for absent or expired keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CounterStore holds integer counters that expire a fixed time after their first write.
type CounterStore interface {
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Hash is one Redis hash: a key and the fields written to it.
type Hash struct {
	Key    string
	Fields map[string]string
}

// HashStore reads and writes hashes in batches.
type HashStore interface {
	WriteHashes(ctx context.Context, hashes []Hash) error
	ReadHashes(ctx context.Context, keys []string) ([]map[string]string, error)
}

// IndexManager creates FT indexes.
type IndexManager interface {
	EnsureIndex(ctx context.Context, def *IndexDefinition) (bool, error)
}

// Searcher queries FT indexes.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	CountBy(ctx context.Context, index, field string) (map[string]int, error)
}
