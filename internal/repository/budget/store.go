// Package budget persists completion token counters per provider and period.
package budget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// counters is the consumer interface for token counters (ISP).
type counters interface {
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Store keeps daily and monthly token counters so budgets survive restarts.
// A counter expires a fixed time after the first write of its period.
type Store struct {
	counters counters
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a token counter store.
func New(c counters, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{counters: c, dailyTTL: dailyTTL, monthTTL: monthTTL}
}

// IncrBy adds val to the counter at key.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if _, err := s.counters.Incr(ctx, key, val, s.ttlFor(key)); err != nil {
		return fmt.Errorf("incr token counter %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 when the period has no usage yet.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	n, err := s.counters.Counter(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("get token counter %s: %w", key, err)
	}
	return n, nil
}

// Counter keys end in :daily:YYYY-MM-DD or :monthly:YYYY-MM.
func (s *Store) ttlFor(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.dailyTTL
	}
	return s.monthTTL
}
