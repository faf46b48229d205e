package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kbassist/internal/db"
)

// Get returns the cached value at key or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Put stores value at key. A non-positive ttl keeps the entry until overwritten.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Px(ttl).Build()
	} else {
		cmd = s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Counter reads an integer counter. Missing counters read as zero.
func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	n, err := s.do(ctx, s.b().Get().Key(key).Build()).AsInt64()
	switch {
	case rueidis.IsRedisNil(err):
		return 0, nil
	case err != nil:
		return 0, &db.Error{Op: db.OpGet, Err: err}
	}
	return n, nil
}

// Incr adds delta to the counter at key and returns the new total.
// INCRBY and EXPIRE NX share one round-trip, so ttl is armed only by the first write of a period.
func (s *Store) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	cmds := []rueidis.Completed{s.b().Incrby().Key(key).Increment(delta).Build()}
	if ttl > 0 {
		cmds = append(cmds, s.b().Expire().Key(key).Seconds(max(int64(ttl/time.Second), 1)).Nx().Build())
	}

	results := s.client.DoMulti(ctx, cmds...)
	total, err := results[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	if len(results) > 1 {
		if err := results[1].Error(); err != nil {
			return total, &db.Error{Op: db.OpExpire, Err: err}
		}
	}
	return total, nil
}
