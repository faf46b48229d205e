package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kbassist/internal/db"
)

// WriteHashes replaces the listed fields of every hash in one pipelined round-trip.
func (s *Store) WriteHashes(ctx context.Context, hashes []db.Hash) error {
	if len(hashes) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(hashes))
	for _, h := range hashes {
		fv := s.b().Hset().Key(h.Key).FieldValue()
		for field, value := range h.Fields {
			fv = fv.FieldValue(field, value)
		}
		cmds = append(cmds, fv.Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("%s: %w", hashes[i].Key, err)}
		}
	}
	return nil
}

// ReadHashes loads every hash in keys order. Missing hashes come back as nil maps.
func (s *Store) ReadHashes(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, s.b().Hgetall().Key(key).Build())
	}

	out := make([]map[string]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		fields, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("%s: %w", keys[i], err)}
		}
		if len(fields) > 0 {
			out[i] = fields
		}
	}
	return out, nil
}
