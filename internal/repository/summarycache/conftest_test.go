package summarycache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/db"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
)

type mockCompleter struct {
	result domcompletion.Result
	err    error
	calls  int
}

func (m *mockCompleter) Complete(_ context.Context, _ domcompletion.Request) (domcompletion.Result, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedCompleter(t *testing.T, inner *mockCompleter) (*CachedCompleter, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, "openai/test-model", time.Hour, nil, zap.NewNop()), ms
}
