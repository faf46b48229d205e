package article

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/kbassist/internal/db"
	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
)

// mockStore implements the Redis consumer interface for tests.
type mockStore struct {
	writeHashesFn func(ctx context.Context, hashes []db.Hash) error
	readHashesFn  func(ctx context.Context, keys []string) ([]map[string]string, error)
	ensureIndexFn func(ctx context.Context, def *db.IndexDefinition) (bool, error)
	searchTextFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchListFn  func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	countByFn     func(ctx context.Context, index, field string) (map[string]int, error)
}

func (m *mockStore) WriteHashes(ctx context.Context, hashes []db.Hash) error {
	if m.writeHashesFn != nil {
		return m.writeHashesFn(ctx, hashes)
	}
	return nil
}

func (m *mockStore) ReadHashes(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.readHashesFn != nil {
		return m.readHashesFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error) {
	if m.ensureIndexFn != nil {
		return m.ensureIndexFn(ctx, def)
	}
	return true, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) CountBy(ctx context.Context, index, field string) (map[string]int, error) {
	if m.countByFn != nil {
		return m.countByFn(ctx, index, field)
	}
	return map[string]int{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return NewRedis(ms), ms
}

var day = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testArticle(t *testing.T, id int64, title, content, category string, published time.Time, tags ...string) domarticle.Article {
	t.Helper()
	a, err := domarticle.New(id, title, content, "Ada Lovelace", category, tags, published)
	if err != nil {
		t.Fatalf("article.New: %v", err)
	}
	return a
}
