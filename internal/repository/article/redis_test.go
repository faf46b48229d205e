package article

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/kbassist/internal/db"
	"github.com/kailas-cloud/kbassist/internal/domain"
)

func TestRepo_EnsureSchema(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got *db.IndexDefinition
	ms.ensureIndexFn = func(_ context.Context, def *db.IndexDefinition) (bool, error) {
		got = def
		return false, nil
	}

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("existing index must not be an error: %v", err)
	}
	if got.Name != "kb:articles:idx" || !slices.Equal(got.Prefixes, []string{"kb:article:"}) {
		t.Errorf("unexpected index: %s", got)
	}

	ms.ensureIndexFn = func(context.Context, *db.IndexDefinition) (bool, error) {
		return false, &db.Error{Op: db.OpCreateIndex, Err: errors.New("boom")}
	}
	if err := repo.EnsureSchema(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRepo_UpsertAndGetRoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	a := testArticle(t, 7, "Go channels", "Channels connect goroutines.", "Programming", day, "go", "concurrency")

	hashes := map[string]map[string]string{}
	ms.writeHashesFn = func(_ context.Context, items []db.Hash) error {
		for _, it := range items {
			hashes[it.Key] = it.Fields
		}
		return nil
	}
	ms.readHashesFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		out := make([]map[string]string, len(keys))
		for i, k := range keys {
			out[i] = hashes[k]
		}
		return out, nil
	}

	if err := repo.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if hashes["kb:article:7"]["tags"] != "go,concurrency" {
		t.Errorf("tags field = %q", hashes["kb:article:7"]["tags"])
	}

	got, err := repo.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title() != a.Title() || got.Category() != "Programming" || got.Author() != "Ada Lovelace" {
		t.Errorf("unexpected article: %+v", got)
	}
	if !got.PublishedAt().Equal(day) || !slices.Equal(got.Tags(), []string{"go", "concurrency"}) {
		t.Errorf("published=%v tags=%v", got.PublishedAt(), got.Tags())
	}

	if _, err := repo.Get(ctx, 8); !errors.Is(err, domain.ErrArticleNotFound) {
		t.Errorf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestRepo_GetByIDs_SkipsUnknownAndSortsNewestFirst(t *testing.T) {
	repo, ms := newTestRepo(t)
	old := testArticle(t, 1, "Old", "c", "", day)
	newer := testArticle(t, 2, "New", "c", "", day.AddDate(0, 1, 0))

	ms.readHashesFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if !slices.Equal(keys, []string{"kb:article:1", "kb:article:99", "kb:article:2"}) {
			t.Errorf("keys = %v", keys)
		}
		return []map[string]string{toHash(&old), nil, toHash(&newer)}, nil
	}

	got, err := repo.GetByIDs(context.Background(), []int64{1, 99, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID() != 2 || got[1].ID() != 1 {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestRepo_SearchCandidates_Terms(t *testing.T) {
	repo, ms := newTestRepo(t)
	a := testArticle(t, 3, "Redis", "Streams", "Databases", day)

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if !slices.Equal(q.Terms, []string{"redis", "streams"}) || q.Offset != 400 || q.TopK != 200 {
			t.Errorf("unexpected query: %+v", q)
		}
		if !slices.Equal(q.Fields, []string{"title", "content"}) {
			t.Errorf("fields = %v", q.Fields)
		}
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Key: "kb:article:3", Score: 1.25, Fields: toHash(&a)},
		}}, nil
	}

	got, err := repo.SearchCandidates(context.Background(), []string{"redis", "streams"}, 400, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Score() != 1.25 {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if art := got[0].Article(); art.ID() != 3 {
		t.Errorf("id = %d", art.ID())
	}
}

func TestRepo_SearchCandidates_EmptyTermsListsNewest(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchTextFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		t.Error("text search must not run without terms")
		return nil, nil
	}
	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if q.SortBy != "published_at" || !q.SortDesc || q.Offset != 20 || q.Limit != 10 {
			t.Errorf("unexpected list query: %+v", q)
		}
		return &db.SearchResult{}, nil
	}

	if _, err := repo.SearchCandidates(context.Background(), nil, 20, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRepo_SearchCandidates_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchTextFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("timeout")}
	}

	_, err := repo.SearchCandidates(context.Background(), []string{"x"}, 0, 5)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected wrapped db.Error, got %v", err)
	}
}

func TestRepo_Categories(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.countByFn = func(_ context.Context, index, field string) (map[string]int, error) {
		if index != "kb:articles:idx" || field != "category" {
			t.Errorf("CountBy(%q, %q)", index, field)
		}
		return map[string]int{"Programming": 3, "Databases": 1}, nil
	}

	got, err := repo.Categories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Databases" || got[1].Articles != 3 {
		t.Errorf("unexpected categories: %+v", got)
	}
}

func TestFromHash_BadTimestamp(t *testing.T) {
	if _, err := fromHash(1, map[string]string{"title": "t", "published_at": "yesterday"}); err == nil {
		t.Fatal("expected parse error")
	}
}
