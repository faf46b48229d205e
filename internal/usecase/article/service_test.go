package article

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/kbassist/internal/domain"
	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
)

type mockRepo struct {
	getFn        func(id int64) (domarticle.Article, error)
	categoriesFn func() ([]domarticle.Category, error)
}

func (m *mockRepo) Get(_ context.Context, id int64) (domarticle.Article, error) { return m.getFn(id) }

func (m *mockRepo) Categories(_ context.Context) ([]domarticle.Category, error) {
	return m.categoriesFn()
}

func TestGet_Found(t *testing.T) {
	want := domarticle.Reconstruct(7, "t", "c", "a", "", nil, time.Now().UTC())
	svc := New(&mockRepo{getFn: func(int64) (domarticle.Article, error) { return want, nil }})

	got, err := svc.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != 7 {
		t.Errorf("ID() = %d", got.ID())
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&mockRepo{getFn: func(id int64) (domarticle.Article, error) {
		return domarticle.Article{}, fmt.Errorf("get article %d: %w", id, domain.ErrArticleNotFound)
	}})

	_, err := svc.Get(context.Background(), 7)
	if !errors.Is(err, domain.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		t.Error("not found must not be reported as store failure")
	}
}

func TestGet_InvalidID(t *testing.T) {
	svc := New(&mockRepo{})
	if _, err := svc.Get(context.Background(), 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	svc := New(&mockRepo{getFn: func(int64) (domarticle.Article, error) {
		return domarticle.Article{}, errors.New("i/o timeout")
	}})
	if _, err := svc.Get(context.Background(), 1); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	svc := New(&mockRepo{categoriesFn: func() ([]domarticle.Category, error) {
		return []domarticle.Category{{Name: "Databases", Articles: 2}}, nil
	}})
	cats, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 1 || cats[0].Articles != 2 {
		t.Errorf("got %+v", cats)
	}

	svc = New(&mockRepo{categoriesFn: func() ([]domarticle.Category, error) { return nil, errors.New("down") }})
	if _, err := svc.Categories(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
