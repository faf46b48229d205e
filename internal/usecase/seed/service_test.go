package seed

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/kailas-cloud/kbassist/internal/domain/article"
)

// --- Mocks ---

type mockWriter struct {
	ensureErr error
	upsertErr error
	ensured   int
	upserted  []article.Article
}

func (m *mockWriter) EnsureSchema(_ context.Context) error {
	m.ensured++
	return m.ensureErr
}

func (m *mockWriter) Upsert(_ context.Context, arts ...article.Article) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, arts...)
	return nil
}

const sampleYAML = `
categories: [Programming, Databases]
articles:
  - id: 1
    title: Building fast APIs with FastAPI
    author: Alice Johnson
    category: Programming
    tags: [FastAPI, " Python ", FastAPI]
    published_at: 2024-01-22T09:00:00Z
    content: FastAPI leverages Python type hints.
  - id: 2
    title: Mastering PostgreSQL indexing
    author: Bob Smith
    category: Databases
    published_at: 2024-01-15T09:00:00Z
    content: Indexes speed up queries.
`

func mustParse(t *testing.T, s string) *Fixture {
	t.Helper()
	f, err := Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

// --- Tests ---

func TestParse_Build(t *testing.T) {
	arts, err := mustParse(t, sampleYAML).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(arts))
	}
	a := arts[0]
	if a.ID() != 1 || a.Author() != "Alice Johnson" || a.Category() != "Programming" {
		t.Errorf("unexpected article: id=%d author=%q category=%q", a.ID(), a.Author(), a.Category())
	}
	if !slices.Equal(a.Tags(), []string{"FastAPI", "Python"}) {
		t.Errorf("tags = %q", a.Tags())
	}
	if a.PublishedAt().Year() != 2024 || a.PublishedAt().Day() != 22 {
		t.Errorf("published = %v", a.PublishedAt())
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("articles:\n  - id: 1\n    headline: x\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParse_Empty(t *testing.T) {
	f := mustParse(t, "")
	if len(f.Articles) != 0 {
		t.Errorf("expected no articles, got %d", len(f.Articles))
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"duplicate id",
			"articles:\n" +
				"  - {id: 1, title: a, content: b, published_at: 2024-01-01T00:00:00Z}\n" +
				"  - {id: 1, title: c, content: d, published_at: 2024-01-01T00:00:00Z}\n",
			"duplicate id",
		},
		{
			"unknown category",
			"categories: [Programming]\narticles:\n" +
				"  - {id: 1, title: a, content: b, category: Cooking, published_at: 2024-01-01T00:00:00Z}\n",
			"unknown category",
		},
		{
			"missing date",
			"articles:\n  - {id: 1, title: a, content: b}\n",
			"published date",
		},
		{
			"missing title",
			"articles:\n  - {id: 1, content: b, published_at: 2024-01-01T00:00:00Z}\n",
			"title is required",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mustParse(t, tc.yaml).Build()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSeed_UpsertsAll(t *testing.T) {
	w := &mockWriter{}
	n, err := New(w).Seed(context.Background(), mustParse(t, sampleYAML))
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 2 || len(w.upserted) != 2 || w.ensured != 1 {
		t.Errorf("n=%d upserted=%d ensured=%d", n, len(w.upserted), w.ensured)
	}
}

func TestSeed_InvalidFixtureWritesNothing(t *testing.T) {
	w := &mockWriter{}
	bad := mustParse(t, "articles:\n  - {id: 0, title: a, content: b, published_at: 2024-01-01T00:00:00Z}\n")

	if _, err := New(w).Seed(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
	if w.ensured != 0 || len(w.upserted) != 0 {
		t.Error("store must not be touched for an invalid fixture")
	}
}

func TestSeed_StoreError(t *testing.T) {
	w := &mockWriter{upsertErr: errors.New("readonly")}
	if _, err := New(w).Seed(context.Background(), mustParse(t, sampleYAML)); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_ShippedFixture(t *testing.T) {
	f, err := Load("../../../config/seed/articles.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	arts, err := f.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(arts) != 10 {
		t.Errorf("expected 10 articles, got %d", len(arts))
	}
}
