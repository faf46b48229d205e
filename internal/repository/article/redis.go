// Package article stores knowledge base articles in Redis hashes or SQLite tables.
package article

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/kbassist/internal/db"
	"github.com/kailas-cloud/kbassist/internal/domain"
	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
	"github.com/kailas-cloud/kbassist/internal/domain/search/result"
)

// Hash field names.
const (
	fieldTitle     = "title"
	fieldContent   = "content"
	fieldAuthor    = "author"
	fieldCategory  = "category"
	fieldTags      = "tags"
	fieldPublished = "published_at"

	tagSeparator      = ","
	categorySeparator = "|"
)

// store is the consumer interface for the Redis article repository (ISP).
type store interface {
	WriteHashes(ctx context.Context, hashes []db.Hash) error
	ReadHashes(ctx context.Context, keys []string) ([]map[string]string, error)
	EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	CountBy(ctx context.Context, index, field string) (map[string]int, error)
}

// Repo keeps each article in a hash at {prefix}article:{id}, indexed by one FT index.
type Repo struct {
	store store
}

// NewRedis creates a Redis-backed article repository.
func NewRedis(s store) *Repo {
	return &Repo{store: s}
}

func articlePrefix() string { return domain.KeyPrefix + "article:" }

func articleKey(id int64) string { return articlePrefix() + strconv.FormatInt(id, 10) }

func indexName() string { return domain.KeyPrefix + "articles:idx" }

// indexDefinition lists the searchable hash fields; category grouping needs a case-preserving TAG.
func indexDefinition() *db.IndexDefinition {
	return db.NewIndex(indexName()).
		Prefix(articlePrefix()).
		WeightedText(fieldTitle, 2).
		Text(fieldContent).
		Tag(fieldCategory, categorySeparator, true).
		Tag(fieldTags, tagSeparator, false).
		Numeric(fieldPublished).Sortable().
		MustBuild()
}

// EnsureSchema creates the article index when it does not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.store.EnsureIndex(ctx, indexDefinition()); err != nil {
		return fmt.Errorf("create article index: %w", err)
	}
	return nil
}

// Upsert writes articles in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, articles ...domarticle.Article) error {
	if len(articles) == 0 {
		return nil
	}
	hashes := make([]db.Hash, len(articles))
	for i := range articles {
		hashes[i] = db.Hash{Key: articleKey(articles[i].ID()), Fields: toHash(&articles[i])}
	}
	if err := r.store.WriteHashes(ctx, hashes); err != nil {
		return fmt.Errorf("upsert %d articles: %w", len(articles), err)
	}
	return nil
}

// Get returns a single article.
func (r *Repo) Get(ctx context.Context, id int64) (domarticle.Article, error) {
	hashes, err := r.store.ReadHashes(ctx, []string{articleKey(id)})
	if err != nil {
		return domarticle.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	if len(hashes) == 0 || hashes[0] == nil {
		return domarticle.Article{}, domain.ErrArticleNotFound
	}
	return fromHash(id, hashes[0])
}

// GetByIDs returns the known articles among ids, newest first. Unknown ids are skipped.
func (r *Repo) GetByIDs(ctx context.Context, ids []int64) ([]domarticle.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = articleKey(id)
	}

	hashes, err := r.store.ReadHashes(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get articles: %w", err)
	}

	out := make([]domarticle.Article, 0, len(hashes))
	for i, fields := range hashes {
		if fields == nil {
			continue
		}
		a, err := fromHash(ids[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	sortNewestFirst(out)
	return out, nil
}

// SearchCandidates returns one page of scored candidates for the terms, best first.
// With no terms it pages through all articles newest first with zero scores.
// Category filtering happens in the ranker: TAG queries cannot express a
// case-insensitive substring match.
func (r *Repo) SearchCandidates(
	ctx context.Context, terms []string, offset, limit int,
) ([]result.Result, error) {
	var (
		sr  *db.SearchResult
		err error
	)
	if len(terms) == 0 {
		sr, err = r.store.SearchList(ctx, &db.ListQuery{
			IndexName: indexName(),
			Query:     "*",
			Offset:    offset,
			Limit:     limit,
			SortBy:    fieldPublished,
			SortDesc:  true,
		})
	} else {
		sr, err = r.store.SearchText(ctx, &db.TextQuery{
			IndexName: indexName(),
			Fields:    []string{fieldTitle, fieldContent},
			Terms:     terms,
			Offset:    offset,
			TopK:      limit,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	if sr == nil {
		return nil, nil
	}

	out := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id, err := strconv.ParseInt(strings.TrimPrefix(e.Key, articlePrefix()), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse article key %q: %w", e.Key, err)
		}
		a, err := fromHash(id, e.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, result.New(a, e.Score))
	}
	return out, nil
}

// Categories returns every category with its article count, sorted by name.
func (r *Repo) Categories(ctx context.Context) ([]domarticle.Category, error) {
	counts, err := r.store.CountBy(ctx, indexName(), fieldCategory)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	out := make([]domarticle.Category, 0, len(counts))
	for name, n := range counts {
		out = append(out, domarticle.Category{Name: name, Articles: n})
	}
	slices.SortFunc(out, func(a, b domarticle.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func toHash(a *domarticle.Article) map[string]string {
	return map[string]string{
		fieldTitle:     a.Title(),
		fieldContent:   a.Content(),
		fieldAuthor:    a.Author(),
		fieldCategory:  a.Category(),
		fieldTags:      strings.Join(a.Tags(), tagSeparator),
		fieldPublished: strconv.FormatInt(a.PublishedAt().Unix(), 10),
	}
}

func fromHash(id int64, fields map[string]string) (domarticle.Article, error) {
	published, err := strconv.ParseInt(fields[fieldPublished], 10, 64)
	if err != nil {
		return domarticle.Article{}, fmt.Errorf("article %d: parse %s: %w", id, fieldPublished, err)
	}
	var tags []string
	if raw := fields[fieldTags]; raw != "" {
		tags = strings.Split(raw, tagSeparator)
	}
	return domarticle.Reconstruct(
		id,
		fields[fieldTitle],
		fields[fieldContent],
		fields[fieldAuthor],
		fields[fieldCategory],
		tags,
		time.Unix(published, 0),
	), nil
}

func sortNewestFirst(articles []domarticle.Article) {
	slices.SortStableFunc(articles, func(a, b domarticle.Article) int {
		if c := b.PublishedAt().Compare(a.PublishedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
}
