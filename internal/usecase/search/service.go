// Package search ranks knowledge base articles against a query.
package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/kbassist/internal/domain"
	"github.com/kailas-cloud/kbassist/internal/domain/article"
	"github.com/kailas-cloud/kbassist/internal/domain/search/query"
	"github.com/kailas-cloud/kbassist/internal/domain/search/result"
	"github.com/kailas-cloud/kbassist/internal/usecase/ranking"
)

// DefaultMaxCandidates is the store page size used when paging through candidates.
const DefaultMaxCandidates = 200

// Service handles ranked article search.
type Service struct {
	repo     Repository
	pageSize int
}

// New creates a search service. maxCandidates is the page size pulled from the store per
// round trip; <= 0 selects DefaultMaxCandidates.
func New(repo Repository, maxCandidates int) *Service {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Service{repo: repo, pageSize: maxCandidates}
}

// Search returns at most q.Limit() articles in q.Category() ordered by relevance, then recency.
// An empty query ranks purely by recency. Pages are pulled until the store runs out or no
// later candidate can outrank the current top q.Limit() matches.
func (s *Service) Search(ctx context.Context, q query.Query) ([]article.Article, error) {
	var (
		terms    = ranking.Terms(q.Text())
		byRecent = q.IsEmpty()
		pageSize = max(q.Limit(), s.pageSize)
		matches  []result.Result
	)

	for offset := 0; ; offset += pageSize {
		page, err := s.repo.SearchCandidates(ctx, terms, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		if byRecent {
			for i := range page {
				page[i] = page[i].WithScore(0)
			}
		}

		matches = ranking.Rank(append(matches, page...), q.Category())
		if len(matches) > q.Limit() {
			matches = matches[:q.Limit()]
		}

		if len(page) < pageSize {
			break
		}
		if len(matches) == q.Limit() && exhausted(page[len(page)-1], matches[len(matches)-1], byRecent) {
			break
		}
	}

	return ranking.ByRelevance(matches, "", q.Limit()), nil
}

// exhausted reports whether every candidate after last ranks strictly below kth.
// Pages are ordered by score, or by publish time for empty queries, so only a strict
// drop in that key rules out ties that the ranker would break the other way.
func exhausted(last, kth result.Result, byRecent bool) bool {
	if byRecent {
		a, b := last.Article(), kth.Article()
		return a.PublishedAt().Before(b.PublishedAt())
	}
	return last.Score() < kth.Score()
}
