// Package article serves article lookups and category listings.
package article

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/kbassist/internal/domain"
	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
)

// Service handles read access to the knowledge base.
type Service struct {
	repo Repository
}

// New creates an article service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one article. Unknown ids yield domain.ErrArticleNotFound.
func (s *Service) Get(ctx context.Context, id int64) (domarticle.Article, error) {
	if id <= 0 {
		return domarticle.Article{}, domain.NewInvalidInput("id", "must be positive")
	}
	a, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, domain.ErrArticleNotFound):
		return domarticle.Article{}, err
	default:
		return domarticle.Article{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
}

// Categories lists categories with their article counts.
func (s *Service) Categories(ctx context.Context) ([]domarticle.Category, error) {
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return cats, nil
}
