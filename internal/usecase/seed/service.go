// Package seed loads fixture articles into the configured store.
package seed

import (
	"context"
	"fmt"
)

// Service writes fixtures to the store.
type Service struct {
	w Writer
}

// New creates a seed service.
func New(w Writer) *Service {
	return &Service{w: w}
}

// Seed validates the whole fixture before writing anything and returns the number of articles stored.
// Re-running with the same fixture leaves the store unchanged.
func (s *Service) Seed(ctx context.Context, f *Fixture) (int, error) {
	arts, err := f.Build()
	if err != nil {
		return 0, fmt.Errorf("validate fixture: %w", err)
	}
	if err := s.w.EnsureSchema(ctx); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}
	if len(arts) == 0 {
		return 0, nil
	}
	if err := s.w.Upsert(ctx, arts...); err != nil {
		return 0, fmt.Errorf("upsert articles: %w", err)
	}
	return len(arts), nil
}
