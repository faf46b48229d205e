package search

import (
	"context"

	"github.com/kailas-cloud/kbassist/internal/domain/search/result"
)

// Repository pages through scored candidate articles. terms are an AND conjunction
// and pages come in descending score order. With no terms every article matches with
// a zero score and pages come newest first. A page shorter than limit is the last one.
type Repository interface {
	SearchCandidates(ctx context.Context, terms []string, offset, limit int) ([]result.Result, error)
}
