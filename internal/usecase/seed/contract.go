package seed

import (
	"context"

	"github.com/kailas-cloud/kbassist/internal/domain/article"
)

// Writer stores articles idempotently by id.
type Writer interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, articles ...article.Article) error
}
