package article

import (
	"context"

	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
)

// Repository reads single articles and category statistics.
type Repository interface {
	Get(ctx context.Context, id int64) (domarticle.Article, error)
	Categories(ctx context.Context) ([]domarticle.Category, error)
}
