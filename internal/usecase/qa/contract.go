package qa

import (
	"context"

	"github.com/kailas-cloud/kbassist/internal/domain/answer"
	"github.com/kailas-cloud/kbassist/internal/domain/article"
)

// ArticleReader fetches context articles by id. Unknown ids are skipped.
type ArticleReader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]article.Article, error)
}

// Assembler fits context articles into the prompt budget.
type Assembler interface {
	Assemble(ctx context.Context, articles []article.Article) answer.Bundle
}
