package chi

import (
	"context"

	"github.com/kailas-cloud/kbassist/internal/domain/answer"
	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
	"github.com/kailas-cloud/kbassist/internal/domain/question"
	"github.com/kailas-cloud/kbassist/internal/domain/search/query"
	domusage "github.com/kailas-cloud/kbassist/internal/domain/usage"
	healthuc "github.com/kailas-cloud/kbassist/internal/usecase/health"
)

// Searcher runs ranked search.
type Searcher interface {
	Search(ctx context.Context, q query.Query) ([]domarticle.Article, error)
}

// Asker answers questions over explicit context.
type Asker interface {
	Ask(ctx context.Context, q question.Question) (answer.Answer, error)
}

// ArticleService reads single articles and the category list.
type ArticleService interface {
	Get(ctx context.Context, id int64) (domarticle.Article, error)
	Categories(ctx context.Context) ([]domarticle.Category, error)
}

// UsageReporter builds completion budget reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
