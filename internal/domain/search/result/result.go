package result

import "github.com/kailas-cloud/kbassist/internal/domain/article"

// Result is a single scored search hit. Score is store-relative: higher is more relevant.
type Result struct {
	article article.Article
	score   float64
}

// New creates a search result.
func New(a article.Article, score float64) Result {
	return Result{article: a, score: score}
}

// Article returns the matched article.
func (r *Result) Article() article.Article { return r.article }

// Score returns the lexical relevance score.
func (r *Result) Score() float64 { return r.score }

// WithScore returns a copy carrying a different score.
func (r *Result) WithScore(score float64) Result {
	return Result{article: r.article, score: score}
}
