package ranking

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/kbassist/internal/domain/article"
)

// Overlap weights.
const (
	TitleWeight               = 3
	BodyWeight                = 1
	DefaultMaxContextArticles = 5
)

// OverlapScore counts distinct question words found in the title and body of a.
func OverlapScore(questionWords map[string]struct{}, a *article.Article) int {
	title := Words(a.Title())
	body := Words(a.Content())
	score := 0
	for w := range questionWords {
		if _, ok := title[w]; ok {
			score += TitleWeight
		}
		if _, ok := body[w]; ok {
			score += BodyWeight
		}
	}
	return score
}

// Prioritize keeps the maxArticles articles sharing the most words with the question.
// Inputs that already fit are returned unchanged. Equal scores keep input order.
func Prioritize(question string, articles []article.Article, maxArticles int) []article.Article {
	if maxArticles <= 0 {
		maxArticles = DefaultMaxContextArticles
	}
	if len(articles) <= maxArticles {
		return articles
	}

	qw := Words(question)
	type scored struct {
		a     article.Article
		score int
	}
	ranked := make([]scored, len(articles))
	for i := range articles {
		ranked[i] = scored{a: articles[i], score: OverlapScore(qw, &articles[i])}
	}
	slices.SortStableFunc(ranked, func(x, y scored) int {
		return cmp.Compare(y.score, x.score)
	})

	out := make([]article.Article, maxArticles)
	for i := range out {
		out[i] = ranked[i].a
	}
	return out
}
