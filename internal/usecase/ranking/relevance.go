// Package ranking orders candidate articles for search results and question context.
package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/kailas-cloud/kbassist/internal/domain/article"
	"github.com/kailas-cloud/kbassist/internal/domain/search/result"
)

// ByRelevance filters candidates by category, orders them by score then recency and caps at limit.
// Category matching is a case-insensitive substring test; uncategorized articles never match
// a non-empty filter. Ties on score and publish time fall back to ascending id.
func ByRelevance(cands []result.Result, category string, limit int) []article.Article {
	kept := Rank(cands, category)
	if limit >= 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	out := make([]article.Article, len(kept))
	for i, c := range kept {
		out[i] = c.Article()
	}
	return out
}

// Rank keeps the candidates in category and sorts them like ByRelevance, without a cap.
func Rank(cands []result.Result, category string) []result.Result {
	needle := strings.ToLower(strings.TrimSpace(category))

	kept := make([]result.Result, 0, len(cands))
	for _, c := range cands {
		if needle != "" && !InCategory(c.Article(), needle) {
			continue
		}
		kept = append(kept, c)
	}
	slices.SortStableFunc(kept, Compare)
	return kept
}

// InCategory reports whether a's category contains needle, which must already be lowercased.
func InCategory(a article.Article, needle string) bool {
	return strings.Contains(strings.ToLower(a.Category()), needle)
}

// Compare orders x before y when it ranks higher: score desc, published desc, id asc.
func Compare(x, y result.Result) int {
	if c := cmp.Compare(y.Score(), x.Score()); c != 0 {
		return c
	}
	ax, ay := x.Article(), y.Article()
	if c := ay.PublishedAt().Compare(ax.PublishedAt()); c != 0 {
		return c
	}
	return cmp.Compare(ax.ID(), ay.ID())
}
