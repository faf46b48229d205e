package query

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/kbassist/internal/domain"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed search text length.
	MaxTextLength     = 512
	MaxCategoryLength = 255
	DefaultLimit      = 5
	MaxLimit          = 25
)

// Query is a validated ranked-search request.
type Query struct {
	text     string
	category string
	limit    int
}

// New validates and normalizes search parameters.
// Empty text is allowed and means "everything, newest first". limit=0 selects DefaultLimit.
func New(text, category string, limit int) (Query, error) {
	text = strings.TrimSpace(text)
	category = strings.TrimSpace(category)

	if utf8.RuneCountInString(text) > MaxTextLength {
		return Query{}, domain.NewInvalidInput("query", "too long (max "+strconv.Itoa(MaxTextLength)+" chars)")
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return Query{}, domain.NewInvalidInput("category", "too long (max "+strconv.Itoa(MaxCategoryLength)+" chars)")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Query{}, domain.NewInvalidInput("limit", "must be between 1 and "+strconv.Itoa(MaxLimit))
	}

	return Query{text: text, category: category, limit: limit}, nil
}

// Text returns the trimmed search text.
func (q *Query) Text() string { return q.text }

// IsEmpty reports whether the query carries no search text.
func (q *Query) IsEmpty() bool { return q.text == "" }

// Category returns the optional category filter.
func (q *Query) Category() string { return q.category }

// Limit returns the maximum number of results.
func (q *Query) Limit() int { return q.limit }
