package question

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/kbassist/internal/domain"
)

// Question limits.
const (
	MaxTextLength = 2000
	MaxContextIDs = 50
)

// Question is a validated question over an explicit set of context articles.
type Question struct {
	text       string
	contextIDs []int64
}

// New validates a question. Context ids must be positive; duplicates are dropped keeping first occurrence.
// An empty id list is valid and yields a no-context answer downstream.
func New(text string, contextIDs []int64) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, domain.NewInvalidInput("question", "is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return Question{}, domain.NewInvalidInput("question", "too long (max "+strconv.Itoa(MaxTextLength)+" chars)")
	}
	if len(contextIDs) > MaxContextIDs {
		return Question{}, domain.NewInvalidInput("context_ids", "too many ids (max "+strconv.Itoa(MaxContextIDs)+")")
	}

	ids := make([]int64, 0, len(contextIDs))
	seen := make(map[int64]struct{}, len(contextIDs))
	for _, id := range contextIDs {
		if id <= 0 {
			return Question{}, domain.NewInvalidInput("context_ids", "ids must be positive, got "+strconv.FormatInt(id, 10))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return Question{text: text, contextIDs: ids}, nil
}

// Text returns the trimmed question text.
func (q *Question) Text() string { return q.text }

// ContextIDs returns the deduplicated context article ids.
func (q *Question) ContextIDs() []int64 { return q.contextIDs }

// HasContext reports whether any context ids were supplied.
func (q *Question) HasContext() bool { return len(q.contextIDs) > 0 }
