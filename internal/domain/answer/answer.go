package answer

import (
	"slices"

	"github.com/kailas-cloud/kbassist/internal/domain/article"
	"github.com/kailas-cloud/kbassist/internal/domain/completion"
)

// Fixed answer texts.
const (
	NoContextText       = "No relevant context found to answer your question."
	generationErrPrefix = "Error generating answer: "
	retrievalErrPrefix  = "Error retrieving context: "
)

// ReasonStoreUnavailable marks a failed answer caused by the document store.
const ReasonStoreUnavailable completion.Reason = "store_unavailable"

// Status is the answer outcome.
type Status string

// Answer outcomes.
const (
	StatusAnswered  Status = "answered"
	StatusNoContext Status = "no_context"
	StatusFailed    Status = "failed"
)

// Answer is the result of a question over explicit context.
type Answer struct {
	text    string
	context []article.Article
	status  Status
	reason  completion.Reason
}

// Answered creates a successful answer.
func Answered(text string, context []article.Article) Answer {
	return Answer{text: text, context: slices.Clone(context), status: StatusAnswered}
}

// NoContext creates the fixed no-context answer.
func NoContext() Answer {
	return Answer{text: NoContextText, status: StatusNoContext}
}

// GenerationFailed creates an answer for a failed completion call; context is still reported.
func GenerationFailed(reason completion.Reason, detail string, context []article.Article) Answer {
	return Answer{
		text:    generationErrPrefix + detail,
		context: slices.Clone(context),
		status:  StatusFailed,
		reason:  reason,
	}
}

// RetrievalFailed creates an answer for a failed context fetch.
func RetrievalFailed(detail string) Answer {
	return Answer{
		text:   retrievalErrPrefix + detail,
		status: StatusFailed,
		reason: ReasonStoreUnavailable,
	}
}

// Text returns the answer text.
func (a *Answer) Text() string { return a.text }

// Context returns the articles used, in prioritized order.
func (a *Answer) Context() []article.Article { return a.context }

// Status returns the outcome.
func (a *Answer) Status() Status { return a.status }

// FailureReason returns the failure classification (empty unless failed).
func (a *Answer) FailureReason() completion.Reason { return a.reason }
