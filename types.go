package kbassist

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/kbassist/internal/domain"
	domanswer "github.com/kailas-cloud/kbassist/internal/domain/answer"
	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
)

// Errors returned by the Client. Match with errors.Is.
var (
	ErrInvalidInput     = domain.ErrInvalidInput
	ErrStoreUnavailable = domain.ErrStoreUnavailable
	ErrArticleNotFound  = domain.ErrArticleNotFound
)

// Article is a knowledge base article.
type Article struct {
	ID          int64
	Title       string
	Content     string
	Author      string
	Category    string // empty when uncategorized
	Tags        []string
	PublishedAt time.Time
}

// AnswerStatus is the outcome of AnswerQuestion.
type AnswerStatus string

// Answer outcomes.
const (
	AnswerOK        AnswerStatus = AnswerStatus(domanswer.StatusAnswered)
	AnswerNoContext AnswerStatus = AnswerStatus(domanswer.StatusNoContext)
	AnswerFailed    AnswerStatus = AnswerStatus(domanswer.StatusFailed)
)

// Answer is the generated answer and the articles it was grounded on.
type Answer struct {
	Text          string
	Status        AnswerStatus
	FailureReason string // set when Status is AnswerFailed
	Context       []Article
}

// CompletionRequest is one text generation call.
type CompletionRequest struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// CompletionResult is generated text with optional token usage.
type CompletionResult struct {
	Text         string
	PromptTokens int
	OutputTokens int
}

// Completer generates text. Implementations wrap an LLM provider client.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (CompletionResult, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	return f(ctx, req)
}

// completerAdapter wraps a public Completer to satisfy the internal contract.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	r, err := a.inner.Complete(ctx, CompletionRequest{
		Prompt:          req.Prompt,
		MaxOutputTokens: req.MaxOutputTokens,
		Temperature:     req.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonCanceled, err)
		}
		return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonTransport, err)
	}
	if r.Text == "" {
		return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonMalformed, errors.New("empty completion"))
	}
	return domcompletion.Result{Text: r.Text, PromptTokens: r.PromptTokens, OutputTokens: r.OutputTokens}, nil
}

// noopCompleter fails every call (used when no completer is configured).
type noopCompleter struct{}

func (noopCompleter) Complete(context.Context, domcompletion.Request) (domcompletion.Result, error) {
	return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonTransport,
		errors.New("kbassist: completer not configured (use WithCompleter)"))
}

func articleFromDomain(a *domarticle.Article) Article {
	return Article{
		ID:          a.ID(),
		Title:       a.Title(),
		Content:     a.Content(),
		Author:      a.Author(),
		Category:    a.Category(),
		Tags:        a.Tags(),
		PublishedAt: a.PublishedAt(),
	}
}

func articlesFromDomain(arts []domarticle.Article) []Article {
	out := make([]Article, len(arts))
	for i := range arts {
		out[i] = articleFromDomain(&arts[i])
	}
	return out
}

func answerFromDomain(a *domanswer.Answer) Answer {
	return Answer{
		Text:          a.Text(),
		Status:        AnswerStatus(a.Status()),
		FailureReason: string(a.FailureReason()),
		Context:       articlesFromDomain(a.Context()),
	}
}
