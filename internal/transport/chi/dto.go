package chi

import (
	"time"

	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
	domusage "github.com/kailas-cloud/kbassist/internal/domain/usage"
)

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeQuotaExceeded    ErrorCode = "completion_quota_exceeded"
	ErrorCodeCompletionError  ErrorCode = "completion_provider_error"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ArticleResponse is the public shape of an article.
type ArticleResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	AuthorName    string    `json:"author_name"`
	CategoryName  *string   `json:"category_name"`
	Tags          []string  `json:"tags"`
	PublishedDate time.Time `json:"published_date"`
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question   string  `json:"question" validate:"required,max=2000"`
	ContextIDs []int64 `json:"context_ids" validate:"max=50,dive,gt=0"`
}

// AskResponse is the body returned by POST /api/v1/ask.
type AskResponse struct {
	Answer        string            `json:"answer"`
	Status        string            `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
	ContextUsed   []ArticleResponse `json:"context_used"`
}

// CategoryResponse is one entry of GET /api/v1/categories.
type CategoryResponse struct {
	Name         string `json:"name"`
	ArticleCount int    `json:"article_count"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Budget        BudgetStatus `json:"budget"`
}

// BudgetStatus reports completion token budget consumption.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensUsed      int64      `json:"tokens_used"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
	ResetsInSeconds int64      `json:"resets_in_seconds,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func ArticleToResponse(a *domarticle.Article) ArticleResponse {
	resp := ArticleResponse{
		ID:            a.ID(),
		Title:         a.Title(),
		Content:       a.Content(),
		AuthorName:    a.Author(),
		Tags:          a.Tags(),
		PublishedDate: a.PublishedAt(),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if a.HasCategory() {
		c := a.Category()
		resp.CategoryName = &c
	}
	return resp
}

func articlesToResponse(arts []domarticle.Article) []ArticleResponse {
	out := make([]ArticleResponse, len(arts))
	for i := range arts {
		out[i] = ArticleToResponse(&arts[i])
	}
	return out
}

func usageToResponse(report *domusage.Report) UsageResponse {
	b := report.Budget()
	resp := UsageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensUsed:      b.TokensUsed(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}

	if w := report.Window(); w.Bounded() {
		resp.PeriodStartAt, resp.PeriodEndAt = &w.Start, &w.End
	}
	if resetsAt := b.ResetsAt(); !resetsAt.IsZero() {
		resp.Budget.ResetsAt = &resetsAt
		resp.Budget.ResetsInSeconds = int64(b.ResetsIn(time.Now()).Seconds())
	}
	return resp
}
