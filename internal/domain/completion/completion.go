package completion

import "context"

// Request is a single text completion call.
type Request struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// Result carries generated text and token usage through the decorator chain.
type Result struct {
	Text         string
	PromptTokens int
	OutputTokens int
}

// TotalTokens returns prompt plus output tokens.
func (r Result) TotalTokens() int { return r.PromptTokens + r.OutputTokens }

// Completer is the shared text completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, req Request) (Result, error)
}

// HealthChecker verifies completion provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
