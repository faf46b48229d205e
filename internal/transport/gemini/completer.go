// Package gemini adapts the Gemini generateContent API to the completion contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/metrics"
)

// Config holds the Gemini provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// Completer generates text with a Gemini model.
type Completer struct {
	client   *genai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewCompleter creates a Gemini completion provider.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Completer{
		client:   client,
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}, nil
}

// Complete sends the prompt as a single user turn.
func (c *Completer) Complete(ctx context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	start := time.Now()

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(req.Temperature)),
			MaxOutputTokens: int32(req.MaxOutputTokens),
		},
	)
	if err != nil {
		err = classify(ctx, err)
		metrics.RecordCompletion(c.provider, c.model, time.Since(start), 0, 0, string(domcompletion.ReasonOf(err)))
		return domcompletion.Result{}, err
	}

	text := resp.Text()
	if text == "" {
		metrics.RecordCompletion(c.provider, c.model, time.Since(start), 0, 0, string(domcompletion.ReasonMalformed))
		return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonMalformed,
			errors.New("no text in generate content response"))
	}

	res := domcompletion.Result{Text: text}
	if u := resp.UsageMetadata; u != nil {
		res.PromptTokens = int(u.PromptTokenCount)
		res.OutputTokens = int(u.CandidatesTokenCount)
	}
	metrics.RecordCompletion(c.provider, c.model, time.Since(start), res.PromptTokens, res.OutputTokens, "")

	if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		c.logger.Debug("Completion truncated at max tokens",
			zap.String("model", c.model),
			zap.Int("max_output_tokens", req.MaxOutputTokens),
		)
	}
	return res, nil
}

// HealthCheck fetches the configured model's metadata.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("get model: %w", err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return domcompletion.Fail(domcompletion.ReasonCanceled, ctx.Err())
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		reason := domcompletion.ReasonForStatus(apiErr.Code)
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			reason = domcompletion.ReasonRateLimited
		}
		return domcompletion.Fail(reason,
			fmt.Errorf("completion API error %d: %s", apiErr.Code, apiErr.Message))
	}

	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return domcompletion.Fail(domcompletion.ReasonRateLimited, fmt.Errorf("completion request failed: %w", err))
	}
	return domcompletion.Fail(domcompletion.ReasonTransport, fmt.Errorf("completion request failed: %w", err))
}
