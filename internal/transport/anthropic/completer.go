// Package anthropic adapts the Anthropic Messages API to the completion contract.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/metrics"
)

// Config holds the Anthropic provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// Completer sends prompts to the Messages API.
type Completer struct {
	client   anthropic.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewCompleter creates an Anthropic completion provider. SDK retries are disabled:
// throttling and failure handling belong to the decorator chain.
func NewCompleter(cfg *Config) *Completer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Completer{
		client:   anthropic.NewClient(opts...),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete sends the prompt as a single user message and concatenates the text blocks of the reply.
func (c *Completer) Complete(ctx context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	start := time.Now()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(req.MaxOutputTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		err = classify(ctx, err)
		metrics.RecordCompletion(c.provider, c.model, time.Since(start), 0, 0, string(domcompletion.ReasonOf(err)))
		return domcompletion.Result{}, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		metrics.RecordCompletion(c.provider, c.model, time.Since(start), 0, 0, string(domcompletion.ReasonMalformed))
		return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonMalformed,
			errors.New("no text blocks in message response"))
	}

	res := domcompletion.Result{
		Text:         text.String(),
		PromptTokens: int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	metrics.RecordCompletion(c.provider, c.model, time.Since(start), res.PromptTokens, res.OutputTokens, "")

	if resp.StopReason == anthropic.StopReasonMaxTokens {
		c.logger.Debug("Completion truncated at max tokens",
			zap.String("model", c.model),
			zap.Int("max_output_tokens", req.MaxOutputTokens),
		)
	}
	return res, nil
}

// HealthCheck lists models to verify the key and endpoint.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return domcompletion.Fail(domcompletion.ReasonCanceled, ctx.Err())
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return domcompletion.Fail(domcompletion.ReasonForStatus(apiErr.StatusCode),
			fmt.Errorf("completion API error %d: %w", apiErr.StatusCode, err))
	}

	return domcompletion.Fail(domcompletion.ReasonTransport, fmt.Errorf("completion request failed: %w", err))
}
