package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/metrics"
)

// Completer is a chat completion provider using the OpenAI-compatible API (OpenAI, Nebius, vLLM).
type Completer struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// Config holds the completion provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	User     string
	Provider string
	Logger   *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete sends the prompt as a single user message.
func (c *Completer) Complete(ctx context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: wireTemperature(req.Temperature),
		User:        c.user,
	})
	if err != nil {
		err = classify(ctx, err)
		metrics.RecordCompletion(c.provider, c.model, time.Since(start), 0, 0, string(domcompletion.ReasonOf(err)))
		return domcompletion.Result{}, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.RecordCompletion(c.provider, c.model, time.Since(start), 0, 0, string(domcompletion.ReasonMalformed))
		return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonMalformed,
			errors.New("empty completion response"))
	}

	res := domcompletion.Result{
		Text:         resp.Choices[0].Message.Content,
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	metrics.RecordCompletion(c.provider, c.model, time.Since(start), res.PromptTokens, res.OutputTokens, "")

	if reason := resp.Choices[0].FinishReason; reason == openai.FinishReasonLength {
		c.logger.Debug("Completion truncated at max tokens",
			zap.String("model", c.model),
			zap.Int("max_output_tokens", req.MaxOutputTokens),
		)
	}
	return res, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// classify turns a client error into a tagged completion failure with a readable message.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return domcompletion.Fail(domcompletion.ReasonCanceled, ctx.Err())
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		reason := domcompletion.ReasonForStatus(apiErr.HTTPStatusCode)
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			reason = domcompletion.ReasonQuota
		}
		return domcompletion.Fail(reason,
			fmt.Errorf("completion API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return domcompletion.Fail(domcompletion.ReasonForStatus(reqErr.HTTPStatusCode),
			fmt.Errorf("completion API error %d: %s", reqErr.HTTPStatusCode, detail))
	}

	return domcompletion.Fail(domcompletion.ReasonTransport, fmt.Errorf("completion request failed: %w", err))
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// wireTemperature maps 0 to the smallest positive float32: the request struct drops a
// zero temperature as omitempty and the API would then apply its own default of 1.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
