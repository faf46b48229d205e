// Package assembler turns context articles into prompt text that fits a token budget.
package assembler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/domain/answer"
	"github.com/kailas-cloud/kbassist/internal/domain/article"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/domain/token"
	"github.com/kailas-cloud/kbassist/internal/logger"
	"github.com/kailas-cloud/kbassist/internal/metrics"
)

// Defaults for Config fields left at zero.
const (
	DefaultBudgetTokens       = 4000
	DefaultSummaryInputTokens = 12000
	DefaultSummaryMaxTokens   = 2000
	DefaultTemperature        = 0.3
)

const blockSeparator = "\n\n---\n\n"

// Config holds the token budget settings.
type Config struct {
	BudgetTokens       int
	SummaryInputTokens int
	SummaryMaxTokens   int
	Temperature        *float64 // nil selects DefaultTemperature; 0 is honoured
}

func (c *Config) applyDefaults() {
	if c.BudgetTokens <= 0 {
		c.BudgetTokens = DefaultBudgetTokens
	}
	if c.SummaryInputTokens <= 0 {
		c.SummaryInputTokens = DefaultSummaryInputTokens
	}
	if c.SummaryMaxTokens <= 0 {
		c.SummaryMaxTokens = DefaultSummaryMaxTokens
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
}

// Assembler builds the context block for a question.
type Assembler struct {
	summarizer domcompletion.Completer
	est        token.Estimator
	chunker    token.Chunker
	cfg        Config
}

// New creates an assembler. summarizer is only called when the context exceeds the budget.
func New(summarizer domcompletion.Completer, est token.Estimator, cfg Config) *Assembler {
	cfg.applyDefaults()
	return &Assembler{
		summarizer: summarizer,
		est:        est,
		chunker:    token.NewChunker(est),
		cfg:        cfg,
	}
}

// Budget returns the context token budget in effect.
func (a *Assembler) Budget() int { return a.cfg.BudgetTokens }

// Assemble formats articles in order and fits the result into the budget.
// Summarization failures degrade to a truncated prefix and are never returned.
func (a *Assembler) Assemble(ctx context.Context, articles []article.Article) answer.Bundle {
	if len(articles) == 0 {
		metrics.ContextAssemblyTotal.WithLabelValues(string(answer.ModeEmpty)).Inc()
		return answer.Bundle{Mode: answer.ModeEmpty}
	}

	full := Format(articles)
	bundle := answer.Bundle{Articles: articles, Text: full, Mode: answer.ModeVerbatim}

	if a.est.Estimate(full) > a.cfg.BudgetTokens {
		summary, err := a.summarize(ctx, full)
		if err != nil {
			logger.FromContext(ctx).Warn("Context summarization failed, truncating",
				zap.Int("articles", len(articles)),
				zap.Int("budget_tokens", a.cfg.BudgetTokens),
				zap.String("reason", string(domcompletion.ReasonOf(err))),
				zap.Error(err),
			)
			bundle.Text = a.est.Truncate(full, a.cfg.BudgetTokens)
			bundle.Mode = answer.ModeTruncated
		} else {
			bundle.Text = a.est.Truncate(summary, a.cfg.BudgetTokens)
			bundle.Mode = answer.ModeSummarized
		}
	}

	bundle.Tokens = a.est.Estimate(bundle.Text)
	metrics.ContextAssemblyTotal.WithLabelValues(string(bundle.Mode)).Inc()
	metrics.ContextTokens.Observe(float64(bundle.Tokens))
	return bundle
}

// summarize sends each chunk of text to the summarizer and joins the summaries.
func (a *Assembler) summarize(ctx context.Context, text string) (string, error) {
	var parts []string
	for piece := range a.chunker.Chunks(text, a.cfg.SummaryInputTokens) {
		out := domcompletion.Attempt(ctx, a.summarizer, domcompletion.Request{
			Prompt:          SummaryPrompt(piece),
			MaxOutputTokens: a.cfg.SummaryMaxTokens,
			Temperature:     *a.cfg.Temperature,
		})
		if !out.Succeeded() {
			return "", fmt.Errorf("summarize chunk %d: %w", len(parts)+1, out.Err())
		}
		parts = append(parts, out.Text())
	}
	return strings.Join(parts, "\n\n"), nil
}

// Format renders articles as blocks separated by horizontal rules.
func Format(articles []article.Article) string {
	blocks := make([]string, len(articles))
	for i := range articles {
		blocks[i] = formatBlock(&articles[i])
	}
	return strings.Join(blocks, blockSeparator)
}

func formatBlock(a *article.Article) string {
	var b strings.Builder
	b.WriteString("Title: " + a.Title() + "\n")
	author := a.Author()
	if author == "" {
		author = "Unknown"
	}
	b.WriteString("Author: " + author + "\n")
	if a.HasCategory() {
		b.WriteString("Category: " + a.Category() + "\n")
	}
	b.WriteString("Content: " + a.Content() + "\n")
	if tags := a.Tags(); len(tags) > 0 {
		b.WriteString("Tags: " + strings.Join(tags, ", ") + "\n")
	}
	return b.String()
}

// SummaryPrompt wraps context text in the summarization instruction.
func SummaryPrompt(content string) string {
	return "Please summarize the following articles concisely while preserving key information:\n\n" +
		content +
		"\n\nProvide a concise summary that captures the main points and key details:"
}
