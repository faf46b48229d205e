// Package qa answers questions over an explicit set of context articles.
package qa

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/domain/answer"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/domain/question"
	"github.com/kailas-cloud/kbassist/internal/logger"
	"github.com/kailas-cloud/kbassist/internal/metrics"
	"github.com/kailas-cloud/kbassist/internal/usecase/ranking"
)

// Defaults for Config fields left at zero.
const (
	DefaultAnswerMaxTokens = 500
	DefaultTemperature     = 0.3
)

// Config holds answer generation settings.
type Config struct {
	MaxContextArticles int
	AnswerMaxTokens    int
	Temperature        *float64 // nil selects DefaultTemperature; 0 is honoured
}

// Service runs fetch, prioritize, assemble and complete for one question.
type Service struct {
	articles  ArticleReader
	assembler Assembler
	completer domcompletion.Completer
	cfg       Config
}

// New creates a question answering service.
func New(articles ArticleReader, assembler Assembler, completer domcompletion.Completer, cfg Config) *Service {
	if cfg.MaxContextArticles <= 0 {
		cfg.MaxContextArticles = ranking.DefaultMaxContextArticles
	}
	if cfg.AnswerMaxTokens <= 0 {
		cfg.AnswerMaxTokens = DefaultAnswerMaxTokens
	}
	if cfg.Temperature == nil {
		t := DefaultTemperature
		cfg.Temperature = &t
	}
	return &Service{articles: articles, assembler: assembler, completer: completer, cfg: cfg}
}

// Ask answers q. Collaborator failures are reported inside the Answer; the error return
// is reserved for input the caller must fix.
func (s *Service) Ask(ctx context.Context, q question.Question) (answer.Answer, error) {
	ctx = logger.WithFields(ctx, zap.Int("context_ids", len(q.ContextIDs())))
	log := logger.FromContext(ctx)

	if !q.HasContext() {
		return s.finish(answer.NoContext()), nil
	}

	arts, err := s.articles.GetByIDs(ctx, q.ContextIDs())
	if err != nil {
		log.Error("Failed to fetch context articles", zap.Error(err))
		return s.finish(answer.RetrievalFailed(err.Error())), nil
	}
	if len(arts) == 0 {
		return s.finish(answer.NoContext()), nil
	}

	prioritized := ranking.Prioritize(q.Text(), arts, s.cfg.MaxContextArticles)
	if dropped := len(arts) - len(prioritized); dropped > 0 {
		metrics.PrioritizedDroppedTotal.Add(float64(dropped))
	}

	bundle := s.assembler.Assemble(ctx, prioritized)

	out := domcompletion.Attempt(ctx, s.completer, domcompletion.Request{
		Prompt:          answerPrompt(bundle.Text, q.Text()),
		MaxOutputTokens: s.cfg.AnswerMaxTokens,
		Temperature:     *s.cfg.Temperature,
	})
	if !out.Succeeded() {
		log.Warn("Answer generation failed",
			zap.String("reason", string(out.Reason())),
			zap.Error(out.Err()),
		)
		return s.finish(answer.GenerationFailed(out.Reason(), out.Err().Error(), prioritized)), nil
	}

	log.Debug("Question answered",
		zap.Int("context_articles", len(prioritized)),
		zap.String("context_mode", string(bundle.Mode)),
		zap.Int("context_tokens", bundle.Tokens),
	)
	return s.finish(answer.Answered(out.Text(), prioritized)), nil
}

func (s *Service) finish(a answer.Answer) answer.Answer {
	metrics.AnswersTotal.WithLabelValues(string(a.Status())).Inc()
	return a
}
