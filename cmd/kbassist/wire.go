package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/config"
	"github.com/kailas-cloud/kbassist/internal/db"
	dbRedis "github.com/kailas-cloud/kbassist/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/kbassist/internal/db/sqlite"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/domain/token"
	"github.com/kailas-cloud/kbassist/internal/metrics"
	articlerepo "github.com/kailas-cloud/kbassist/internal/repository/article"
	budgetrepo "github.com/kailas-cloud/kbassist/internal/repository/budget"
	"github.com/kailas-cloud/kbassist/internal/repository/summarycache"
	anthropicComp "github.com/kailas-cloud/kbassist/internal/transport/anthropic"
	geminiComp "github.com/kailas-cloud/kbassist/internal/transport/gemini"
	openaiComp "github.com/kailas-cloud/kbassist/internal/transport/openai"
	articleuc "github.com/kailas-cloud/kbassist/internal/usecase/article"
	"github.com/kailas-cloud/kbassist/internal/usecase/assembler"
	completionuc "github.com/kailas-cloud/kbassist/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/kbassist/internal/usecase/health"
	qauc "github.com/kailas-cloud/kbassist/internal/usecase/qa"
	searchuc "github.com/kailas-cloud/kbassist/internal/usecase/search"
	seeduc "github.com/kailas-cloud/kbassist/internal/usecase/seed"
	usageuc "github.com/kailas-cloud/kbassist/internal/usecase/usage"
)

// Budget counters outlive their period by a margin so late reads still see them.
const (
	dailyBudgetTTL   = 48 * time.Hour
	monthlyBudgetTTL = 62 * 24 * time.Hour
)

// articleStore is everything the services need from an article backend.
type articleStore interface {
	searchuc.Repository
	qauc.ArticleReader
	seeduc.Writer
	articleuc.Repository
}

// completer is a provider client: completion plus a reachability probe.
type completer interface {
	domcompletion.Completer
	domcompletion.HealthChecker
}

// app is the composition root shared by serve and the one-shot commands.
type app struct {
	store    db.Store
	articles articleStore
	budget   *completionuc.BudgetTracker

	search     *searchuc.Service
	qa         *qauc.Service
	articleSvc *articleuc.Service
	seed       *seeduc.Service
	usage      *usageuc.Service
	health     *healthuc.Service
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, articles, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	if err := articles.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure article schema: %w", err)
	}

	base, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	// Single tracker shared by both completion paths and the usage report.
	budgetCfg := cfg.Completion.Budget
	action := completionuc.BudgetActionWarn
	if budgetCfg.Action == string(completionuc.BudgetActionReject) {
		action = completionuc.BudgetActionReject
	}
	budget := completionuc.NewBudgetTracker(
		cfg.Completion.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
	).WithStore(ctx, budgetrepo.New(store, dailyBudgetTTL, monthlyBudgetTTL))

	answerer := buildCompleterChain(cfg, base, budget, logger)

	var summarizer domcompletion.Completer = answerer
	if !cfg.Cache.SummaryDisabled {
		model := cfg.Completion.Provider + "/" + cfg.ActiveProvider().Model
		summarizer = summarycache.New(answerer, store, model,
			time.Duration(cfg.Cache.SummaryTTLSec)*time.Second, metrics.SummaryCacheTotal, logger)
	}

	p := cfg.Pipeline
	asm := assembler.New(summarizer, token.NewEstimator(p.CharsPerToken), assembler.Config{
		BudgetTokens:       p.ContextBudgetTokens,
		SummaryInputTokens: p.SummaryInputTokens,
		SummaryMaxTokens:   p.SummaryMaxTokens,
		Temperature:        p.Temperature,
	})

	return &app{
		store:    store,
		articles: articles,
		budget:   budget,
		search:   searchuc.New(articles, cfg.Search.MaxCandidates),
		qa: qauc.New(articles, asm, answerer, qauc.Config{
			MaxContextArticles: p.MaxContextArticles,
			AnswerMaxTokens:    p.AnswerMaxTokens,
			Temperature:        p.Temperature,
		}),
		articleSvc: articleuc.New(articles),
		seed:       seeduc.New(articles),
		usage:      usageuc.New(budget),
		health:     healthuc.New(store, answerer, 5*time.Second),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

func openStore(cfg *config.Config) (db.Store, articleStore, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, articlerepo.NewRedis(s), nil
	case config.DriverSQLite:
		s, err := dbSQLite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, articlerepo.NewSQL(s.DB()), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func buildProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (completer, error) {
	name := cfg.Completion.Provider
	p := cfg.ActiveProvider()

	switch name {
	case config.ProviderOpenAI:
		return openaiComp.NewCompleter(&openaiComp.Config{
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Model:    p.Model,
			User:     p.User,
			Provider: name,
			Logger:   logger,
		}), nil
	case config.ProviderAnthropic:
		return anthropicComp.NewCompleter(&anthropicComp.Config{
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Model:    p.Model,
			Provider: name,
			Logger:   logger,
		}), nil
	case config.ProviderGemini:
		c, err := geminiComp.NewCompleter(ctx, &geminiComp.Config{
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Model:    p.Model,
			Provider: name,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", name)
	}
}

// buildCompleterChain assembles: provider -> timeout -> rate limit -> instrumented (budget).
func buildCompleterChain(
	cfg *config.Config, base completer, budget *completionuc.BudgetTracker, logger *zap.Logger,
) *completionuc.InstrumentedCompleter {
	var c completer = &timeoutCompleter{inner: base, timeout: cfg.CompletionTimeout()}

	if rl := cfg.Completion.RateLimit; rl.RPS > 0 {
		c = completionuc.NewRateLimited(c, rl.RPS, rl.Burst, time.Duration(rl.MaxWaitSec)*time.Second)
	}

	return completionuc.NewInstrumentedCompleter(
		c, cfg.Completion.Provider, cfg.ActiveProvider().Model, budget, logger,
	)
}

// timeoutCompleter bounds each provider call.
type timeoutCompleter struct {
	inner   completer
	timeout time.Duration
}

func (t *timeoutCompleter) Complete(ctx context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Complete(ctx, req)
}

func (t *timeoutCompleter) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.HealthCheck(ctx)
}
