// Package kbassist ranks knowledge base articles and answers questions over them with an LLM.
package kbassist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/db"
	dbRedis "github.com/kailas-cloud/kbassist/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/kbassist/internal/db/sqlite"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/domain/question"
	"github.com/kailas-cloud/kbassist/internal/domain/search/query"
	"github.com/kailas-cloud/kbassist/internal/domain/token"
	logpkg "github.com/kailas-cloud/kbassist/internal/logger"
	articlerepo "github.com/kailas-cloud/kbassist/internal/repository/article"
	"github.com/kailas-cloud/kbassist/internal/usecase/assembler"
	qauc "github.com/kailas-cloud/kbassist/internal/usecase/qa"
	searchuc "github.com/kailas-cloud/kbassist/internal/usecase/search"
	seeduc "github.com/kailas-cloud/kbassist/internal/usecase/seed"
)

const (
	driverSQLite = "sqlite"
	driverRedis  = "redis"

	defaultReadinessTimeout = 10 * time.Second
)

// articleStore is what the pipeline needs from an article backend.
type articleStore interface {
	searchuc.Repository
	qauc.ArticleReader
	seeduc.Writer
}

// Client runs ranked search and question answering in-process.
type Client struct {
	store     db.Store
	searchSvc *searchuc.Service
	qaSvc     *qauc.Service
	seedSvc   *seeduc.Service
	logger    *zap.Logger
}

// New creates a Client and connects to the article store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{logger: zap.NewNop()}
	for _, o := range opts {
		o(cfg)
	}

	store, articles, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("kbassist: database not ready: %w", err)
	}
	if err := articles.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("kbassist: ensure schema: %w", err)
	}

	return wireClient(store, articles, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, articleStore, error) {
	switch cfg.driver {
	case driverSQLite:
		s, err := dbSQLite.Open(cfg.path)
		if err != nil {
			return nil, nil, fmt.Errorf("kbassist: open sqlite store: %w", err)
		}
		return s, articlerepo.NewSQL(s.DB()), nil
	case driverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("kbassist: create redis store: %w", err)
		}
		return s, articlerepo.NewRedis(s), nil
	case "":
		return nil, nil, errors.New("kbassist: store required (use WithSQLite or WithRedis)")
	default:
		return nil, nil, fmt.Errorf("kbassist: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, articles articleStore, cfg *clientConfig) *Client {
	var completer domcompletion.Completer = noopCompleter{}
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
	}

	summaryInput := 0
	if cfg.contextBudget > 0 {
		summaryInput = max(3*cfg.contextBudget, assembler.DefaultSummaryInputTokens)
	}
	asm := assembler.New(completer, token.NewEstimator(cfg.charsPerToken), assembler.Config{
		BudgetTokens:       cfg.contextBudget,
		SummaryInputTokens: summaryInput,
		Temperature:        cfg.temperature,
	})

	return &Client{
		store:     store,
		searchSvc: searchuc.New(articles, cfg.maxCandidates),
		qaSvc: qauc.New(articles, asm, completer, qauc.Config{
			MaxContextArticles: cfg.maxContextArticles,
			Temperature:        cfg.temperature,
		}),
		seedSvc: seeduc.New(articles),
		logger:  cfg.logger,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// RankSearch returns up to limit articles ordered by relevance to text, newest first on ties.
// An empty text lists the newest articles. category, when set, keeps articles whose category
// contains it (case-insensitive). limit 0 selects the default of 5.
func (c *Client) RankSearch(ctx context.Context, text, category string, limit int) ([]Article, error) {
	q, err := query.New(text, category, limit)
	if err != nil {
		return nil, fmt.Errorf("rank search: %w", err)
	}
	arts, err := c.searchSvc.Search(logpkg.ContextWithLogger(ctx, c.logger), q)
	if err != nil {
		return nil, fmt.Errorf("rank search: %w", err)
	}
	return articlesFromDomain(arts), nil
}

// AnswerQuestion answers text using the articles with the given ids as context.
// Store and completion failures come back as an Answer with Status AnswerFailed;
// the error is reserved for invalid input.
func (c *Client) AnswerQuestion(ctx context.Context, text string, contextIDs []int64) (Answer, error) {
	q, err := question.New(text, contextIDs)
	if err != nil {
		return Answer{}, fmt.Errorf("answer question: %w", err)
	}
	a, err := c.qaSvc.Ask(logpkg.ContextWithLogger(ctx, c.logger), q)
	if err != nil {
		return Answer{}, fmt.Errorf("answer question: %w", err)
	}
	return answerFromDomain(&a), nil
}

// Seed loads a YAML fixture of articles. Re-seeding the same fixture is a no-op.
func (c *Client) Seed(ctx context.Context, r io.Reader) (int, error) {
	f, err := seeduc.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	n, err := c.seedSvc.Seed(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	return n, nil
}
