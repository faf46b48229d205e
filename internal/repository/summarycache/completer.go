package summarycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/db"
	"github.com/kailas-cloud/kbassist/internal/domain"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
)

// store is the consumer interface for the summary cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCompleter caches completion text keyed by the model and the full request.
// Only deterministic-enough calls belong behind it (summaries, not answers).
type CachedCompleter struct {
	inner      domcompletion.Completer
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. model names the provider and model behind inner,
// e.g. "openai/gpt-4o-mini", so switching either starts from an empty cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domcompletion.Completer,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCompleter {
	return &CachedCompleter{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Complete returns cached text or calls the inner completer.
// A hit reports zero tokens since nothing was consumed.
func (c *CachedCompleter) Complete(ctx context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	key := cacheKey(c.model, req)

	if text, ok := c.get(ctx, key); ok {
		c.inc("hit")
		return domcompletion.Result{Text: text}, nil
	}
	c.inc("miss")

	res, err := c.inner.Complete(ctx, req)
	if err != nil {
		return domcompletion.Result{}, fmt.Errorf("cached complete: %w", err)
	}

	if res.Text != "" {
		if err := c.store.Put(ctx, key, []byte(res.Text), c.ttl); err != nil {
			c.logger.Warn("Failed to cache summary", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

func (c *CachedCompleter) get(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached summary", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedCompleter) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(model string, req domcompletion.Request) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.MaxOutputTokens)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(req.Temperature, 'g', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	return domain.KeyPrefix + "summary_cache:" + hex.EncodeToString(h.Sum(nil))
}
