package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/metrics"
	chiTransport "github.com/kailas-cloud/kbassist/internal/transport/chi"
	"github.com/kailas-cloud/kbassist/internal/version"
)

// purgeInterval is how often expired SQLite cache and counter rows are removed.
const purgeInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// expiringStore is implemented by backends without native key expiry.
type expiringStore interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.Info("Starting kbassist API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("completion_provider", cfg.Completion.Provider),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Seed.OnStartup {
		n, err := seedFromFile(ctx, a, cfg.Seed.Path)
		if err != nil {
			return err
		}
		logger.Info("Seeded articles", zap.String("path", cfg.Seed.Path), zap.Int("articles", n))
	}

	if es, ok := a.store.(expiringStore); ok {
		go purgeLoop(ctx, es)
	}

	return listen(ctx, newRouter(a), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
}

func newRouter(a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLog(logger))
	r.Use(chiTransport.APIKeyAuth(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.NewServer(a.search, a.qa, a.articleSvc, a.usage, a.health, logger).Register(r)
	return r
}

// listen serves h until ctx is cancelled, then drains in-flight requests for up to grace.
func listen(ctx context.Context, h http.Handler, grace time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           h,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("grace", grace))
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func purgeLoop(ctx context.Context, s expiringStore) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("Failed to purge expired entries", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("Purged expired entries", zap.Int64("rows", n))
			}
		}
	}
}
