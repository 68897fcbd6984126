// Command server starts the resume screener HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	ai "github.com/banglahouse/resume-screener-backend/internal/adapter/ai"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/ai/openai"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/ai/stub"
	httpserver "github.com/banglahouse/resume-screener-backend/internal/adapter/httpserver"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/observability"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/repo/postgres"
	"github.com/banglahouse/resume-screener-backend/internal/adapter/textextractor"
	"github.com/banglahouse/resume-screener-backend/internal/app"
	"github.com/banglahouse/resume-screener-backend/internal/config"
	"github.com/banglahouse/resume-screener-backend/internal/domain"
	"github.com/banglahouse/resume-screener-backend/internal/skills"
	"github.com/banglahouse/resume-screener-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Wait for the database to accept connections before serving traffic.
	pingBackoff := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10), ctx)
	if err := backoff.Retry(func() error { return pool.Ping(ctx) }, pingBackoff); err != nil {
		slog.Error("db not reachable", slog.Any("error", err))
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
	}

	var aicl domain.AIClient
	if cfg.UseStubAI {
		aicl = stub.New(cfg.EmbeddingsDim)
		slog.Warn("using stub AI client; answers and vectors are canned")
	} else {
		aicl = openai.New(cfg)
	}
	aicl = ai.NewEmbedCache(aicl, rdb, cfg.EmbeddingsModel, cfg.EmbedCacheTTL)

	var analyzer skills.Analyzer
	switch cfg.SkillExtractor {
	case config.ExtractorDictionary:
		analyzer = skills.DictionaryAnalyzer{}
	default:
		analyzer = skills.NewLLMAnalyzer(aicl)
	}

	store := postgres.NewStore(pool)
	apps := usecase.NewApplicationService(store, aicl, analyzer, cfg.ChunkTargetChars, cfg.ChunkOverlapChars)
	chat := usecase.NewChatService(store, aicl, cfg.ChatModel)
	extractor := textextractor.New(cfg.MinTextChars, cfg.MaxAnalysisChars)

	dbCheck, redisCheck := app.BuildReadinessChecks(pool, rdb)
	srv := httpserver.NewServer(cfg, store, apps, chat, extractor, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
