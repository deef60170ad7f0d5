// Package main is the entrypoint for the aitracker API server.
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

	"github.com/futureproof/aitracker/internal/advisor"
	"github.com/futureproof/aitracker/internal/ai"
	"github.com/futureproof/aitracker/internal/api"
	"github.com/futureproof/aitracker/internal/api/handler"
	mw "github.com/futureproof/aitracker/internal/api/middleware"
	"github.com/futureproof/aitracker/internal/cache"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/internal/judge"
	"github.com/futureproof/aitracker/internal/notify"
	"github.com/futureproof/aitracker/internal/questions"
	"github.com/futureproof/aitracker/internal/run"
	"github.com/futureproof/aitracker/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := serve(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func serve() error {
	// 1. Load config, fail fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "judge_model", cfg.AI.Judge.Model)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Wire the pipeline and router
	router, svc := newApp(cfg, store.NewPostgresStore(pool), redisCache)

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// In-flight runs keep writing to the store, so wait before the pool closes.
	slog.Info("waiting for in-flight runs")
	if err := svc.Drain(shutdownCtx); err != nil {
		slog.Warn("shutdown deadline reached with runs in flight",
			"sessions", svc.InFlight(), "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newApp builds the orchestrator and the router on top of already-connected
// storage.
func newApp(cfg *config.Config, st store.Store, c cache.Cache) (http.Handler, *run.Service) {
	providers := ai.NewProviders(cfg.AI, cfg.Pipeline.ProviderTimeout)
	judgeClient := ai.NewJudgeClient(cfg.AI, cfg.Pipeline.JudgeTimeout)
	for _, p := range providers {
		slog.Info("AI provider initialized", "platform", p.Platform(), "provider", p.Name())
	}

	svc := run.NewService(run.Deps{
		Providers:       providers,
		Judge:           judge.New(judgeClient, cfg.Pipeline.JudgeTimeout),
		Advisor:         advisor.New(judgeClient, cfg.Pipeline.JudgeTimeout),
		Notifier:        notify.New(cfg.Email),
		Store:           st,
		Cache:           c,
		ProviderTimeout: cfg.Pipeline.ProviderTimeout,
		MaxQuestions:    cfg.Pipeline.MaxQuestions,
	})

	router := api.NewRouter(api.Dependencies{
		RateLimit:         mw.NewRateLimit(c, cfg.RateLimit.RequestsPerMinute),
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,

		HealthHandler:       handler.NewHealthHandler(st, c),
		StartRunHandler:     handler.NewStartRunHandler(svc),
		RunStatusHandler:    handler.NewRunStatusHandler(svc),
		RunReportHandler:    handler.NewRunReportHandler(svc),
		RunQuestionsHandler: handler.NewRunQuestionsHandler(svc),
		UserReportsHandler:  handler.NewUserReportsHandler(svc),
		PricingHandler:      handler.NewPricingHandler(),
		QuestionsHandler:    handler.NewGenerateQuestionsHandler(questions.New(judgeClient, cfg.Pipeline.JudgeTimeout), c),
	})
	return router, svc
}
