// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"repo-insights/internal/analysis"
	"repo-insights/internal/api"
	"repo-insights/internal/auth"
	"repo-insights/internal/config"
	"repo-insights/internal/cooldown"
	"repo-insights/internal/database"
	"repo-insights/internal/github"
	"repo-insights/internal/history"
	"repo-insights/internal/insights"
	"repo-insights/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "ai_provider", cfg.AIProvider, "cooldown_backend", cfg.CooldownBackend)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	if err := dbpool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	logger.Info("Database connection established")

	if err := runMigrations(cfg.MigrationsURL, cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Initialize application components
	handlerDeps, cleanup, err := buildDeps(cfg, dbpool, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	var pending sync.WaitGroup
	handlerDeps.Pending = &pending

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handlerDeps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Start the HTTP server in a separate goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 7. Wait for shutdown signal
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Draining connections.")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	// History saves must finish before the pool closes
	pending.Wait()
	logger.Info("Server stopped")
	return nil
}

// buildDeps wires the pipeline, history store, cooldown backend and token issuer.
func buildDeps(cfg *config.Config, dbpool *pgxpool.Pool, logger *slog.Logger) (api.Deps, func(), error) {
	cleanup := func() {}

	ghClient, err := github.NewClient(github.Config{
		Token:   cfg.GithubToken,
		BaseURL: cfg.GithubAPIURL,
		Timeout: cfg.GithubTimeout,
	}, logger)
	if err != nil {
		return api.Deps{}, cleanup, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	if cfg.GithubToken == "" {
		logger.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub API with a low rate limit")
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return api.Deps{}, cleanup, fmt.Errorf("failed to create AI generator: %w", err)
	}
	requester := analysis.NewRequester(gen, cfg.AITimeout, logger, metrics.ObserveAnalysis)

	store := history.NewStore(database.New(dbpool), logger)
	service := insights.NewService(ghClient, requester, store, logger)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return api.Deps{}, cleanup, fmt.Errorf("failed to create token issuer: %w", err)
	}

	var limiter cooldown.Limiter
	switch cfg.CooldownBackend {
	case "redis":
		r, err := cooldown.NewRedis(cooldown.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.CooldownWindow)
		if err != nil {
			return api.Deps{}, cleanup, fmt.Errorf("failed to connect cooldown store: %w", err)
		}
		cleanup = func() { _ = r.Close() }
		limiter = r
	default:
		limiter = cooldown.NewMemory(cfg.CooldownWindow)
	}

	return api.Deps{
		Insights:       service,
		History:        store,
		Users:          store,
		Cooldown:       limiter,
		Auth:           issuer,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.GithubTimeout*4 + cfg.AITimeout,
	}, cleanup, nil
}

func newGenerator(cfg *config.Config) (analysis.Generator, error) {
	switch cfg.AIProvider {
	case "openai":
		return analysis.NewOpenAI(analysis.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.AITimeout,
		})
	default:
		return analysis.NewGemini(analysis.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.AITimeout,
		})
	}
}

func runMigrations(sourceURL, dbURL string) error {
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
