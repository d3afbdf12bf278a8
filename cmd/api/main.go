// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelamos/chefbot-api/internal/analyze"
	"github.com/angelamos/chefbot-api/internal/auth"
	"github.com/angelamos/chefbot-api/internal/config"
	"github.com/angelamos/chefbot-api/internal/core"
	"github.com/angelamos/chefbot-api/internal/debug"
	"github.com/angelamos/chefbot-api/internal/health"
	"github.com/angelamos/chefbot-api/internal/middleware"
	"github.com/angelamos/chefbot-api/internal/quota"
	"github.com/angelamos/chefbot-api/internal/server"
	"github.com/angelamos/chefbot-api/internal/store"
	"github.com/angelamos/chefbot-api/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var tracing *core.Tracing
	if cfg.Otel.Enabled {
		tr, trErr := core.NewTracing(ctx, cfg.Otel, cfg.App)
		if trErr != nil {
			logger.Warn("failed to initialize tracing", "error", trErr)
		} else {
			tracing = tr
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	dataClient := store.NewClient(cfg.DataAPI)
	if err := dataClient.Ping(ctx); err != nil {
		logger.Warn("data api unreachable at startup", "error", err)
	} else {
		logger.Info("data api connected", "url", cfg.DataAPI.URL)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	tokenManager, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token manager initialized",
		"algorithm", "HS256",
		"issuer", cfg.JWT.Issuer,
	)

	userRepo := user.NewRepository(dataClient)
	userSvc := user.NewService(userRepo)

	registry := auth.NewRegistry(
		dataClient,
		cfg.JWT.RefreshTokenExpire,
		cfg.Limits.SessionMaxIdle,
	)
	authSvc := auth.NewService(userSvc, registry, tokenManager)
	authHandler := auth.NewHandler(authSvc)

	if err := authSvc.CleanupSessions(ctx); err != nil {
		logger.Warn("startup session cleanup failed", "error", err)
	}

	rateLimitStore := quota.NewRateLimitStore(dataClient)
	tracker := quota.NewTracker(userRepo, rateLimitStore, cfg.Limits)

	var gateway analyze.Gateway
	if cfg.Gemini.ResolveProvider() == config.ProviderGemini {
		gateway = analyze.NewGeminiClient(cfg.Gemini)
		logger.Info("vision provider configured",
			"provider", config.ProviderGemini,
			"model", cfg.Gemini.Model,
		)
	} else {
		logger.Warn("no vision provider configured, /api/analyze disabled")
	}
	analyzeHandler := analyze.NewHandler(userSvc, tracker, gateway, cfg.Gemini)

	healthHandler := health.NewHandler(cfg.Gemini, dataClient, redis)
	debugHandler := debug.NewHandler(cfg, redis)

	srv := server.New(server.Config{
		ServerConfig: cfg.Server,
		Logger:       logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterProbes(router)

	authenticator := middleware.Authenticator(tokenManager)

	router.Route("/api", func(r chi.Router) {
		healthHandler.RegisterRoutes(r)
		authHandler.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			analyzeHandler.RegisterRoutes(r)
			debugHandler.RegisterRoutes(r)
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	healthHandler.SetShutdown(true)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if tracing != nil {
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
