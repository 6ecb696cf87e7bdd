// Package main provides the entrypoint for the PondWatch API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pondwatch/pondwatch/internal/api"
	"github.com/pondwatch/pondwatch/internal/api/middleware"
	"github.com/pondwatch/pondwatch/internal/config"
	"github.com/pondwatch/pondwatch/internal/database"
	"github.com/pondwatch/pondwatch/internal/risk"
	"github.com/pondwatch/pondwatch/internal/scenario"
	"github.com/pondwatch/pondwatch/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "pondwatch-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	// Load configuration from environment (and optional .env)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log = log.Level(cfg.Level())
	if cfg.LogFormat == "console" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting PondWatch API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	riskMetrics, err := risk.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize risk metrics")
		os.Exit(1)
	}

	// Connect to database when one is configured. The service runs
	// without it: scenario presets fall back to an in-memory store.
	var pool *pgxpool.Pool
	var scenarioRepo scenario.Repository
	if cfg.DatabaseURL != "" {
		pool, err = database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", pool.Config().ConnConfig.Host).
			Str("database", pool.Config().ConnConfig.Database).
			Msg("database connected")

		scenarioRepo = scenario.NewPostgresRepository(pool)
	} else {
		scenarioRepo = scenario.NewInMemoryRepository()
		log.Info().Msg("no database configured, storing scenario presets in memory")
	}

	// Initialize scenario preset service and seed builtin presets
	scenarioService := scenario.NewService(scenarioRepo, log)
	if err := scenarioService.SeedDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed builtin scenario presets")
	}
	log.Info().Msg("scenario service initialized")

	// Start data preparation in the background so the server can come
	// up and report readiness while rasters load.
	loader := risk.NewLoader(risk.LoaderConfig{
		DataDir: cfg.DataDir,
		Logger:  log,
		Metrics: riskMetrics,
	})
	go func() {
		if err := loader.Run(ctx); err != nil {
			log.Error().Err(err).Msg("data preparation failed")
		}
	}()
	log.Info().Str("data_dir", cfg.DataDir).Msg("data preparation started")

	// Create router with configuration
	routerConfig := api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		Loader:          loader,
		ScenarioService: scenarioService,
	}
	if pool != nil {
		routerConfig.DB = pool
	}
	router := api.NewRouter(routerConfig)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
