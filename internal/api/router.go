// Package api provides the HTTP API for PondWatch.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pondwatch/pondwatch/internal/api/handler"
	"github.com/pondwatch/pondwatch/internal/api/middleware"
	"github.com/pondwatch/pondwatch/internal/risk"
	"github.com/pondwatch/pondwatch/internal/scenario"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	Loader          *risk.Loader
	ScenarioService *scenario.Service
	DB              handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pondwatch-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Loader, cfg.DB)
	gridHandler := handler.NewGridHandler(cfg.Loader)
	riskHandler := handler.NewRiskHandler(cfg.Loader, cfg.ScenarioService)
	configHandler := handler.NewConfigHandler(cfg.Loader)
	scenarioHandler := handler.NewScenarioHandler(cfg.ScenarioService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (unlimited so orchestrators can poll freely)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/preprocessing", opsHandler.Preprocessing)
		})

		// Terrain grid endpoints - standard rate limiting
		r.Route("/grid", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/metadata", gridHandler.GetMetadata)
			r.Get("/point", gridHandler.GetPoint)
		})

		// Risk endpoints - whole-grid queries are expensive
		r.Route("/risk", func(r chi.Router) {
			r.With(standardRateLimit).Post("/point", riskHandler.AssessPoint)
			r.With(expensiveRateLimit).Post("/bulk", riskHandler.AssessBulk)
			r.With(expensiveRateLimit).Get("/grid", riskHandler.GridRisk)
			r.With(expensiveRateLimit).Get("/tiered", riskHandler.TieredRisk)
		})

		// Model configuration - standard rate limiting
		r.Route("/config", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/risk", configHandler.GetRiskConfig)
			r.Put("/risk", configHandler.UpdateRiskConfig)
		})

		// Scenario presets - standard rate limiting
		r.Route("/scenarios", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", scenarioHandler.ListScenarios)
			r.Post("/", scenarioHandler.CreateScenario)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", scenarioHandler.GetScenario)
				r.Put("/", scenarioHandler.UpdateScenario)
				r.Delete("/", scenarioHandler.DeleteScenario)
			})
		})
	})

	return r
}
