package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/order-capture/internal/middleware"
	"github.com/capitalize-ai/order-capture/pkg/logger"
)

// sessionTurnLimit caps turns per session per minute, on top of the tenant limit.
const sessionTurnLimit = 20

// RouterConfig carries what the router needs.
type RouterConfig struct {
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Logger            *logger.Logger

	Health   *HealthHandler
	Sessions *SessionHandler
	Stream   *StreamHandler
	Catalog  *CatalogHandler
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", cfg.Sessions.Get)
			r.Get("/events", cfg.Sessions.Events)

			turns := r.With(middleware.SessionRateLimit(sessionTurnLimit, time.Minute))
			turns.Post("/messages", cfg.Sessions.Send)
			turns.Post("/stream", cfg.Stream.StreamTurn)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/items", cfg.Catalog.Items)
			r.With(middleware.RequireScope(middleware.ScopeCatalogWrite)).Post("/refresh", cfg.Catalog.Refresh)
		})
	})

	return r
}
