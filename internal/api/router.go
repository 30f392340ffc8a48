// Package api provides the HTTP router for SearchME.
package api

import (
	"net/http"
	"time"

	"github.com/AE-MS/AE-SearchME/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// MessagesPath is where the Bot Framework channel posts activities.
const MessagesPath = "/api/messages"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	// Metrics, when set, is served at MetricsPath and observes every request.
	Metrics *metrics.Metrics
	// MetricsPath defaults to /metrics.
	MetricsPath string
	// RequestTimeout bounds request handling. Zero means 60s.
	RequestTimeout time.Duration
}

// NewRouter creates the service router. bot receives Teams activities.
func NewRouter(handler *Handler, bot http.HandlerFunc, logger zerolog.Logger, config RouterConfig) *chi.Mux {
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	if config.Metrics != nil {
		r.Use(NewMetricsMiddleware(config.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.RequestTimeout))

	r.Get("/health", handler.HealthCheck)

	if config.Metrics != nil {
		r.Handle(config.MetricsPath, config.Metrics.Handler())
	}

	if bot != nil {
		r.Post(MessagesPath, bot)
	}

	// Diagnostics API: runs the search and dialog logic without Teams.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", handler.Search)
		r.Post("/dialogs/{phase}", handler.Dispatch)
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
