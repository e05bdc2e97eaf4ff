// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantstream/marketd/internal/adapters/http/handlers"
	"github.com/quantstream/marketd/internal/adapters/http/middleware"
)

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given. requestTimeout bounds
// REST requests only; the WebSocket routes are long-lived and stay outside
// the timeout middleware.
func NewRouter(
	marketHandler *handlers.MarketHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	requestTimeout time.Duration,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// REST API v1 routes, bounded by the request timeout.
	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/history", marketHandler.History)
			r.Get("/symbols", marketHandler.Symbols)
		})
	})

	// WebSocket streaming routes.
	r.Route("/ws", func(r chi.Router) {
		r.Get("/live", wsHandler.Live)
		r.Get("/analytics/{strategy}", wsHandler.Analytics)
	})

	return r
}
