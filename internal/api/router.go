// Package api maps the HTTP surface onto the settlement service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/exsettle/settlementd/internal/auth"
	"github.com/exsettle/settlementd/internal/metrics"
	"github.com/exsettle/settlementd/internal/middleware"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Handlers    *Handlers
	APIKey      *auth.APIKeyVerifier
	JWT         *auth.JWTManager
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates the chi router with all routes and middleware mounted.
//
// Gate selection per route: creating settlements is machine-to-machine and
// takes the shared-secret key; reading them is an operator action and takes
// a session token. Health and login are public, metrics is exposition-only.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	if deps.Metrics != nil {
		r.Use(middleware.Instrument(deps.Metrics))
	}
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Handler)
	}
	r.Use(chimw.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", deps.Handlers.Health)
		r.Post("/login", deps.Handlers.Login)

		r.With(middleware.RequireAPIKey(deps.APIKey)).
			Post("/settlements", deps.Handlers.CreateSettlement)
		r.With(middleware.RequireJWT(deps.JWT)).
			Get("/settlements", deps.Handlers.ListSettlements)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.NotFound(deps.Handlers.NotFound)

	return r
}
