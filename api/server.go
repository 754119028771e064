/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /health                          Liveness
  /api/employers/*                 Per-employer engine views
  /api/normalize/*                 Stateless normalization
  /api/demo/*                      Demo fixture maintenance

SECURITY NOTE:
  The bearer token on a request is forwarded to the live provider only.
  No authentication is applied to demo employers.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/token/status", h.TokenStatus)

		r.Route("/employers", func(r chi.Router) {
			r.Get("/", h.ListEmployers)

			r.Route("/{employer}", func(r chi.Router) {
				r.Get("/directory", h.GetDirectory)
				r.Get("/eligibility", h.GetEligibility)
				r.Get("/reports", h.GetReport)

				r.Route("/employees/{id}", func(r chi.Router) {
					r.Get("/", h.GetEmployee)
					r.Get("/deductions", h.GetDeductions)
					r.Get("/pay-statements", h.GetPayStatements)
				})
			})
		})

		r.Route("/normalize", func(r chi.Router) {
			r.Post("/employee", h.NormalizeEmployee)
			r.Post("/pay-statements", h.NormalizePayStatements)
		})

		r.Route("/demo", func(r chi.Router) {
			r.Post("/reset", h.ResetDemo)
		})
	})

	return r
}
