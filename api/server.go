/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     request logging
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestID:  unique ID per request for tracing
  4. CORS:       cross-origin requests for a frontend

SECURITY NOTE:
  No authentication middleware. Requests carry the actor's role
  explicitly; a production deployment fronts this with an auth proxy.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/orgs/{orgID}", func(r chi.Router) {
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.PutSettings)
			r.Get("/ratios", h.GetRatios)
			r.Put("/ratios", h.PutRatios)

			r.Get("/periods", h.GetPeriod)
			r.Post("/schedule/generate", h.GenerateSchedule)
			r.Get("/shifts", h.ListShifts)

			r.Post("/clock-in", h.ClockIn)
			r.Get("/entries", h.ListEntries)
			r.Get("/timesheet.csv", h.ExportTimesheet)
			r.Post("/entries/bulk-approve", h.BulkApproveEntries)

			r.Get("/summary", h.GetSummary)
			r.Post("/stubs/approve", h.ApproveStub)
			r.Get("/stubs", h.ListStubs)
			r.Post("/stubs/bulk-release", h.BulkReleaseStubs)
		})

		r.Route("/entries/{entryID}", func(r chi.Router) {
			r.Post("/breaks/start", h.StartBreak)
			r.Post("/breaks/end", h.EndBreak)
			r.Post("/clock-out", h.ClockOut)
			r.Post("/force-clock-out", h.ForceClockOut)
		})

		r.Route("/stubs/{stubID}", func(r chi.Router) {
			r.Post("/release", h.ReleaseStub)
		})
	})

	return r
}
