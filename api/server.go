/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

SECURITY NOTE:
  No authentication middleware. Authn/authz is handled by the deployment
  in front of this service and is out of scope here.

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
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Base entry routes (lock-gated CRUD)
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Get("/{id}", h.GetEntry)
			r.Put("/{id}", h.UpdateEntry)
			r.Delete("/{id}", h.DeleteEntry)
			r.Get("/{id}/conflicts", h.EntryConflicts)
		})

		// Pre-save conflict check
		r.Post("/conflicts/check", h.CheckConflicts)

		// Correction routes (append-only)
		r.Route("/corrections", func(r chi.Router) {
			r.Get("/", h.ListCorrections)
			r.Post("/", h.CreateCorrection)
		})

		// Reference data
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Post("/", h.CreateRate)
		})
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.ListSchedules)
			r.Post("/", h.CreateSchedule)
		})

		// Reconciliation and statements
		r.Post("/reconcile", h.ReconcilePreview)
		r.Route("/statements", func(r chi.Router) {
			r.Get("/", h.ListStatements)
			r.Post("/generate", h.GenerateStatement)
			r.Get("/{id}/document", h.StatementDocument)
			r.Get("/{id}/export.xlsx", h.ExportStatementXLSX)
			r.Post("/{id}/status", h.UpdateStatementStatus)
			r.Post("/{id}/void", h.VoidStatement)
		})
	})

	return r
}
