/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

SECURITY NOTE:
  No authentication middleware here. The surrounding deployment fronts this
  service with the platform's auth gateway; these endpoints are internal.

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

	r.Route("/api", func(r chi.Router) {
		// Student routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.RegisterStudent)
			r.Get("/{id}", h.GetStudent)
			r.Get("/{id}/postings", h.GetStudentPostings)
			r.Get("/{id}/payments", h.GetStudentPayments)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Post("/{id}/recalculate", h.RecalculateStudent)
		})

		// Fee schedule routes
		r.Route("/fees", func(r chi.Router) {
			r.Get("/", h.ListFeeSchedules)
			r.Post("/", h.SaveFeeSchedule)
			r.Post("/import", h.ImportFeeSchedules)
		})

		// Center routes
		r.Route("/centers", func(r chi.Router) {
			r.Get("/{id}/wallet", h.GetWallet)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Route("/accruals", func(r chi.Router) {
				r.Post("/run", h.RunAccrual)
				r.Get("/preview", h.PreviewAccrual)
				r.Get("/runs", h.ListAccrualRuns)
			})
			r.Post("/seed", h.LoadSeedData)
		})
	})

	return r
}
