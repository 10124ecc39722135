/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*      Employee, balance and submission endpoints
  /api/applications/*   Approval workflow
  /api/policies/*       Policy table management
  /api/holidays/*       Holiday calendar management
  /api/compoff/*        Comp-off decisions
  /api/wfh/*            WFH decisions
  /api/admin/*          Rollover, accrual maintenance, reset
  /api/scenarios/*      Demo scenarios
  /api/reports/*        Read-only reports

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/balances", h.GetBalances)
			r.Get("/{id}/applications", h.ListApplications)
			r.Post("/{id}/applications", h.SubmitApplication)
			r.Get("/{id}/compoff", h.ListCompOffs)
			r.Post("/{id}/compoff", h.SubmitCompOff)
			r.Get("/{id}/wfh", h.ListWFH)
			r.Post("/{id}/wfh", h.SubmitWFH)
		})

		// Application workflow routes
		r.Route("/applications", func(r chi.Router) {
			r.Get("/pending", h.ListPendingApplications)
			r.Get("/{id}", h.GetApplication)
			r.Post("/{id}/approve", h.ApproveApplication)
			r.Post("/{id}/reject", h.RejectApplication)
			r.Post("/{id}/cancel", h.CancelApplication)
		})

		// Policy routes
		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Put("/", h.UpsertPolicy)
			r.Post("/defaults", h.SeedDefaultPolicies)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Comp-off decision routes
		r.Route("/compoff", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveCompOff)
			r.Post("/{id}/reject", h.RejectCompOff)
		})

		// WFH decision routes
		r.Route("/wfh", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveWFH)
			r.Post("/{id}/reject", h.RejectWFH)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/rollover", h.TriggerRollover)
			r.Get("/rollover/runs", h.ListRolloverRuns)
			r.Post("/accrual/refresh", h.RefreshAccrual)
			r.Post("/reset", h.ResetDatabase)
		})

		// Demo scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.SummaryReport)
		})
	})

	return r
}
