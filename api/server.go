/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/onboarding/*       Signup and onboarding decisions
  /api/employees/*        Participant records and mirrored mutations
  /api/leave/*            Leave approval queue
  /api/ledger/*           Chain bridge health
  /api/reconciliation/*   DB-vs-ledger sync report and repair

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
		// Onboarding routes
		r.Route("/onboarding", func(r chi.Router) {
			r.Post("/", h.Signup)
			r.Get("/pending", h.ListPendingOnboarding)
			r.Post("/{id}/approve", h.ApproveOnboarding)
			r.Post("/{id}/reject", h.RejectOnboarding)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/status", h.ChangeStatus)
			r.Post("/{id}/wallet", h.ConnectWallet)
			r.Delete("/{id}/wallet", h.DisconnectWallet)
			r.Get("/{id}/history", h.StatusHistory)
			r.Post("/{id}/leave", h.SubmitLeave)
			r.Get("/{id}/leave", h.ListEmployeeLeave)
			r.Post("/{id}/payroll", h.RunPayroll)
			r.Get("/{id}/payroll", h.PayrollHistory)
		})

		// Leave approval routes
		r.Route("/leave", func(r chi.Router) {
			r.Get("/pending", h.ListPendingLeave)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
		})

		// Ledger routes
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/health", h.LedgerHealth)
		})

		// Reconciliation routes
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/unsynced", h.ListUnsynced)
			r.Post("/sweep", h.Sweep)
		})
	})

	return r
}
