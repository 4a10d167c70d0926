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
  /api/items/*      Item catalog and ledger operations
  /api/costings/*   Costing sheets
  /api/versions/*   Costing version lifecycle
  /api/health       Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

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
		// Item + ledger routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.EnrollItem)
			r.Get("/reorder", h.ListReorderItems)
			r.Get("/{id}", h.GetItem)
			r.Delete("/{id}", h.DeactivateItem)
			r.Get("/{id}/transactions", h.GetTransactions)
			r.Post("/{id}/transactions", h.AppendTransaction)
			r.Get("/{id}/valuation", h.GetValuation)
			r.Get("/{id}/cogs", h.GetCOGS)
			r.Post("/{id}/reset", h.ResetOpeningBalance)
		})

		// Costing sheet routes
		r.Route("/costings", func(r chi.Router) {
			r.Get("/", h.ListSheets)
			r.Post("/", h.CreateSheet)
			r.Get("/{id}", h.GetSheet)
			r.Get("/{id}/versions", h.ListVersions)
		})

		// Costing version routes
		r.Route("/versions", func(r chi.Router) {
			r.Get("/{id}", h.GetVersion)
			r.Put("/{id}/lines", h.EditLines)
			r.Put("/{id}/costs", h.EditCosts)
			r.Post("/{id}/approve", h.ApproveVersion)
			r.Post("/{id}/reject", h.RejectVersion)
			r.Post("/{id}/revise", h.ReviseVersion)
		})

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
