/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the counter UI

ROUTE GROUPS:
  /api/medicines/*      Inventory
  /api/patients/*       Patients
  /api/transactions/*   Sales
  /api/credits/*        Credit (Udhari)
  /api/agencies/*       Suppliers
  /api/agency-bills/*   Supplier bills
  /api/reports/*        Analytics
  /api/vault/*          Save, backup, restore
  /api/scenarios/*      Demo data

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
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.ListMedicines)
			r.Post("/", h.CreateMedicine)
			r.Post("/batch", h.BatchCreateMedicines)
			r.Get("/{id}", h.GetMedicine)
			r.Patch("/{id}", h.UpdateMedicine)
			r.Delete("/{id}", h.DeleteMedicine)
		})

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", h.ListPatients)
			r.Post("/", h.CreatePatient)
			r.Get("/{id}", h.GetPatient)
		})

		// Sales are append-only: no update or delete routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.RecordSale)
		})

		r.Route("/credits", func(r chi.Router) {
			r.Get("/", h.ListCredits)
			r.Get("/summary", h.CreditSummary)
			r.Patch("/{id}", h.UpdateCredit)
		})

		r.Route("/agencies", func(r chi.Router) {
			r.Get("/", h.ListAgencies)
			r.Post("/", h.CreateAgency)
			r.Delete("/{id}", h.DeleteAgency)
			r.Post("/{id}/stock", h.StockFromBill)
		})

		r.Route("/agency-bills", func(r chi.Router) {
			r.Get("/", h.ListAgencyBills)
			r.Post("/", h.CreateAgencyBill)
			r.Patch("/{id}", h.UpdateAgencyBill)
		})

		r.Get("/reports/profit", h.GetProfitReport)

		r.Route("/vault", func(r chi.Router) {
			r.Get("/status", h.GetSyncStatus)
			r.Post("/sync", h.SyncNow)
			r.Get("/backup", h.Backup)
			r.Post("/restore", h.Restore)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
