package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger CRUD routes. The funds and balance
// routes are declared before the generic category routes so chi matches
// them first.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/data", func(r chi.Router) {
		r.Post("/balance", h.HandleUpsertBalance)

		r.Post("/funds", h.HandleCreateFund)
		r.Put("/funds/{id}", h.HandleUpdateFund)
		r.Delete("/funds/{id}", h.HandleDeleteFund)

		r.Get("/{category}", h.HandleList)
		r.Post("/{category}", h.HandleCreate)
		r.Put("/{category}/{id}", h.HandleUpdate)
		r.Delete("/{category}/{id}", h.HandleDelete)
	})
}
