package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all overview routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/overview", h.HandleGet)
}
