package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all fund routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/funds", h.HandleList)
}
