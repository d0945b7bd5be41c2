// Package handlers provides HTTP handlers for the budget overview.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mjwhite/moneta/internal/domain"
	"github.com/mjwhite/moneta/internal/modules/overview"
)

// OverviewService computes the month-by-month budget overview.
type OverviewService interface {
	Compute(uid int64, now time.Time) (*overview.Overview, error)
}

// Handler handles overview HTTP requests
type Handler struct {
	service OverviewService
	log     zerolog.Logger
}

// NewHandler creates a new overview handler
func NewHandler(service OverviewService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "overview").Logger(),
	}
}

// HandleGet handles GET /api/overview
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid := resolveUID(r)

	result, err := h.service.Compute(uid, time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute overview")
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

func resolveUID(r *http.Request) int64 {
	if raw := r.URL.Query().Get("uid"); raw != "" {
		if uid, err := strconv.ParseInt(raw, 10, 64); err == nil && uid > 0 {
			return uid
		}
	}
	return 1
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrBadRequest) {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error": "internal error",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
