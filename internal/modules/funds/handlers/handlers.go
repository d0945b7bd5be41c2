// Package handlers provides HTTP handlers for fund list and history views.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mjwhite/moneta/internal/domain"
	"github.com/mjwhite/moneta/internal/modules/funds"
	"github.com/mjwhite/moneta/internal/modules/history"
)

// FundsService lists a user's funds with their current valuations.
type FundsService interface {
	List(uid int64) ([]funds.Summary, error)
}

// HistoryService builds the downsampled value history.
type HistoryService interface {
	GetShallow(uid int64, period string, now time.Time) (*history.Shallow, error)
	GetDeep(uid int64, period string, now time.Time) (*history.Deep, error)
}

// Handler handles fund HTTP requests
type Handler struct {
	funds   FundsService
	history HistoryService
	log     zerolog.Logger
}

// NewHandler creates a new funds handler
func NewHandler(fundsService FundsService, historyService HistoryService, log zerolog.Logger) *Handler {
	return &Handler{
		funds:   fundsService,
		history: historyService,
		log:     log.With().Str("handler", "funds").Logger(),
	}
}

// HandleList handles GET /api/funds
// Query parameters: history=1 adds the downsampled value history,
// period restricts it to a trailing window, deep=1 switches to the
// per-fund series.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid := resolveUID(r)

	summaries, err := h.funds.List(uid)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list funds")
		h.writeError(w, err)
		return
	}

	data := map[string]interface{}{
		"funds": summaries,
	}

	query := r.URL.Query()
	if isTruthy(query.Get("history")) {
		period := query.Get("period")
		now := time.Now()

		if isTruthy(query.Get("deep")) {
			deep, err := h.history.GetDeep(uid, period, now)
			if err != nil {
				h.log.Error().Err(err).Str("period", period).Msg("Failed to get deep history")
				h.writeError(w, err)
				return
			}
			data["history"] = deep
		} else {
			shallow, err := h.history.GetShallow(uid, period, now)
			if err != nil {
				h.log.Error().Err(err).Str("period", period).Msg("Failed to get history")
				h.writeError(w, err)
				return
			}
			data["history"] = shallow
		}
	}

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// resolveUID reads the resolved user id from the request. Single-user
// deployments omit it and get the default account.
func resolveUID(r *http.Request) int64 {
	if raw := r.URL.Query().Get("uid"); raw != "" {
		if uid, err := strconv.ParseInt(raw, 10, 64); err == nil && uid > 0 {
			return uid
		}
	}
	return 1
}

func isTruthy(value string) bool {
	return value == "1" || value == "true"
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
