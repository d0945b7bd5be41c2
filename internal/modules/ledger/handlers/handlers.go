// Package handlers provides the thin HTTP CRUD surface over the ledger
// tables. Requests carry plain row shapes; all validation beyond parameter
// shape happens in the repositories.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mjwhite/moneta/internal/domain"
	"github.com/mjwhite/moneta/internal/modules/ledger"
)

// LedgerRepository handles category ledger rows and balance upserts.
type LedgerRepository interface {
	List(category string, uid int64) ([]ledger.Row, error)
	Create(category string, uid int64, row ledger.Row) (int64, error)
	Update(category string, uid int64, row ledger.Row) error
	Delete(category string, uid, id int64) error
	UpsertBalance(uid int64, ym domain.YearMonth, balance int64) error
}

// FundWriter handles fund row writes.
type FundWriter interface {
	Create(uid int64, name string, transactions []domain.Transaction) (int64, error)
	Update(id, uid int64, name string, transactions []domain.Transaction) error
	Delete(id, uid int64) error
}

// Handler handles ledger CRUD HTTP requests
type Handler struct {
	ledger LedgerRepository
	funds  FundWriter
	log    zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(ledgerRepo LedgerRepository, funds FundWriter, log zerolog.Logger) *Handler {
	return &Handler{
		ledger: ledgerRepo,
		funds:  funds,
		log:    log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleList handles GET /api/data/{category}
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	uid := resolveUID(r)

	rows, err := h.ledger.List(category, uid)
	if err != nil {
		h.log.Error().Err(err).Str("category", category).Msg("Failed to list rows")
		h.writeError(w, err)
		return
	}
	if rows == nil {
		rows = []ledger.Row{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": rows,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreate handles POST /api/data/{category}
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	uid := resolveUID(r)

	var row ledger.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		h.writeError(w, domain.BadRequestf("invalid body: %v", err))
		return
	}

	id, err := h.ledger.Create(category, uid, row)
	if err != nil {
		h.log.Error().Err(err).Str("category", category).Msg("Failed to create row")
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{"id": id},
	})
}

// HandleUpdate handles PUT /api/data/{category}/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	uid := resolveUID(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, domain.BadRequestf("invalid id"))
		return
	}

	var row ledger.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		h.writeError(w, domain.BadRequestf("invalid body: %v", err))
		return
	}
	row.ID = id

	if err := h.ledger.Update(category, uid, row); err != nil {
		h.log.Error().Err(err).Str("category", category).Int64("id", id).Msg("Failed to update row")
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"id": id},
	})
}

// HandleDelete handles DELETE /api/data/{category}/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	uid := resolveUID(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, domain.BadRequestf("invalid id"))
		return
	}

	if err := h.ledger.Delete(category, uid, id); err != nil {
		h.log.Error().Err(err).Str("category", category).Int64("id", id).Msg("Failed to delete row")
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type balanceRequest struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Balance int64 `json:"balance"`
}

// HandleUpsertBalance handles POST /api/data/balance
func (h *Handler) HandleUpsertBalance(w http.ResponseWriter, r *http.Request) {
	uid := resolveUID(r)

	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.BadRequestf("invalid body: %v", err))
		return
	}

	ym := domain.YearMonth{Year: req.Year, Month: req.Month}
	if err := h.ledger.UpsertBalance(uid, ym, req.Balance); err != nil {
		h.log.Error().Err(err).Msg("Failed to upsert balance")
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"year": req.Year, "month": req.Month},
	})
}

type fundRequest struct {
	Item         string               `json:"item"`
	Transactions []domain.Transaction `json:"transactions"`
}

// HandleCreateFund handles POST /api/data/funds
func (h *Handler) HandleCreateFund(w http.ResponseWriter, r *http.Request) {
	uid := resolveUID(r)

	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.BadRequestf("invalid body: %v", err))
		return
	}
	if req.Item == "" {
		h.writeError(w, domain.BadRequestf("fund name is required"))
		return
	}

	id, err := h.funds.Create(uid, req.Item, req.Transactions)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create fund")
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{"id": id},
	})
}

// HandleUpdateFund handles PUT /api/data/funds/{id}
func (h *Handler) HandleUpdateFund(w http.ResponseWriter, r *http.Request) {
	uid := resolveUID(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, domain.BadRequestf("invalid id"))
		return
	}

	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.BadRequestf("invalid body: %v", err))
		return
	}

	if err := h.funds.Update(id, uid, req.Item, req.Transactions); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to update fund")
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"id": id},
	})
}

// HandleDeleteFund handles DELETE /api/data/funds/{id}
func (h *Handler) HandleDeleteFund(w http.ResponseWriter, r *http.Request) {
	uid := resolveUID(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, domain.BadRequestf("invalid id"))
		return
	}

	if err := h.funds.Delete(id, uid); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to delete fund")
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
