/*
handlers.go - HTTP handlers for the sticker loyalty API

PURPOSE:
  Exposes the points-accounting engine via REST. Handles HTTP
  request/response and JSON serialization; all business rules live in the
  engine package.

ENDPOINTS:
  POST /api/transactions   Ingest a purchase transaction (idempotent)
  GET  /api/shoppers/{id}  Shopper balance + transaction history
  POST /api/redeem         Redeem stickers for a catalog reward
  GET  /api/stats          Program-wide totals and per-store breakdown
  GET  /api/rewards        The active reward catalog

ERROR HANDLING:
  Engine errors map to status codes:
  - 400: validation failures
  - 404: unknown shopper or reward
  - 409: insufficient balance
  - 500: storage faults (safe to retry; ingestion is idempotent)
  A replayed transaction id is NOT an error: it returns 200 with the
  originally stored result.
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/looplink/stickers/engine"
)

// Handler holds the handlers' single dependency: the engine.
type Handler struct {
	Engine *engine.Engine
}

func NewHandler(e *engine.Engine) *Handler {
	return &Handler{Engine: e}
}

// =============================================================================
// TRANSACTION INGESTION
// =============================================================================

// IngestTransaction processes one purchase transaction.
// POST /api/transactions
func (h *Handler) IngestTransaction(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Engine.Ingest(r.Context(), engine.IngestInput{
		TransactionID: engine.TransactionID(req.TransactionID),
		ShopperID:     engine.ShopperID(req.ShopperID),
		StoreID:       engine.StoreID(req.StoreID),
		Items:         toItems(req.Items),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := IngestResponse{
		TransactionID:   string(result.TransactionID),
		StickersAwarded: result.StickersAwarded,
	}
	if result.Replayed {
		resp.Message = "transaction already processed"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// =============================================================================
// SHOPPERS
// =============================================================================

// GetShopper returns a shopper's balance and transaction history.
// GET /api/shoppers/{id}
func (h *Handler) GetShopper(w http.ResponseWriter, r *http.Request) {
	id := engine.ShopperID(chi.URLParam(r, "id"))

	detail, err := h.Engine.Detail(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShopperResponse(detail))
}

// =============================================================================
// REDEMPTION
// =============================================================================

// Redeem exchanges a shopper's stickers for a catalog reward.
// POST /api/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ShopperID == "" || req.RewardCode == "" {
		writeError(w, http.StatusBadRequest, "shopper_id and reward_code required", nil)
		return
	}

	result, err := h.Engine.Redeem(r.Context(), engine.ShopperID(req.ShopperID), req.RewardCode)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RedeemResponse{
		Message:          fmt.Sprintf("%s redeemed successfully", result.RewardCode),
		RemainingBalance: result.RemainingBalance,
	})
}

// =============================================================================
// REPORTING
// =============================================================================

// GetStats returns program-wide totals.
// GET /api/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Engine.Stats(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	perStore := make([]StoreStatsDTO, len(stats.StickersPerStore))
	for i, row := range stats.StickersPerStore {
		perStore[i] = StoreStatsDTO{
			StoreID:         string(row.StoreID),
			StickersAwarded: row.StickersAwarded,
		}
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		TotalStickersAwarded: stats.TotalStickersAwarded,
		TotalTransactions:    stats.TotalTransactions,
		StickersPerStore:     perStore,
	})
}

// ListRewards returns the active reward catalog.
// GET /api/rewards
func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	catalog := h.Engine.Catalog
	rewards := make([]RewardDTO, 0, len(catalog))
	for _, code := range catalog.Codes() {
		cost, _ := catalog.Cost(code)
		rewards = append(rewards, RewardDTO{Code: code, Cost: cost})
	}
	writeJSON(w, http.StatusOK, rewards)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, engine.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
