package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/screener"
	"github.com/wonny/spreadscreener/internal/trades"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// TradesHandler handles trade endpoints
// ⭐ SSOT: 거래 API 핸들러는 이 구조체에서만
type TradesHandler struct {
	service *trades.Service
	cache   *screener.Cache
	logger  *logger.Logger
}

// NewTradesHandler creates a new trades handler. cache resolves spread keys
// of screened spreads.
func NewTradesHandler(service *trades.Service, cache *screener.Cache, log *logger.Logger) *TradesHandler {
	return &TradesHandler{
		service: service,
		cache:   cache,
		logger:  log,
	}
}

// TradeView is a trade plus its current profit figure
type TradeView struct {
	contracts.CallCreditSpreadTrade
	PnL trades.PnL `json:"pnl"`
}

func viewOf(t contracts.CallCreditSpreadTrade) TradeView {
	return TradeView{CallCreditSpreadTrade: t, PnL: trades.ComputePnL(t)}
}

// ListTrades returns every stored trade
// GET /api/trades
func (h *TradesHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trades")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trades")
		return
	}

	views := make([]TradeView, len(all))
	for i, t := range all {
		views[i] = viewOf(t)
	}
	respondJSON(w, http.StatusOK, views)
}

// GetTrade returns one trade
// GET /api/trades/{id}
func (h *TradesHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(*trade))
}

// ExecuteRequest opens a trade on a cached spread (SpreadKey) or on a
// spread sent in full
type ExecuteRequest struct {
	SpreadKey string                      `json:"spreadKey,omitempty"`
	Spread    *contracts.CallCreditSpread `json:"spread,omitempty"`
	Quantity  int                         `json:"quantity"`
	AtPrice   *float64                    `json:"atPrice,omitempty"`
}

// Execute opens a trade
// POST /api/trades
func (h *TradesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	spread := req.Spread
	if req.SpreadKey != "" {
		cached, ok := h.cache.FindSpreadByKey(req.SpreadKey)
		if !ok {
			respondError(w, http.StatusNotFound, "spread "+req.SpreadKey+" is not cached")
			return
		}
		spread = &cached
	}
	if spread == nil {
		respondError(w, http.StatusBadRequest, "spreadKey or spread is required")
		return
	}

	trade, err := h.service.Execute(r.Context(), *spread, req.Quantity, req.AtPrice)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewOf(*trade))
}

// CloseRequest optionally fixes the closing price
type CloseRequest struct {
	AtPrice *float64 `json:"atPrice,omitempty"`
}

// Close closes an open trade
// POST /api/trades/{id}/close
func (h *TradesHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req CloseRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	trade, err := h.service.Close(r.Context(), mux.Vars(r)["id"], req.AtPrice)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(*trade))
}

// Refresh re-marks every trade (live snapshots and expirations)
// POST /api/trades/refresh
func (h *TradesHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RefreshAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to refresh trades")
		respondError(w, http.StatusInternalServerError, "Failed to refresh trades")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// RefreshTrade re-marks one trade
// POST /api/trades/{id}/refresh
func (h *TradesHandler) RefreshTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := h.service.Refresh(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(*trade))
}
