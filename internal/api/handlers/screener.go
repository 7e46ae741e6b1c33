package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/expiry"
	"github.com/wonny/spreadscreener/internal/screener"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// ScreenerHandler handles screening and spread lookup endpoints
// ⭐ SSOT: 스크리너 API 핸들러는 이 구조체에서만
type ScreenerHandler struct {
	screener *screener.Screener
	presets  *screener.PresetBook
	calendar *expiry.Calendar
	logger   *logger.Logger
	now      func() time.Time
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(s *screener.Screener, presets *screener.PresetBook, cal *expiry.Calendar, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		screener: s,
		presets:  presets,
		calendar: cal,
		logger:   log,
		now:      time.Now,
	}
}

// RunRequest selects a ticker, an expiration and the screening parameters.
// Parameters are entered in catalog units (percent for percentage ids) and
// override the preset.
type RunRequest struct {
	Ticker     string                       `json:"ticker"`
	Tickers    []string                     `json:"tickers,omitempty"`
	Expiration string                       `json:"expiration"` // YYYY-MM-DD
	Preset     string                       `json:"preset,omitempty"`
	Parameters map[screener.ParamID]float64 `json:"parameters,omitempty"`
}

func (h *ScreenerHandler) resolve(req RunRequest) (time.Time, contracts.SpreadParameters, error) {
	expiration, err := h.calendar.ParseExpiration(req.Expiration)
	if err != nil {
		return time.Time{}, contracts.SpreadParameters{}, err
	}

	overrides := make(screener.ParameterSet, len(req.Parameters))
	for id, v := range req.Parameters {
		if err := overrides.Set(id, v); err != nil {
			return time.Time{}, contracts.SpreadParameters{}, err
		}
	}

	params, err := h.presets.Resolve(req.Preset, overrides)
	if err != nil {
		return time.Time{}, contracts.SpreadParameters{}, err
	}
	return expiration, params, nil
}

// Run screens one ticker
// POST /api/screener/run
func (h *ScreenerHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	expiration, params, err := h.resolve(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.screener.Run(r.Context(), req.Ticker, expiration, params)
	if err != nil {
		h.logger.WithTicker(req.Ticker).WithError(err).Warn("Screener run failed")
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// BatchItem is one ticker of a batch response
type BatchItem struct {
	Ticker  string                     `json:"ticker"`
	Results *contracts.ScreenerResults `json:"results,omitempty"`
	Error   *ErrorResponse             `json:"error,omitempty"`
}

// Batch screens several tickers; per-ticker failures do not fail the batch
// POST /api/screener/batch
func (h *ScreenerHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Tickers) == 0 {
		respondError(w, http.StatusBadRequest, "tickers is required")
		return
	}

	expiration, params, err := h.resolve(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch := h.screener.RunBatch(r.Context(), req.Tickers, expiration, params)
	items := make([]BatchItem, len(batch))
	for i, b := range batch {
		items[i] = BatchItem{Ticker: b.Ticker, Results: b.Results}
		if b.Err != nil {
			items[i].Error = &ErrorResponse{Error: b.Err.Error(), Code: screener.KindOf(b.Err).Code()}
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"expiration": expiration,
		"items":      items,
	})
}

// CachedSpreads returns every spread found since the last cache clear
// GET /api/spreads/cached
func (h *ScreenerHandler) CachedSpreads(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.screener.Cache().Spreads())
}

// GetSpread builds a spread from two option tickers
// GET /api/spreads/{ticker}/{short}/{long}
func (h *ScreenerHandler) GetSpread(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	spread, err := h.screener.GetSpread(r.Context(), vars["ticker"], vars["short"], vars["long"])
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, spread)
}

// ListPresets returns the parameter catalog and the presets
// GET /api/presets
func (h *ScreenerHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"parameters": screener.Catalog,
		"presets":    h.presets.List(),
	})
}

// ListExpirations returns the upcoming Friday expiration presets
// GET /api/expirations
func (h *ScreenerHandler) ListExpirations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.calendar.DefaultPresets(h.now()))
}
