package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/spreadscreener/internal/screener"
	"github.com/wonny/spreadscreener/internal/trades"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondFailure maps domain errors to a status and machine code
func respondFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trades.ErrTradeNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, trades.ErrInvalidQuantity), errors.Is(err, screener.ErrUnknownPreset):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, trades.ErrTradeNotOpen):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, trades.ErrNoMarketData):
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	kind := screener.KindOf(err)
	respondJSON(w, statusOf(kind), ErrorResponse{Error: err.Error(), Code: kind.Code()})
}

func statusOf(kind screener.ErrorKind) int {
	switch kind {
	case screener.KindNotFound:
		return http.StatusNotFound
	case screener.KindComputationDegenerate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
