package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/spreadscreener/internal/api/handlers"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// Handlers groups the endpoint handlers. Metrics is optional.
type Handlers struct {
	Screener *handlers.ScreenerHandler
	Trades   *handlers.TradesHandler
	Metrics  http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Screener endpoints
	api.HandleFunc("/screener/run", h.Screener.Run).Methods("POST")
	api.HandleFunc("/screener/batch", h.Screener.Batch).Methods("POST")
	api.HandleFunc("/spreads/cached", h.Screener.CachedSpreads).Methods("GET")
	api.HandleFunc("/spreads/{ticker}/{short}/{long}", h.Screener.GetSpread).Methods("GET")
	api.HandleFunc("/presets", h.Screener.ListPresets).Methods("GET")
	api.HandleFunc("/expirations", h.Screener.ListExpirations).Methods("GET")

	// Trade endpoints (refresh before {id} so it is not taken as an id)
	api.HandleFunc("/trades", h.Trades.ListTrades).Methods("GET")
	api.HandleFunc("/trades", h.Trades.Execute).Methods("POST")
	api.HandleFunc("/trades/refresh", h.Trades.Refresh).Methods("POST")
	api.HandleFunc("/trades/{id}", h.Trades.GetTrade).Methods("GET")
	api.HandleFunc("/trades/{id}/close", h.Trades.Close).Methods("POST")
	api.HandleFunc("/trades/{id}/refresh", h.Trades.RefreshTrade).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "spreadscreener-api",
	})
}

// statusRecorder captures the status code for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
