// Package metrics exposes Prometheus instrumentation for screening runs,
// funnel steps, provider calls and trade refreshes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all collectors on a private prometheus.Registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	ScreenerRuns     *prometheus.CounterVec
	ScreenerDuration *prometheus.HistogramVec
	FunnelCount      *prometheus.GaugeVec
	SpreadsFound     *prometheus.HistogramVec
	DegenerateSpread prometheus.Counter

	ProviderDuration *prometheus.HistogramVec
	ProviderRequests *prometheus.CounterVec

	TradeRefreshes *prometheus.CounterVec
	OpenTrades     prometheus.Gauge
}

// New creates and registers every collector
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		ScreenerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadscreener_runs_total",
				Help: "Screening runs by outcome (ok or error kind)",
			},
			[]string{"outcome"},
		),

		ScreenerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spreadscreener_run_duration_seconds",
				Help:    "Duration of one screening run including data fetch",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),

		FunnelCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spreadscreener_funnel_count",
				Help: "Survivors after each filter step of the last run per ticker",
			},
			[]string{"ticker", "stage", "step"},
		),

		SpreadsFound: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spreadscreener_spreads_found",
				Help:    "Spreads returned per screening run",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
			},
			[]string{"ticker"},
		),

		DegenerateSpread: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spreadscreener_degenerate_spreads_total",
				Help: "Spreads dropped because their metrics were degenerate",
			},
		),

		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spreadscreener_provider_request_duration_seconds",
				Help:    "Market data provider request latency",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadscreener_provider_requests_total",
				Help: "Market data provider requests by HTTP status class",
			},
			[]string{"provider", "status"},
		),

		TradeRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadscreener_trade_refreshes_total",
				Help: "Trade refreshes by resulting status",
			},
			[]string{"status"},
		),

		OpenTrades: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spreadscreener_open_trades",
				Help: "Open trades after the last refresh",
			},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ScreenerRuns,
		r.ScreenerDuration,
		r.FunnelCount,
		r.SpreadsFound,
		r.DegenerateSpread,
		r.ProviderDuration,
		r.ProviderRequests,
		r.TradeRefreshes,
		r.OpenTrades,
	)

	return r
}

// Gatherer exposes the underlying registry (tests, custom exporters)
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the /metrics endpoint
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRun records one screening run
func (r *Registry) ObserveRun(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.ScreenerRuns.WithLabelValues(outcome).Inc()
	r.ScreenerDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveFunnel records one funnel step count
func (r *Registry) ObserveFunnel(ticker, stage, step string, count int) {
	if r == nil {
		return
	}
	r.FunnelCount.WithLabelValues(ticker, stage, step).Set(float64(count))
}

// ObserveSpreads records how many spreads a run returned
func (r *Registry) ObserveSpreads(ticker string, n int) {
	if r == nil {
		return
	}
	r.SpreadsFound.WithLabelValues(ticker).Observe(float64(n))
}

// IncDegenerate counts one dropped spread
func (r *Registry) IncDegenerate() {
	if r == nil {
		return
	}
	r.DegenerateSpread.Inc()
}

// ObserveProvider matches httputil.Observer
func (r *Registry) ObserveProvider(provider string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.ProviderRequests.WithLabelValues(provider, statusClass(status)).Inc()
	r.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveTradeRefresh counts one refreshed trade
func (r *Registry) ObserveTradeRefresh(status string) {
	if r == nil {
		return
	}
	r.TradeRefreshes.WithLabelValues(status).Inc()
}

// SetOpenTrades sets the open trade gauge
func (r *Registry) SetOpenTrades(n int) {
	if r == nil {
		return
	}
	r.OpenTrades.Set(float64(n))
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
