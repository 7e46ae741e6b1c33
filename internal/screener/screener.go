// Package screener runs the call credit spread funnel: fetch a call chain,
// narrow its legs, pair the survivors into spreads and narrow the spreads.
package screener

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/metrics"
	"github.com/wonny/spreadscreener/internal/spreads"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// Funnel step labels
const (
	StepAll          = "All"
	StepDTS          = "DTS"
	StepDOB          = "DOB"
	StepIV           = "IV"
	StepDelta        = "Delta"
	StepVolume       = "Volume"
	StepBidAsk       = "Bid-Ask"
	StepReturn       = "Return"
	StepNearEarnings = "Near earnings"
)

// Defaults applied when the corresponding parameter is unset
const (
	DefaultMinSpreadDistance = 0.5
	DefaultMaxSpreadDistance = 999
	DefaultMaxIV             = 999
)

// Screener orchestrates one or many screening runs
// ⭐ SSOT: funnel order and step labels live here only
type Screener struct {
	data        contracts.MarketData
	cache       *Cache
	metrics     *metrics.Registry
	logger      *logger.Logger
	concurrency int
	now         func() time.Time
}

// Option configures a Screener
type Option func(*Screener)

// WithCache stores run results and loaded chains in c
func WithCache(c *Cache) Option {
	return func(s *Screener) { s.cache = c }
}

// WithMetrics records runs and funnel counts
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Screener) { s.metrics = m }
}

// WithConcurrency bounds the number of tickers fetched at once by RunBatch
func WithConcurrency(n int) Option {
	return func(s *Screener) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(s *Screener) { s.now = now }
}

// New creates a screener over a market data provider
func New(data contracts.MarketData, log *logger.Logger, opts ...Option) *Screener {
	if log == nil {
		log = logger.Nop()
	}
	s := &Screener{
		data:        data,
		logger:      log.WithComponent("screener"),
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache(log)
	}
	return s
}

// Cache returns the session cache
func (s *Screener) Cache() *Cache {
	return s.cache
}

// Run fetches the call chain for ticker and expiration and screens it
func (s *Screener) Run(ctx context.Context, ticker string, expiration time.Time, params contracts.SpreadParameters) (*contracts.ScreenerResults, error) {
	start := s.now()
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	log := s.logger.WithTicker(ticker)

	log.Info("Getting call credit spreads")

	chain, err := s.data.GetCallOptionChain(ctx, contracts.ChainRequest{
		Ticker:     ticker,
		Expiration: expiration,
	})
	if err != nil {
		err = Classify(ticker, err)
		log.WithError(err).Error("Failed to build call credit spreads")
		s.metrics.ObserveRun(string(KindOf(err)), s.now().Sub(start))
		return nil, err
	}

	results := s.RunChain(*chain, params)
	s.cache.AddSpreads(results.Spreads...)
	s.observe(ticker, results, start)

	return results, nil
}

// LoadChain fetches a chain into the cache for later RunLoaded calls.
// Returns the number of chains held.
func (s *Screener) LoadChain(ctx context.Context, ticker string, expiration time.Time) (int, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if cached, ok := s.cache.RemoteChain(ctx, ticker, expiration); ok {
		return s.cache.PutChain(ctx, expiration, *cached), nil
	}

	chain, err := s.data.GetCallOptionChain(ctx, contracts.ChainRequest{
		Ticker:     ticker,
		Expiration: expiration,
	})
	if err != nil {
		err = Classify(ticker, err)
		s.logger.WithTicker(ticker).WithError(err).Error("Failed to load option chain")
		return 0, err
	}

	return s.cache.PutChain(ctx, expiration, *chain), nil
}

// RunLoaded screens a chain previously stored by LoadChain
func (s *Screener) RunLoaded(ticker string, params contracts.SpreadParameters) (*contracts.ScreenerResults, error) {
	start := s.now()
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	chain, ok := s.cache.Chain(ticker)
	if !ok {
		return nil, &ScreenError{
			Kind:   KindNotFound,
			Ticker: ticker,
			Err:    fmt.Errorf("no loaded chain: %w", contracts.ErrNotFound),
		}
	}

	results := s.RunChain(chain, params)
	s.cache.AddSpreads(results.Spreads...)
	s.observe(ticker, results, start)
	return results, nil
}

// RunChain screens a supplied chain without any I/O.
// The caller's chain is not modified.
func (s *Screener) RunChain(chain contracts.OptionChain, params contracts.SpreadParameters) *contracts.ScreenerResults {
	now := s.now()
	underlying := chain.Underlying

	options := make([]contracts.Option, len(chain.Options))
	copy(options, chain.Options)

	stats := contracts.ScreenerStatistics{
		OptionsFilterSteps: []contracts.FilterStep{{Step: StepAll, Count: len(options)}},
	}

	legStep := func(label string, keep func(contracts.Option) bool) {
		options = filterOptions(options, keep)
		stats.OptionsFilterSteps = append(stats.OptionsFilterSteps, contracts.FilterStep{Step: label, Count: len(options)})
	}

	if v := params.MinDistanceToStrike; v != nil {
		legStep(StepDTS, func(o contracts.Option) bool {
			return spreads.FilterByDistanceToStrike(o, underlying, *v)
		})
	}
	if v := params.MinDistanceOverBollingerBand; v != nil {
		legStep(StepDOB, func(o contracts.Option) bool {
			return spreads.FilterByBollingerBands(o, underlying.BollingerBands.UpperBand, *v)
		})
	}
	if params.MinIV != nil || params.MaxIV != nil {
		minIV := valueOr(params.MinIV, 0)
		maxIV := contracts.Float64(valueOr(params.MaxIV, DefaultMaxIV))
		legStep(StepIV, func(o contracts.Option) bool {
			return spreads.FilterByIV(o, minIV, maxIV)
		})
	}
	if v := params.MaxDelta; v != nil {
		legStep(StepDelta, func(o contracts.Option) bool {
			return spreads.FilterByDelta(o, *v)
		})
	}
	if v := params.MinVolume; v != nil {
		legStep(StepVolume, func(o contracts.Option) bool {
			return spreads.FilterByVolume(o, *v)
		})
	}
	if v := params.MaxLegBidAskSpread; v != nil {
		legStep(StepBidAsk, func(o contracts.Option) bool {
			return spreads.FilterByBidAskSpread(o, *v)
		})
	}

	built := spreads.BuildCallCreditSpreads(
		contracts.OptionChain{Underlying: underlying, Options: options},
		valueOr(params.MinSpreadDistance, DefaultMinSpreadDistance),
		valueOr(params.MaxSpreadDistance, DefaultMaxSpreadDistance),
		now,
	)
	built = s.dropDegenerate(underlying.Ticker, built)

	stats.SpreadsFilterSteps = []contracts.FilterStep{{Step: StepAll, Count: len(built)}}

	spreadStep := func(label string, keep func(contracts.CallCreditSpread) bool) {
		built = filterSpreads(built, keep)
		stats.SpreadsFilterSteps = append(stats.SpreadsFilterSteps, contracts.FilterStep{Step: label, Count: len(built)})
	}

	if v := params.MinReturn; v != nil {
		spreadStep(StepReturn, func(sp contracts.CallCreditSpread) bool {
			return spreads.FilterByReturn(sp, *v)
		})
	}
	if v := params.MinDaysToEarnings; v != nil {
		spreadStep(StepNearEarnings, func(sp contracts.CallCreditSpread) bool {
			return spreads.FilterByDaysToEarnings(sp, *v)
		})
	}

	return &contracts.ScreenerResults{
		Spreads:    built,
		Statistics: stats,
	}
}

// GetSpread re-prices a specific spread from its two contract tickers
func (s *Screener) GetSpread(ctx context.Context, underlyingTicker, shortTicker, longTicker string) (*contracts.CallCreditSpread, error) {
	underlyingTicker = strings.ToUpper(strings.TrimSpace(underlyingTicker))

	stock, err := s.data.GetStock(ctx, underlyingTicker, nil)
	if err != nil {
		return nil, Classify(underlyingTicker, err)
	}

	var (
		wg                sync.WaitGroup
		shortLeg, longLeg *contracts.Option
		shortErr, longErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		shortLeg, shortErr = s.data.GetCallOption(ctx, shortTicker, *stock)
	}()
	go func() {
		defer wg.Done()
		longLeg, longErr = s.data.GetCallOption(ctx, longTicker, *stock)
	}()
	wg.Wait()

	if shortErr != nil {
		return nil, Classify(underlyingTicker, fmt.Errorf("short leg %s: %w", shortTicker, shortErr))
	}
	if longErr != nil {
		return nil, Classify(underlyingTicker, fmt.Errorf("long leg %s: %w", longTicker, longErr))
	}

	spread := spreads.BuildCallCreditSpread(*stock, *shortLeg, *longLeg, s.now())
	if err := spreads.ValidateSpread(spread); err != nil {
		return nil, Classify(underlyingTicker, err)
	}
	return &spread, nil
}

// BatchResult is the outcome for one ticker of RunBatch
type BatchResult struct {
	Ticker  string                     `json:"ticker"`
	Results *contracts.ScreenerResults `json:"results,omitempty"`
	Err     error                      `json:"-"`
}

// RunBatch screens tickers concurrently. A failing ticker is reported in its
// own BatchResult and never affects the others. Results keep input order.
func (s *Screener) RunBatch(ctx context.Context, tickers []string, expiration time.Time, params contracts.SpreadParameters) []BatchResult {
	results := make([]BatchResult, len(tickers))
	semaphore := make(chan struct{}, s.concurrency)

	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()

			results[i].Ticker = strings.ToUpper(strings.TrimSpace(ticker))

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				results[i].Err = Classify(results[i].Ticker, ctx.Err())
				return
			}

			res, err := s.Run(ctx, ticker, expiration, params)
			results[i].Results = res
			results[i].Err = err
		}(i, ticker)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"failed":  failed,
	}).Info("Batch screening completed")

	return results
}

func (s *Screener) dropDegenerate(ticker string, built []contracts.CallCreditSpread) []contracts.CallCreditSpread {
	kept := built[:0]
	for _, sp := range built {
		if err := spreads.ValidateSpread(sp); err != nil {
			s.logger.WithTicker(ticker).WithError(err).Warn("Dropping degenerate spread")
			s.metrics.IncDegenerate()
			continue
		}
		kept = append(kept, sp)
	}
	return kept
}

func (s *Screener) observe(ticker string, results *contracts.ScreenerResults, start time.Time) {
	for _, step := range results.Statistics.OptionsFilterSteps {
		s.metrics.ObserveFunnel(ticker, "options", step.Step, step.Count)
	}
	for _, step := range results.Statistics.SpreadsFilterSteps {
		s.metrics.ObserveFunnel(ticker, "spreads", step.Step, step.Count)
	}
	s.metrics.ObserveSpreads(ticker, len(results.Spreads))
	s.metrics.ObserveRun("ok", s.now().Sub(start))

	s.logger.WithTicker(ticker).WithFields(map[string]interface{}{
		"options": results.Statistics.OptionsFilterSteps,
		"spreads": len(results.Spreads),
	}).Info("Screening completed")
}

func filterOptions(in []contracts.Option, keep func(contracts.Option) bool) []contracts.Option {
	out := make([]contracts.Option, 0, len(in))
	for _, o := range in {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func filterSpreads(in []contracts.CallCreditSpread, keep func(contracts.CallCreditSpread) bool) []contracts.CallCreditSpread {
	out := make([]contracts.CallCreditSpread, 0, len(in))
	for _, sp := range in {
		if keep(sp) {
			out = append(out, sp)
		}
	}
	return out
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
