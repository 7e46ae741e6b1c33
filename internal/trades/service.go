package trades

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/metrics"
	"github.com/wonny/spreadscreener/internal/screener"
	"github.com/wonny/spreadscreener/internal/spreads"
	"github.com/wonny/spreadscreener/pkg/logger"
)

// ErrNoMarketData: the service was built without a market data provider
var ErrNoMarketData = errors.New("no market data provider configured")

// Service ties a TradeStore to market data refresh and the in-memory cache
type Service struct {
	store   contracts.TradeStore
	data    contracts.MarketData // optional
	cache   *screener.Cache      // optional
	metrics *metrics.Registry    // optional
	logger  *logger.Logger
	now     func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithMarketData enables live and expiration snapshots
func WithMarketData(data contracts.MarketData) Option {
	return func(s *Service) { s.data = data }
}

// WithCache mirrors trades into the screener cache
func WithCache(c *screener.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics records refresh outcomes
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a trade service on store
func NewService(store contracts.TradeStore, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.WithComponent("trades"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List loads every trade and refreshes the cache
func (s *Service) List(ctx context.Context) ([]contracts.CallCreditSpreadTrade, error) {
	trades, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetTrades(trades)
	}
	s.metrics.SetOpenTrades(countOpen(trades))
	return trades, nil
}

// Get returns a trade, from the cache when present
func (s *Service) Get(ctx context.Context, id string) (*contracts.CallCreditSpreadTrade, error) {
	if s.cache != nil {
		if trade, ok := s.cache.Trade(id); ok {
			return &trade, nil
		}
	}
	return s.store.Get(ctx, id)
}

// Execute opens and stores a trade on spread
func (s *Service) Execute(ctx context.Context, spread contracts.CallCreditSpread, quantity int, atPrice *float64) (*contracts.CallCreditSpreadTrade, error) {
	trade, err := Execute(spread, quantity, atPrice, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, trade); err != nil {
		return nil, err
	}

	s.logger.WithTicker(trade.Ticker()).WithFields(map[string]interface{}{
		"trade_id": trade.ID,
		"quantity": trade.Quantity,
		"credit":   trade.Credit,
	}).Info("Trade executed")
	return trade, nil
}

// Close closes an open trade at the live spread price, or at atPrice when
// given (falls back to the last known spread if live data is unavailable)
func (s *Service) Close(ctx context.Context, id string, atPrice *float64) (*contracts.CallCreditSpreadTrade, error) {
	trade, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.Status != contracts.TradeOpen {
		return nil, fmt.Errorf("close %s (%s): %w", trade.ID, trade.Status, ErrTradeNotOpen)
	}

	now := s.now()
	closing, err := s.liveSpread(ctx, *trade)
	if err != nil {
		if atPrice == nil {
			return nil, err
		}
		s.logger.WithTicker(trade.Ticker()).WithError(err).Warn("Live spread unavailable, closing at given price")
		last := trade.SpreadAtOpen
		if trade.SpreadLive != nil {
			last = *trade.SpreadLive
		}
		closing = &last
	}
	if atPrice != nil {
		repricedSpread := repriced(*closing, *atPrice)
		repricedSpread.DateUpdated = now
		closing = &repricedSpread
	}

	if err := Close(trade, *closing, now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, trade); err != nil {
		return nil, err
	}

	s.logger.WithTicker(trade.Ticker()).WithFields(map[string]interface{}{
		"trade_id": trade.ID,
		"debit":    *trade.Debit,
	}).Info("Trade closed")
	return trade, nil
}

// Refresh updates one trade and stores it
func (s *Service) Refresh(ctx context.Context, id string) (*contracts.CallCreditSpreadTrade, error) {
	trade, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, trade); err != nil {
		return nil, err
	}
	if err := s.save(ctx, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// RefreshSummary counts the outcome of RefreshAll
type RefreshSummary struct {
	Refreshed int `json:"refreshed"`
	Expired   int `json:"expired"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	// expired trades still waiting for their expiration snapshot
	Unpriced int `json:"unpriced"`
}

// RefreshAll refreshes every stored trade. A failing trade is logged and
// counted; the error is returned only when listing fails.
func (s *Service) RefreshAll(ctx context.Context) (RefreshSummary, error) {
	var summary RefreshSummary

	trades, err := s.store.List(ctx)
	if err != nil {
		return summary, err
	}

	for i := range trades {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		trade := &trades[i]
		if trade.Status == contracts.TradeClosed || trade.SpreadAtExpiration != nil {
			summary.Skipped++
			continue
		}

		wasOpen := trade.Status == contracts.TradeOpen
		if err := s.refresh(ctx, trade); err != nil {
			summary.Failed++
			s.metrics.ObserveTradeRefresh("failed")
			s.logger.WithTicker(trade.Ticker()).WithError(err).WithField("trade_id", trade.ID).Warn("Trade refresh failed")
			continue
		}
		if err := s.save(ctx, trade); err != nil {
			summary.Failed++
			s.metrics.ObserveTradeRefresh("failed")
			s.logger.WithError(err).WithField("trade_id", trade.ID).Error("Failed to save refreshed trade")
			continue
		}

		if trade.Status == contracts.TradeExpired && trade.SpreadAtExpiration == nil && s.data != nil {
			summary.Unpriced++
			s.metrics.ObserveTradeRefresh("unpriced")
		}
		if wasOpen && trade.Status == contracts.TradeExpired {
			summary.Expired++
			s.metrics.ObserveTradeRefresh("expired")
		} else {
			summary.Refreshed++
			s.metrics.ObserveTradeRefresh("refreshed")
		}
	}

	s.metrics.SetOpenTrades(countOpen(trades))
	s.logger.WithFields(map[string]interface{}{
		"refreshed": summary.Refreshed,
		"expired":   summary.Expired,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"unpriced":  summary.Unpriced,
	}).Info("Trades refreshed")
	return summary, nil
}

// refresh moves trade past expiration or rebuilds its live spread.
// A trade past expiration is always marked expired; a missing expiration
// snapshot is logged and retried on the next refresh.
func (s *Service) refresh(ctx context.Context, trade *contracts.CallCreditSpreadTrade) error {
	if trade.Status == contracts.TradeClosed {
		return nil
	}

	now := s.now()
	expiration := trade.SpreadAtOpen.Expiration
	if !now.After(expiration) {
		live, err := s.liveSpread(ctx, *trade)
		if err != nil {
			return err
		}
		trade.SpreadLive = live
		return nil
	}

	trade.Status = contracts.TradeExpired
	trade.SpreadLive = nil
	if trade.SpreadAtExpiration != nil || s.data == nil {
		return nil
	}

	atExpiration, err := s.spreadOn(ctx, *trade, &expiration)
	if err != nil {
		s.logger.WithTicker(trade.Ticker()).WithError(err).
			WithField("trade_id", trade.ID).
			Warn("Spread at expiration unavailable, trade expired without snapshot")
		return nil
	}
	trade.SpreadAtExpiration = atExpiration
	return nil
}

func (s *Service) liveSpread(ctx context.Context, trade contracts.CallCreditSpreadTrade) (*contracts.CallCreditSpread, error) {
	return s.spreadOn(ctx, trade, nil)
}

// spreadOn rebuilds the trade's spread live (on == nil) or as of *on
func (s *Service) spreadOn(ctx context.Context, trade contracts.CallCreditSpreadTrade, on *time.Time) (*contracts.CallCreditSpread, error) {
	if s.data == nil {
		return nil, ErrNoMarketData
	}

	open := trade.SpreadAtOpen
	underlying, err := s.data.GetStock(ctx, open.Underlying.Ticker, on)
	if err != nil {
		return nil, err
	}

	shortLeg, err := s.data.GetExistingCallOption(ctx, open.ShortLeg, *underlying, on)
	if err != nil {
		return nil, err
	}
	longLeg, err := s.data.GetExistingCallOption(ctx, open.LongLeg, *underlying, on)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if on != nil {
		at = *on
	}
	spread := spreads.BuildCallCreditSpread(underlying.WithoutHistory(), *shortLeg, *longLeg, at)
	if err := spreads.ValidateSpread(spread); err != nil {
		return nil, err
	}
	return &spread, nil
}

func (s *Service) save(ctx context.Context, trade *contracts.CallCreditSpreadTrade) error {
	if err := s.store.Save(ctx, trade); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.PutTrade(*trade)
	}
	return nil
}

func countOpen(trades []contracts.CallCreditSpreadTrade) int {
	n := 0
	for _, t := range trades {
		if t.Status == contracts.TradeOpen {
			n++
		}
	}
	return n
}
