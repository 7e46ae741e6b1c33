// Package marketdata assembles Stock, OptionChain and Option snapshots from
// Yahoo Finance quotes, Polygon option snapshots and Finviz earnings dates.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/expiry"
	"github.com/wonny/spreadscreener/internal/external/finviz"
	"github.com/wonny/spreadscreener/internal/external/polygon"
	"github.com/wonny/spreadscreener/internal/external/yahoo"
	"github.com/wonny/spreadscreener/pkg/logger"
	"github.com/wonny/spreadscreener/pkg/redis"
)

// HistoryDays is the trailing window of daily closes attached to a Stock
const HistoryDays = 365

// Service implements contracts.MarketData
// ⭐ SSOT: provider merge rules live here only
type Service struct {
	polygon  *polygon.Client
	yahoo    *yahoo.Client
	finviz   *finviz.Client // optional
	cache    *redis.Cache   // optional
	calendar *expiry.Calendar
	logger   *logger.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithFinviz enables the earnings date fallback scraper
func WithFinviz(c *finviz.Client) Option {
	return func(s *Service) { s.finviz = c }
}

// WithCache caches stock snapshots in Redis
func WithCache(c *redis.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the market data service
func NewService(p *polygon.Client, y *yahoo.Client, cal *expiry.Calendar, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		polygon:  p,
		yahoo:    y,
		calendar: cal,
		logger:   log.WithComponent("marketdata"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ contracts.MarketData = (*Service)(nil)

// GetStock returns the live snapshot of ticker, or the snapshot as of *on
func (s *Service) GetStock(ctx context.Context, ticker string, on *time.Time) (*contracts.Stock, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	ref := s.now()
	ttl := redis.TTLLong
	if on != nil {
		ref = *on
		ttl = redis.TTLDaily
	}

	if s.cache == nil {
		return s.buildStock(ctx, ticker, on, ref)
	}

	var stock contracts.Stock
	err := s.cache.GetOrSet(ctx, redis.StockKey(ticker, ref), &stock, ttl, func() (interface{}, error) {
		return s.buildStock(ctx, ticker, on, ref)
	})
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (s *Service) buildStock(ctx context.Context, ticker string, on *time.Time, ref time.Time) (*contracts.Stock, error) {
	quote, err := s.yahoo.Quote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var events *yahoo.CalendarEvents
	if quote.IsEquity() {
		events, err = s.yahoo.CalendarEvents(ctx, ticker)
		if err != nil {
			s.logger.WithTicker(ticker).WithError(err).Warn("Calendar events unavailable")
			events = nil
		}
	}

	history, err := s.yahoo.DailyCloses(ctx, ticker, ref.AddDate(0, 0, -HistoryDays), ref)
	if err != nil {
		return nil, err
	}

	price := *quote.RegularMarketPrice
	if on != nil {
		p, ok := priceOn(history, *on)
		if !ok {
			return nil, fmt.Errorf("failed to get %s price at %s: %w", ticker, on.Format("2006-01-02"), contracts.ErrProviderValidation)
		}
		price = p
	}

	stock := &contracts.Stock{
		DateUpdated:      ref,
		Ticker:           ticker,
		Name:             quote.Name(),
		Price:            price,
		EarningsDate:     s.earningsDate(ctx, ticker, quote, events),
		DividendDate:     quote.Dividend(),
		BollingerBands:   BollingerBands(closesOf(history), BollingerPeriod, BollingerK),
		HistoricalPrices: history,
	}
	if events != nil {
		stock.ExDividendDate = events.ExDividendDate.Time()
		if d := events.DividendDate.Time(); d != nil {
			stock.DividendDate = d
		}
	}

	return stock, nil
}

// earningsDate: calendar events, then quote timestamps, then Finviz
func (s *Service) earningsDate(ctx context.Context, ticker string, quote *yahoo.Quote, events *yahoo.CalendarEvents) *time.Time {
	if events != nil {
		if d := events.NextEarnings(); d != nil {
			return d
		}
	}
	if d := quote.EarningsDate(); d != nil {
		return d
	}
	if s.finviz == nil || !quote.IsEquity() {
		return nil
	}

	d, err := s.finviz.EarningsDate(ctx, ticker)
	if err != nil {
		s.logger.WithTicker(ticker).WithError(err).Debug("Finviz earnings lookup failed")
		return nil
	}
	return d
}

// GetCallOptionChain returns the calls of one expiration, ascending by strike
func (s *Service) GetCallOptionChain(ctx context.Context, req contracts.ChainRequest) (*contracts.OptionChain, error) {
	underlying := req.Underlying
	if underlying == nil {
		stock, err := s.GetStock(ctx, req.Ticker, nil)
		if err != nil {
			return nil, err
		}
		underlying = stock
	}

	quotes, err := s.yahoo.OptionQuotes(ctx, underlying.Ticker, req.Expiration)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.snapshots(ctx, *underlying, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	byTicker := indexQuotes(quotes)
	options := make([]contracts.Option, 0, len(snapshots))
	for _, snap := range snapshots {
		opt, ok := mergeOption(snap, byTicker[snap.Details.Ticker], *underlying, s.calendar, now)
		if !ok {
			continue
		}
		options = append(options, opt)
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].Strike < options[j].Strike })

	s.logger.WithTicker(underlying.Ticker).WithFields(map[string]interface{}{
		"expiration": req.Expiration.Format("2006-01-02"),
		"snapshots":  len(snapshots),
		"options":    len(options),
	}).Debug("Built call option chain")

	return &contracts.OptionChain{
		Underlying: *underlying,
		Options:    options,
	}, nil
}

func (s *Service) snapshots(ctx context.Context, underlying contracts.Stock, req contracts.ChainRequest) ([]polygon.Snapshot, error) {
	if len(req.Strikes) == 0 {
		q := polygon.ChainQuery{Expiration: req.Expiration}
		if req.OnlyOTM == nil || *req.OnlyOTM {
			q.StrikeGTE = contracts.Float64(underlying.Price)
		}
		return s.polygon.SnapshotChain(ctx, underlying.Ticker, q)
	}

	out := make([]polygon.Snapshot, 0, len(req.Strikes))
	for _, strike := range req.Strikes {
		snaps, err := s.polygon.SnapshotChain(ctx, underlying.Ticker, polygon.ChainQuery{
			Expiration: req.Expiration,
			Strike:     contracts.Float64(strike),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, snaps...)
	}
	return out, nil
}

// GetCallOption looks a single contract up by ticker
func (s *Service) GetCallOption(ctx context.Context, optionTicker string, underlying contracts.Stock) (*contracts.Option, error) {
	snap, err := s.polygon.SnapshotContract(ctx, underlying.Ticker, optionTicker)
	if err != nil {
		return nil, err
	}

	expiration, err := s.calendar.ParseDate(snap.Details.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("option %s: %w", optionTicker, contracts.ErrProviderValidation)
	}

	var quote *yahoo.OptionQuote
	quotes, err := s.yahoo.OptionQuotes(ctx, underlying.Ticker, expiration)
	if err != nil {
		if !errors.Is(err, contracts.ErrNotFound) {
			return nil, err
		}
	} else {
		quote = indexQuotes(quotes)[snap.Details.Ticker]
	}

	opt, ok := mergeOption(*snap, quote, underlying, s.calendar, s.now())
	if !ok {
		return nil, fmt.Errorf("option %s has no price: %w", optionTicker, contracts.ErrProviderValidation)
	}
	return &opt, nil
}

// GetExistingCallOption re-prices option live, or from the daily bar of *on
func (s *Service) GetExistingCallOption(ctx context.Context, option contracts.Option, underlying contracts.Stock, on *time.Time) (*contracts.Option, error) {
	if on == nil {
		return s.GetCallOption(ctx, option.Ticker, underlying)
	}

	bar, err := s.polygon.DailyOpenClose(ctx, option.Ticker, *on)
	if err != nil {
		return nil, err
	}
	opt := partialOption(option, bar, underlying, *on)
	return &opt, nil
}

func indexQuotes(quotes []yahoo.OptionQuote) map[string]*yahoo.OptionQuote {
	out := make(map[string]*yahoo.OptionQuote, len(quotes))
	for i := range quotes {
		out[polygon.OptionSymbol(quotes[i].ContractSymbol)] = &quotes[i]
	}
	return out
}

// priceOn finds the close whose date is within a day before on
func priceOn(history []contracts.HistoricalPrice, on time.Time) (float64, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		days := math.Floor(on.Sub(history[i].Date).Hours() / 24)
		if days == 0 {
			return history[i].Price, true
		}
	}
	return 0, false
}
