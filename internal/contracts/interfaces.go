package contracts

import (
	"context"
	"time"
)

// StockProvider builds Stock snapshots (quote, calendar, bands, history)
type StockProvider interface {
	// GetStock returns the live snapshot, or the snapshot as of *on
	GetStock(ctx context.Context, ticker string, on *time.Time) (*Stock, error)
}

// ChainRequest selects a call option chain
type ChainRequest struct {
	Ticker     string
	Underlying *Stock // reused instead of fetching when set
	Expiration time.Time
	Strikes    []float64 // explicit strikes; empty = whole chain
	OnlyOTM    *bool     // nil = true
}

// ChainProvider returns calls only, sorted ascending by strike, with the
// derived distance metrics populated
type ChainProvider interface {
	GetCallOptionChain(ctx context.Context, req ChainRequest) (*OptionChain, error)
}

// OptionProvider re-prices a single contract
type OptionProvider interface {
	// GetCallOption looks a contract up by ticker (e.g. AAPL240119C00200000)
	GetCallOption(ctx context.Context, optionTicker string, underlying Stock) (*Option, error)
	// GetExistingCallOption re-prices option live, or from the daily close of *on
	GetExistingCallOption(ctx context.Context, option Option, underlying Stock, on *time.Time) (*Option, error)
}

// MarketData is the full data-fetch surface consumed by the core
type MarketData interface {
	StockProvider
	ChainProvider
	OptionProvider
}

// TradeStore persists trades, one record per trade
type TradeStore interface {
	Save(ctx context.Context, trade *CallCreditSpreadTrade) error
	Get(ctx context.Context, id string) (*CallCreditSpreadTrade, error)
	List(ctx context.Context) ([]CallCreditSpreadTrade, error)
}
