package trades

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/spreads"
)

var (
	testOpened     = time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC)
	testExpiration = time.Date(2024, 1, 12, 17, 30, 0, 0, time.UTC)
)

func testSpread() contracts.CallCreditSpread {
	underlying := contracts.Stock{
		Ticker: "AAPL",
		Price:  100,
		HistoricalPrices: []contracts.HistoricalPrice{
			{Date: testOpened.AddDate(0, 0, -1), Price: 99},
		},
	}
	short := contracts.Option{Ticker: "AAPL240112C00105000", Strike: 105, Price: 1.2, Expiration: testExpiration}
	long := contracts.Option{Ticker: "AAPL240112C00110000", Strike: 110, Price: 0.4, Expiration: testExpiration}
	return spreads.BuildCallCreditSpread(underlying, short, long, testOpened)
}

// fakeMarket prices both legs from a per-call table; on != nil selects the
// expiration prices
type fakeMarket struct {
	live    map[string]float64
	expired map[string]float64
	stock   float64
	err     error
	ons     []*time.Time
}

func (f *fakeMarket) GetStock(ctx context.Context, ticker string, on *time.Time) (*contracts.Stock, error) {
	f.ons = append(f.ons, on)
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.Stock{
		Ticker:           ticker,
		Price:            f.stock,
		HistoricalPrices: []contracts.HistoricalPrice{{Price: f.stock}},
	}, nil
}

func (f *fakeMarket) GetCallOptionChain(ctx context.Context, req contracts.ChainRequest) (*contracts.OptionChain, error) {
	return nil, fmt.Errorf("chain %s: %w", req.Ticker, contracts.ErrNotFound)
}

func (f *fakeMarket) GetCallOption(ctx context.Context, optionTicker string, underlying contracts.Stock) (*contracts.Option, error) {
	return nil, fmt.Errorf("contract %s: %w", optionTicker, contracts.ErrNotFound)
}

func (f *fakeMarket) GetExistingCallOption(ctx context.Context, option contracts.Option, underlying contracts.Stock, on *time.Time) (*contracts.Option, error) {
	prices := f.live
	if on != nil {
		prices = f.expired
	}
	price, ok := prices[option.Ticker]
	if !ok {
		return nil, fmt.Errorf("contract %s: %w", option.Ticker, contracts.ErrNotFound)
	}
	option.Price = price
	return &option, nil
}
