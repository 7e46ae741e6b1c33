package screener

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
)

var (
	testNow        = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	testExpiration = time.Date(2024, 1, 12, 17, 30, 0, 0, time.UTC)
)

func fixedClock() time.Time { return testNow }

// fakeMarket serves canned chains and options keyed by ticker
type fakeMarket struct {
	mu      sync.Mutex
	chains  map[string]contracts.OptionChain
	options map[string]contracts.Option
	errs    map[string]error
	calls   int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		chains:  make(map[string]contracts.OptionChain),
		options: make(map[string]contracts.Option),
		errs:    make(map[string]error),
	}
}

func (f *fakeMarket) GetStock(ctx context.Context, ticker string, on *time.Time) (*contracts.Stock, error) {
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	chain, ok := f.chains[ticker]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", ticker, contracts.ErrNotFound)
	}
	stock := chain.Underlying
	return &stock, nil
}

func (f *fakeMarket) GetCallOptionChain(ctx context.Context, req contracts.ChainRequest) (*contracts.OptionChain, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err := f.errs[req.Ticker]; err != nil {
		return nil, err
	}
	chain, ok := f.chains[req.Ticker]
	if !ok {
		return nil, fmt.Errorf("Quote not found for ticker symbol: %s: %w", req.Ticker, contracts.ErrNotFound)
	}
	out := chain
	out.Options = append([]contracts.Option(nil), chain.Options...)
	return &out, nil
}

func (f *fakeMarket) GetCallOption(ctx context.Context, optionTicker string, underlying contracts.Stock) (*contracts.Option, error) {
	o, ok := f.options[optionTicker]
	if !ok {
		return nil, fmt.Errorf("contract %s: %w", optionTicker, contracts.ErrNotFound)
	}
	return &o, nil
}

func (f *fakeMarket) GetExistingCallOption(ctx context.Context, option contracts.Option, underlying contracts.Stock, on *time.Time) (*contracts.Option, error) {
	return f.GetCallOption(ctx, option.Ticker, underlying)
}

type optionSpec struct {
	strike, price, iv, delta float64
	volume                   int64
}

func call(ticker string, spec optionSpec) contracts.Option {
	return contracts.Option{
		Ticker:            fmt.Sprintf("%s240112C%08d", ticker, int(spec.strike*1000)),
		UnderlyingTicker:  ticker,
		ContractType:      contracts.Call,
		Strike:            spec.strike,
		Expiration:        testExpiration,
		Price:             spec.price,
		Bid:               contracts.Float64(spec.price - 0.02),
		Ask:               contracts.Float64(spec.price + 0.02),
		ImpliedVolatility: contracts.Float64(spec.iv),
		Greeks:            &contracts.Greeks{Delta: spec.delta},
		Volume:            spec.volume,
	}
}

func testStock(ticker string, price, upperBand float64) contracts.Stock {
	return contracts.Stock{
		DateUpdated:    testNow,
		Ticker:         strings.ToUpper(ticker),
		Name:           ticker + " Inc.",
		Price:          price,
		BollingerBands: contracts.BollingerBands{UpperBand: upperBand, MiddleBand: price, LowerBand: price - (upperBand - price)},
	}
}
