package marketdata

import (
	"math"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/expiry"
	"github.com/wonny/spreadscreener/internal/external/polygon"
	"github.com/wonny/spreadscreener/internal/external/yahoo"
	"github.com/wonny/spreadscreener/pkg/numeric"
)

// mergeOption builds an Option from a Polygon snapshot and the matching
// Yahoo quote (nil when Yahoo does not list the contract).
// Returns false when no price can be determined.
func mergeOption(snap polygon.Snapshot, quote *yahoo.OptionQuote, underlying contracts.Stock, cal *expiry.Calendar, now time.Time) (contracts.Option, bool) {
	expiration, err := cal.ParseDate(snap.Details.ExpirationDate)
	if err != nil {
		return contracts.Option{}, false
	}

	contractType := contracts.ContractType(snap.Details.ContractType)
	if !contractType.Valid() {
		contractType = contracts.Call
	}
	strike := snap.Details.StrikePrice

	opt := contracts.Option{
		DateUpdated:               now,
		Ticker:                    polygon.StripSymbol(snap.Details.Ticker),
		UnderlyingTicker:          underlying.Ticker,
		ContractType:              contractType,
		Strike:                    strike,
		Expiration:                expiration,
		DistanceToStrike:          numeric.RoundTo(contractType.SignedDistance(strike, underlying.Price), 4),
		DistanceOverBollingerBand: numeric.RoundTo(distanceOverBand(strike, underlying.BollingerBands.UpperBand), 4),
	}

	if quote != nil && quote.Bid != nil {
		opt.Bid = contracts.Float64(numeric.Round2(*quote.Bid))
	}
	if quote != nil && quote.Ask != nil {
		opt.Ask = contracts.Float64(numeric.Round2(*quote.Ask))
	}

	switch {
	case quote != nil && quote.Bid != nil && quote.Ask != nil:
		opt.Price = numeric.Round2((*quote.Bid + *quote.Ask) / 2)
	case snap.Day.Close != nil:
		opt.Price = numeric.Round2(*snap.Day.Close)
	default:
		opt.Price = math.NaN()
	}
	if math.IsNaN(opt.Price) {
		return contracts.Option{}, false
	}

	if snap.ImpliedVolatility != nil {
		opt.ImpliedVolatility = contracts.Float64(numeric.RoundTo(*snap.ImpliedVolatility, 4))
	}
	if !snap.Greeks.Empty() {
		opt.Greeks = &contracts.Greeks{
			Delta: round4(snap.Greeks.Delta),
			Gamma: round4(snap.Greeks.Gamma),
			Theta: round4(snap.Greeks.Theta),
			Vega:  round4(snap.Greeks.Vega),
		}
	}

	opt.Volume = sessionVolume(snap, quote, now)
	return opt, true
}

// sessionVolume prefers Yahoo when it traded today, then Polygon when its
// aggregate is from today, else 0 (a stale volume says nothing about today)
func sessionVolume(snap polygon.Snapshot, quote *yahoo.OptionQuote, now time.Time) int64 {
	if quote != nil && quote.Volume != nil {
		if traded := quote.LastTraded(); traded != nil && sameDay(*traded, now) {
			return *quote.Volume
		}
	}
	if snap.Day.Volume != nil && sameDay(snap.Day.LastUpdatedTime(), now) {
		return int64(*snap.Day.Volume)
	}
	return 0
}

// partialOption re-prices option from a daily bar. Expired out-of-the-money
// contracts are worth 0 whatever the bar says.
func partialOption(option contracts.Option, bar *polygon.OpenClose, underlying contracts.Stock, on time.Time) contracts.Option {
	expired := !option.Expiration.After(on)
	otm := underlying.Price < option.Strike

	price := 0.0
	if !(expired && otm) && bar.Close != nil {
		price = *bar.Close
	}
	var volume int64
	if bar.Volume != nil {
		volume = int64(*bar.Volume)
	}

	return contracts.Option{
		DateUpdated:               on,
		Ticker:                    option.Ticker,
		UnderlyingTicker:          underlying.Ticker,
		ContractType:              contracts.Call,
		Strike:                    option.Strike,
		Expiration:                option.Expiration,
		Price:                     price,
		Volume:                    volume,
		DistanceToStrike:          numeric.Round2(contracts.Call.SignedDistance(option.Strike, underlying.Price)),
		DistanceOverBollingerBand: numeric.Round2(distanceOverBand(option.Strike, underlying.BollingerBands.UpperBand)),
	}
}

func distanceOverBand(strike, upperBand float64) float64 {
	if strike == 0 {
		return 0
	}
	return (strike - upperBand) / strike
}

func round4(v *float64) float64 {
	if v == nil {
		return 0
	}
	return numeric.RoundTo(*v, 4)
}

// sameDay compares calendar days in now's location
func sameDay(t, now time.Time) bool {
	if t.IsZero() || now.IsZero() {
		return false
	}
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.YearDay() == now.YearDay()
}
