package spreads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/spreadscreener/internal/contracts"
)

func TestFilterByDelta(t *testing.T) {
	opt := liquidCall(110, 0.3)
	assert.False(t, FilterByDelta(opt, 0.1), "no greeks")

	opt.Greeks = &contracts.Greeks{Delta: 0.08}
	assert.True(t, FilterByDelta(opt, 0.1))
	assert.True(t, FilterByDelta(opt, 0.08))

	opt.Greeks = &contracts.Greeks{Delta: 0.15}
	assert.False(t, FilterByDelta(opt, 0.1))
}

func TestFilterByIV(t *testing.T) {
	opt := liquidCall(110, 0.3)
	assert.False(t, FilterByIV(opt, 0, nil), "no iv")

	opt.ImpliedVolatility = contracts.Float64(0.35)
	assert.False(t, FilterByIV(opt, 0.40, nil))

	opt.ImpliedVolatility = contracts.Float64(0.45)
	assert.True(t, FilterByIV(opt, 0.40, contracts.Float64(0.50)))
	assert.False(t, FilterByIV(opt, 0.40, contracts.Float64(0.44)))

	// zero max means unbounded
	opt.ImpliedVolatility = contracts.Float64(3.0)
	assert.True(t, FilterByIV(opt, 0.40, contracts.Float64(0)))
	assert.True(t, FilterByIV(opt, 0.40, nil))
}

func TestFilterByVolume(t *testing.T) {
	opt := liquidCall(110, 0.3)
	opt.Volume = 5
	assert.True(t, FilterByVolume(opt, 5))
	assert.False(t, FilterByVolume(opt, 6))
	assert.True(t, FilterByVolume(liquidCall(110, 0.3), 0))
}

func TestFilterByDistanceToStrike(t *testing.T) {
	underlying := contracts.Stock{Ticker: "TEST", Price: 100}

	call := liquidCall(110, 0.3)
	call.DistanceToStrike = -1 // stale cached value is ignored
	assert.True(t, FilterByDistanceToStrike(call, underlying, 0.10))
	assert.False(t, FilterByDistanceToStrike(call, underlying, 0.11))

	put := call
	put.ContractType = contracts.Put
	put.Strike = 90
	assert.True(t, FilterByDistanceToStrike(put, underlying, 0.10))
	assert.False(t, FilterByDistanceToStrike(put, underlying, 0.15))
}

func TestFilterByBollingerBands(t *testing.T) {
	opt := liquidCall(105, 0.3)
	assert.True(t, FilterByBollingerBands(opt, 100, 0.05))
	assert.False(t, FilterByBollingerBands(opt, 100, 0.06))

	// rounded to two places before comparing: 0.0449 -> 0.04
	opt.Strike = 104.49
	assert.True(t, FilterByBollingerBands(opt, 100, 0.04))

	// below the band with a negative threshold
	opt.Strike = 97
	assert.True(t, FilterByBollingerBands(opt, 100, -0.05))
	assert.False(t, FilterByBollingerBands(opt, 100, 0))
}

func TestFilterByBidAskSpread(t *testing.T) {
	opt := liquidCall(110, 0.3)
	opt.Bid, opt.Ask = nil, nil
	assert.True(t, FilterByBidAskSpread(opt, 0.4), "unevaluable passes")

	opt.Bid = contracts.Float64(0.5)
	opt.Ask = contracts.Float64(1.0)
	assert.True(t, FilterByBidAskSpread(opt, 0.5))
	assert.False(t, FilterByBidAskSpread(opt, 0.4))

	opt.Bid = contracts.Float64(0)
	assert.True(t, FilterByBidAskSpread(opt, 0.1), "zero bid passes")
}

func TestFilterByReturn(t *testing.T) {
	spread := contracts.CallCreditSpread{ReturnAtExpiration: 0.05}
	assert.True(t, FilterByReturn(spread, 0.05))
	assert.False(t, FilterByReturn(spread, 0.06))
}

func TestFilterByDaysToEarnings(t *testing.T) {
	expiration := time.Date(2024, 1, 10, 21, 0, 0, 0, time.UTC)
	spread := contracts.CallCreditSpread{Expiration: expiration}

	assert.True(t, FilterByDaysToEarnings(spread, 7), "no earnings date")

	spread.Underlying.EarningsDate = contracts.Time(time.Date(2024, 1, 12, 21, 0, 0, 0, time.UTC))
	assert.False(t, FilterByDaysToEarnings(spread, 7))
	assert.True(t, FilterByDaysToEarnings(spread, 2))

	// earnings before expiration counts the same
	spread.Underlying.EarningsDate = contracts.Time(time.Date(2023, 12, 20, 21, 0, 0, 0, time.UTC))
	assert.True(t, FilterByDaysToEarnings(spread, 7))
}
