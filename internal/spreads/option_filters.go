package spreads

import (
	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/numeric"
)

// Leg filters: pure predicates over a single option.

// FilterByDelta passes when delta <= maxDelta.
// An option without Greeks cannot prove a low delta and is rejected.
func FilterByDelta(option contracts.Option, maxDelta float64) bool {
	if option.Greeks == nil {
		return false
	}
	return option.Greeks.Delta <= maxDelta
}

// FilterByIV passes when minIV <= iv and, if maxIV is set, iv <= maxIV.
// A nil or zero maxIV means no upper bound. Missing IV is rejected.
func FilterByIV(option contracts.Option, minIV float64, maxIV *float64) bool {
	if option.ImpliedVolatility == nil {
		return false
	}
	iv := *option.ImpliedVolatility
	if iv < minIV {
		return false
	}
	return maxIV == nil || *maxIV == 0 || iv <= *maxIV
}

// FilterByVolume passes when the session volume reaches minVolume
func FilterByVolume(option contracts.Option, minVolume float64) bool {
	return float64(option.Volume) >= minVolume
}

// FilterByDistanceToStrike recomputes the distance from the live underlying
// price rather than trusting the cached DistanceToStrike field
func FilterByDistanceToStrike(option contracts.Option, underlying contracts.Stock, minDistance float64) bool {
	return option.ContractType.SignedDistance(option.Strike, underlying.Price) >= minDistance
}

// FilterByBollingerBands passes when the strike sits at least minDistanceOver
// (fraction of the band) above the upper band
func FilterByBollingerBands(option contracts.Option, upperBand, minDistanceOver float64) bool {
	distanceFromBand := numeric.Round2((option.Strike - upperBand) / upperBand)
	return distanceFromBand >= minDistanceOver
}

// FilterByBidAskSpread passes when (ask-bid)/ask <= maxSpread.
// Without a non-zero bid and ask the width cannot be evaluated and the leg passes.
func FilterByBidAskSpread(option contracts.Option, maxSpread float64) bool {
	if option.Bid == nil || option.Ask == nil || *option.Bid == 0 || *option.Ask == 0 {
		return true
	}
	return (*option.Ask-*option.Bid) / *option.Ask <= maxSpread
}
