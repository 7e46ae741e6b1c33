package marketdata

import (
	"math"

	"github.com/wonny/spreadscreener/internal/contracts"
)

// Bollinger defaults: 20 sessions, 2 standard deviations
const (
	BollingerPeriod = 20
	BollingerK      = 2.0
)

// BollingerBands computes the envelope over the last period closes using the
// population standard deviation. Fewer closes than period use what is there.
func BollingerBands(closes []float64, period int, k float64) contracts.BollingerBands {
	if len(closes) == 0 || period <= 0 {
		return contracts.BollingerBands{}
	}
	if len(closes) < period {
		period = len(closes)
	}
	window := closes[len(closes)-period:]

	var sum float64
	for _, c := range window {
		sum += c
	}
	mean := sum / float64(period)

	var sq float64
	for _, c := range window {
		sq += (c - mean) * (c - mean)
	}
	std := math.Sqrt(sq / float64(period))

	return contracts.BollingerBands{
		UpperBand:  mean + k*std,
		MiddleBand: mean,
		LowerBand:  mean - k*std,
	}
}

func closesOf(prices []contracts.HistoricalPrice) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Price
	}
	return out
}
