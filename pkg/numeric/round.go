// Package numeric normalizes floating point noise in derived financial figures.
package numeric

import "math"

// RoundTo rounds value to the given number of decimal places, half away
// from zero. NaN and ±Inf pass through unchanged.
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// Round2 is RoundTo(value, 2), the precision used for prices and returns
func Round2(value float64) float64 {
	return RoundTo(value, 2)
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
