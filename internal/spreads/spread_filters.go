package spreads

import (
	"math"

	"github.com/wonny/spreadscreener/internal/contracts"
)

// FilterByReturn passes when the return at expiration reaches minReturn
func FilterByReturn(spread contracts.CallCreditSpread, minReturn float64) bool {
	return spread.ReturnAtExpiration >= minReturn
}

// FilterByDaysToEarnings keeps spreads expiring at least minDays away from
// the next earnings report. No known earnings date passes.
func FilterByDaysToEarnings(spread contracts.CallCreditSpread, minDays float64) bool {
	if spread.Underlying.EarningsDate == nil {
		return true
	}

	daysBetween := CalendarDays(*spread.Underlying.EarningsDate, spread.Expiration)
	return math.Abs(daysBetween) >= minDays
}
