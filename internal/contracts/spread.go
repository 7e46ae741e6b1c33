package contracts

import (
	"fmt"
	"time"
)

// CallCreditSpread is a short call paired with a higher-strike long call
// ⭐ SSOT: invariant LongLeg.Strike > ShortLeg.Strike
type CallCreditSpread struct {
	DateUpdated        time.Time `json:"dateUpdated"`
	Underlying         Stock     `json:"underlying"`
	ShortLeg           Option    `json:"shortLeg"`
	LongLeg            Option    `json:"longLeg"`
	Expiration         time.Time `json:"expiration"`
	Price              float64   `json:"price"`     // net credit per share
	MaxProfit          float64   `json:"maxProfit"` // 100 * price
	MaxLoss            float64   `json:"maxLoss"`   // collateral - maxProfit
	ReturnAtExpiration float64   `json:"returnAtExpiration"`
	DaysToExpiration   int       `json:"daysToExpiration"`
	Collateral         float64   `json:"collateral"` // 100 * strike distance
}

// Distance is the strike width of the spread
func (s CallCreditSpread) Distance() float64 {
	return s.LongLeg.Strike - s.ShortLeg.Strike
}

// Key identifies a spread by underlying, expiration day and strikes
func (s CallCreditSpread) Key() string {
	return SpreadKey(s.Underlying.Ticker, s.Expiration, s.ShortLeg.Strike, s.LongLeg.Strike)
}

// SpreadKey builds the lookup key used by the spread cache
func SpreadKey(ticker string, expiration time.Time, shortStrike, longStrike float64) string {
	return fmt.Sprintf("%s:%s:%g/%g", ticker, expiration.Format("2006-01-02"), shortStrike, longStrike)
}
