package contracts

import "time"

// ContractType distinguishes calls from puts
type ContractType string

const (
	Call ContractType = "call"
	Put  ContractType = "put"
)

// Valid reports whether t is a known contract type
func (t ContractType) Valid() bool {
	return t == Call || t == Put
}

// SignedDistance returns the fractional distance of the underlying price
// from strike, positive when the option is out of the money.
//
//	call: (strike - price) / price
//	put:  (price - strike) / price
func (t ContractType) SignedDistance(strike, price float64) float64 {
	if t == Put {
		return (price - strike) / price
	}
	return (strike - price) / price
}

// BollingerBands is the volatility envelope computed from trailing closes
type BollingerBands struct {
	UpperBand  float64 `json:"upperBand"`
	MiddleBand float64 `json:"middleBand"`
	LowerBand  float64 `json:"lowerBand"`
}

// HistoricalPrice is one daily close
type HistoricalPrice struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Stock is an underlying security snapshot, immutable once built
type Stock struct {
	DateUpdated      time.Time         `json:"dateUpdated"`
	Ticker           string            `json:"ticker"`
	Name             string            `json:"name"`
	Price            float64           `json:"price"`
	EarningsDate     *time.Time        `json:"earningsDate,omitempty"`
	ExDividendDate   *time.Time        `json:"exDividendDate,omitempty"`
	DividendDate     *time.Time        `json:"dividendDate,omitempty"`
	BollingerBands   BollingerBands    `json:"bollingerBands"`
	HistoricalPrices []HistoricalPrice `json:"historicalPrices,omitempty"`
}

// WithoutHistory returns a copy that drops the trailing price series
// (persisted trades do not need a year of closes per snapshot)
func (s Stock) WithoutHistory() Stock {
	s.HistoricalPrices = nil
	return s
}

// Greeks are absent (nil on Option) when the provider returned none
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// Option is a single options contract snapshot, immutable once built
type Option struct {
	DateUpdated               time.Time    `json:"dateUpdated"`
	Ticker                    string       `json:"ticker"`
	UnderlyingTicker          string       `json:"underlyingTicker"`
	ContractType              ContractType `json:"contractType"`
	Strike                    float64      `json:"strike"`
	Expiration                time.Time    `json:"expiration"`
	Price                     float64      `json:"price"`
	Bid                       *float64     `json:"bid,omitempty"`
	Ask                       *float64     `json:"ask,omitempty"`
	ImpliedVolatility         *float64     `json:"impliedVolatility,omitempty"`
	Greeks                    *Greeks      `json:"greeks,omitempty"`
	Volume                    int64        `json:"volume"`
	DistanceToStrike          float64      `json:"distanceToStrike"`
	DistanceOverBollingerBand float64      `json:"distanceOverBollingerBand"`
}

// Illiquid reports a zero bid or zero ask. A missing quote is not zero.
func (o Option) Illiquid() bool {
	return (o.Bid != nil && *o.Bid == 0) || (o.Ask != nil && *o.Ask == 0)
}

// OptionChain is one underlying plus its options, strike ascending by convention
type OptionChain struct {
	Underlying Stock    `json:"underlying"`
	Options    []Option `json:"options"`
}

// Float64 returns a pointer to v, for the optional quote fields
func Float64(v float64) *float64 {
	return &v
}

// Time returns a pointer to t
func Time(t time.Time) *time.Time {
	return &t
}
