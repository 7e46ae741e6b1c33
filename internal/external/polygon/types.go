package polygon

import "time"

// Snapshot is one option contract from the snapshot endpoints
type Snapshot struct {
	Details           Details         `json:"details"`
	Day               Day             `json:"day"`
	Greeks            Greeks          `json:"greeks"`
	ImpliedVolatility *float64        `json:"implied_volatility"`
	OpenInterest      float64         `json:"open_interest"`
	UnderlyingAsset   UnderlyingAsset `json:"underlying_asset"`
}

// Details is the static part of a contract
type Details struct {
	ContractType   string  `json:"contract_type"`
	ExerciseStyle  string  `json:"exercise_style"`
	ExpirationDate string  `json:"expiration_date"` // YYYY-MM-DD
	SharesPer      float64 `json:"shares_per_contract"`
	StrikePrice    float64 `json:"strike_price"`
	Ticker         string  `json:"ticker"` // O:AAPL240119C00200000
}

// Day is the current session aggregate
type Day struct {
	Close       *float64 `json:"close"`
	High        float64  `json:"high"`
	Low         float64  `json:"low"`
	Open        float64  `json:"open"`
	Volume      *float64 `json:"volume"`
	VWAP        float64  `json:"vwap"`
	LastUpdated int64    `json:"last_updated"` // unix nanoseconds
}

// LastUpdatedTime converts LastUpdated; zero when absent
func (d Day) LastUpdatedTime() time.Time {
	if d.LastUpdated == 0 {
		return time.Time{}
	}
	return time.Unix(0, d.LastUpdated)
}

// Greeks is empty ({}) when Polygon has none for the contract
type Greeks struct {
	Delta *float64 `json:"delta"`
	Gamma *float64 `json:"gamma"`
	Theta *float64 `json:"theta"`
	Vega  *float64 `json:"vega"`
}

// Empty reports an empty greeks object
func (g Greeks) Empty() bool {
	return g.Delta == nil && g.Gamma == nil && g.Theta == nil && g.Vega == nil
}

// UnderlyingAsset carries the underlying quote of a snapshot
type UnderlyingAsset struct {
	Price  float64 `json:"price"`
	Ticker string  `json:"ticker"`
}

// OpenClose is the daily bar of a contract
type OpenClose struct {
	Status string   `json:"status"`
	From   string   `json:"from"`
	Symbol string   `json:"symbol"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

type chainResponse struct {
	Status    string     `json:"status"`
	RequestID string     `json:"request_id"`
	Message   string     `json:"message"`
	Results   []Snapshot `json:"results"`
	NextURL   string     `json:"next_url"`
}

type contractResponse struct {
	Status  string    `json:"status"`
	Results *Snapshot `json:"results"`
}
