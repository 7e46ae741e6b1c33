package contracts

import "time"

// TradeStatus is the lifecycle state of an executed spread
type TradeStatus string

const (
	TradeOpen    TradeStatus = "open"
	TradeClosed  TradeStatus = "closed"
	TradeExpired TradeStatus = "expired"
)

// CallCreditSpreadTrade is a persisted position, one record per trade
type CallCreditSpreadTrade struct {
	ID                 string            `json:"id"`
	Status             TradeStatus       `json:"status"`
	Quantity           int               `json:"quantity"`
	Credit             float64           `json:"credit"`     // price * 100 * quantity
	Collateral         float64           `json:"collateral"` // spread collateral * quantity
	DateOpened         time.Time         `json:"dateOpened"`
	DateClosed         *time.Time        `json:"dateClosed,omitempty"`
	Debit              *float64          `json:"debit,omitempty"` // paid to close
	SpreadAtOpen       CallCreditSpread  `json:"spreadAtOpen"`
	SpreadAtClose      *CallCreditSpread `json:"spreadAtClose,omitempty"`
	SpreadAtExpiration *CallCreditSpread `json:"spreadAtExpiration,omitempty"`
	SpreadLive         *CallCreditSpread `json:"spreadLive,omitempty"`
}

// Ticker returns the underlying ticker of the trade
func (t CallCreditSpreadTrade) Ticker() string {
	return t.SpreadAtOpen.Underlying.Ticker
}
