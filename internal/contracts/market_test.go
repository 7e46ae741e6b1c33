package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractType_SignedDistance(t *testing.T) {
	tests := []struct {
		name   string
		ct     ContractType
		strike float64
		price  float64
		want   float64
	}{
		{"otm call", Call, 110, 100, 0.10},
		{"itm call", Call, 90, 100, -0.10},
		{"otm put", Put, 90, 100, 0.10},
		{"itm put", Put, 110, 100, -0.10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.ct.SignedDistance(tt.strike, tt.price), 1e-12)
		})
	}

	assert.True(t, Call.Valid())
	assert.False(t, ContractType("straddle").Valid())
}

func TestOption_Illiquid(t *testing.T) {
	tests := []struct {
		name string
		bid  *float64
		ask  *float64
		want bool
	}{
		{"liquid", Float64(1.2), Float64(1.3), false},
		{"zero bid", Float64(0), Float64(0.05), true},
		{"zero ask", Float64(0.05), Float64(0), true},
		{"missing quotes", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Option{Bid: tt.bid, Ask: tt.ask}.Illiquid())
		})
	}
}

func TestStock_WithoutHistory(t *testing.T) {
	s := Stock{Ticker: "AAPL", HistoricalPrices: []HistoricalPrice{{Price: 1}}}
	stripped := s.WithoutHistory()

	assert.Nil(t, stripped.HistoricalPrices)
	assert.Len(t, s.HistoricalPrices, 1, "original must be untouched")
}

func TestSpreadKey(t *testing.T) {
	exp := time.Date(2024, 1, 19, 17, 30, 0, 0, time.UTC)
	spread := CallCreditSpread{
		Underlying: Stock{Ticker: "AAPL"},
		ShortLeg:   Option{Strike: 200},
		LongLeg:    Option{Strike: 202.5},
		Expiration: exp,
	}

	assert.Equal(t, "AAPL:2024-01-19:200/202.5", spread.Key())
	assert.Equal(t, 2.5, spread.Distance())
}

func TestTrade_JSONFieldNames(t *testing.T) {
	trade := CallCreditSpreadTrade{
		ID:           "abc",
		Status:       TradeOpen,
		Quantity:     2,
		SpreadAtOpen: CallCreditSpread{Underlying: Stock{Ticker: "MSFT"}},
	}

	data, err := json.Marshal(trade)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "open", raw["status"])
	assert.Contains(t, raw, "spreadAtOpen")
	assert.NotContains(t, raw, "spreadAtClose")
	assert.Equal(t, "MSFT", trade.Ticker())
}
