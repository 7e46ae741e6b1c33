// Package trades executes, closes and marks call credit spread positions
// and persists them one record per trade.
package trades

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/spreadscreener/internal/contracts"
)

var (
	// ErrTradeNotFound: no stored trade has the id
	ErrTradeNotFound = errors.New("trade not found")
	// ErrInvalidQuantity: quantity must be a positive number of contracts
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrTradeNotOpen: closing a trade that is already closed or expired
	ErrTradeNotOpen = errors.New("trade is not open")
)

var hundred = decimal.NewFromInt(100)

// Execute opens a trade on spread. atPrice overrides the net credit
// (a fill different from the screened mid price).
func Execute(spread contracts.CallCreditSpread, quantity int, atPrice *float64, now time.Time) (*contracts.CallCreditSpreadTrade, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("execute %s: %w", spread.Key(), ErrInvalidQuantity)
	}

	spread.Underlying = spread.Underlying.WithoutHistory()
	if atPrice != nil {
		spread = repriced(spread, *atPrice)
	}

	qty := decimal.NewFromInt(int64(quantity))
	return &contracts.CallCreditSpreadTrade{
		ID:           uuid.NewString(),
		Status:       contracts.TradeOpen,
		Quantity:     quantity,
		Credit:       contractValue(spread.Price, quantity),
		Collateral:   decimal.NewFromFloat(spread.Collateral).Mul(qty).InexactFloat64(),
		DateOpened:   now,
		SpreadAtOpen: spread,
	}, nil
}

// Close marks trade closed at spreadAtClose. The debit paid is the closing
// spread price per contract times quantity.
func Close(trade *contracts.CallCreditSpreadTrade, spreadAtClose contracts.CallCreditSpread, at time.Time) error {
	if trade.Status != contracts.TradeOpen {
		return fmt.Errorf("close %s (%s): %w", trade.ID, trade.Status, ErrTradeNotOpen)
	}

	spreadAtClose.Underlying = spreadAtClose.Underlying.WithoutHistory()
	debit := contractValue(spreadAtClose.Price, trade.Quantity)

	trade.Status = contracts.TradeClosed
	trade.DateClosed = &at
	trade.Debit = &debit
	trade.SpreadAtClose = &spreadAtClose
	trade.SpreadLive = nil
	return nil
}

// PnLBasis tells which snapshot a profit figure was computed from
type PnLBasis string

const (
	BasisRealized   PnLBasis = "realized"
	BasisExpiration PnLBasis = "expiration"
	BasisLive       PnLBasis = "live"
	BasisNone       PnLBasis = "none"
)

// PnL is the profit of a trade in dollars and as a share of collateral
type PnL struct {
	Basis  PnLBasis `json:"basis"`
	Value  float64  `json:"value"`
	Return float64  `json:"return"`
}

// ComputePnL: realized for closed trades, at-expiration for expired ones,
// otherwise mark-to-market against the live spread
func ComputePnL(trade contracts.CallCreditSpreadTrade) PnL {
	var (
		basis PnLBasis
		cost  decimal.Decimal
	)
	switch {
	case trade.Status == contracts.TradeClosed && trade.Debit != nil:
		basis, cost = BasisRealized, decimal.NewFromFloat(*trade.Debit)
	case trade.SpreadAtExpiration != nil:
		basis = BasisExpiration
		cost = decimal.NewFromFloat(contractValue(trade.SpreadAtExpiration.Price, trade.Quantity))
	case trade.SpreadLive != nil:
		basis = BasisLive
		cost = decimal.NewFromFloat(contractValue(trade.SpreadLive.Price, trade.Quantity))
	default:
		return PnL{Basis: BasisNone}
	}

	value := decimal.NewFromFloat(trade.Credit).Sub(cost)
	pnl := PnL{Basis: basis, Value: value.Round(2).InexactFloat64()}
	if trade.Collateral > 0 {
		pnl.Return = value.Div(decimal.NewFromFloat(trade.Collateral)).Round(4).InexactFloat64()
	}
	return pnl
}

// repriced applies a fill price: maxProfit and maxLoss follow, the
// screened return is kept as it was quoted
func repriced(spread contracts.CallCreditSpread, price float64) contracts.CallCreditSpread {
	p := decimal.NewFromFloat(price)
	maxProfit := p.Mul(hundred)

	spread.Price = price
	spread.MaxProfit = maxProfit.InexactFloat64()
	spread.MaxLoss = decimal.NewFromFloat(spread.Distance()).Mul(hundred).Sub(maxProfit).InexactFloat64()
	return spread
}

// contractValue is price * 100 * quantity
func contractValue(price float64, quantity int) float64 {
	return decimal.NewFromFloat(price).Mul(hundred).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64()
}
