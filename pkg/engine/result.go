package engine

import (
	"github.com/shopspring/decimal"

	"github.com/tradepit/marketsim/pkg/orderbook"
)

// SubmitRequest is an order intent from a gateway (HTTP, FIX, bot). The
// user identifier arrives already authenticated and is opaque to the core.
type SubmitRequest struct {
	Instrument string
	Side       orderbook.Side
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	UserID     string
}

// toOrder converts boundary decimals into the book's native types. This is
// the single validation point for client input.
func (r *SubmitRequest) toOrder() (*orderbook.Order, error) {
	if r.Side != orderbook.BUY && r.Side != orderbook.SELL {
		return nil, orderbook.ErrInvalidSide
	}
	if r.Price.Sign() <= 0 {
		return nil, orderbook.ErrInvalidPrice
	}
	if r.Quantity.Sign() <= 0 || !r.Quantity.IsInteger() {
		return nil, orderbook.ErrInvalidQuantity
	}

	return &orderbook.Order{
		Instrument: r.Instrument,
		Side:       r.Side,
		Price:      r.Price.InexactFloat64(),
		Quantity:   r.Quantity.IntPart(),
		UserID:     r.UserID,
	}, nil
}

type SubmitResult struct {
	OrderID  string
	Status   orderbook.OrderStatus
	Unfilled int64
	Trades   []orderbook.Trade
}

type CancelStatus string

const (
	CancelCancelled CancelStatus = "CANCELLED"
	CancelNotFound  CancelStatus = "NOT_FOUND"
)

type CancelResult struct {
	Status CancelStatus
}
