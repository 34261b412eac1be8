package events

import (
	"time"

	"github.com/tradepit/marketsim/pkg/orderbook"
)

type EventType string

const (
	TypeOrderAccepted  EventType = "ORDER_ACCEPTED"
	TypeOrderCancelled EventType = "ORDER_CANCELLED"
	TypeTrade          EventType = "TRADE"
)

// Event is what the matching path publishes for leaderboard, broadcast and
// audit consumers. Fire-and-forget: producers never wait on consumers.
type Event struct {
	Type       EventType        `json:"type"`
	Instrument string           `json:"instrumentId"`
	OrderID    string           `json:"orderId,omitempty"`
	UserID     string           `json:"userId,omitempty"`
	Side       orderbook.Side   `json:"side,omitempty"`
	Status     string           `json:"status,omitempty"`
	Price      float64          `json:"price,omitempty"`
	Quantity   int64            `json:"quantity,omitempty"`
	Trade      *orderbook.Trade `json:"trade,omitempty"`
	Timestamp  time.Time        `json:"ts"`
}

type Sink interface {
	Publish(ev *Event)
}

func NewOrderEvent(t EventType, o *orderbook.Order, now time.Time) *Event {
	return &Event{
		Type:       t,
		Instrument: o.Instrument,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Side:       o.Side,
		Status:     string(o.Status),
		Price:      o.Price,
		Quantity:   o.Quantity,
		Timestamp:  now,
	}
}

func NewTradeEvent(tr orderbook.Trade, now time.Time) *Event {
	t := tr
	return &Event{
		Type:       TypeTrade,
		Instrument: tr.Instrument,
		Price:      tr.Price,
		Quantity:   tr.Quantity,
		Trade:      &t,
		Timestamp:  now,
	}
}
