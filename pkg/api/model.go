package api

import (
	"time"

	"github.com/tradepit/marketsim/pkg/orderbook"
)

type SubmitOrderRequest struct {
	Instrument string `json:"instrumentId"`
	Side       string `json:"side"`
	Price      string `json:"price"`
	Quantity   string `json:"quantity"`
}

type SubmitOrderResponse struct {
	OrderID  string            `json:"orderId"`
	Status   string            `json:"status"`
	Unfilled int64             `json:"unfilled"`
	Trades   []orderbook.Trade `json:"trades"`
}

type CancelOrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type RankResponse struct {
	UserID string `json:"userId"`
	Rank   int64  `json:"rank"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PostNewsRequest struct {
	Headline   string     `json:"headline"`
	Magnitude  float64    `json:"magnitude"`
	HalfLifeMs int64      `json:"halfLifeMs"`
	ReleaseAt  *time.Time `json:"releaseAt,omitempty"`
}

// WSSubscribeRequest is the client-to-server control message on /ws/market.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
}
