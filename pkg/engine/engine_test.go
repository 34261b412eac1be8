package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/events"
	"github.com/tradepit/marketsim/pkg/orderbook"
)

type recordingSink struct {
	mu     sync.Mutex
	events []*events.Event
}

func (s *recordingSink) Publish(ev *events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) byType(t events.EventType) []*events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*events.Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEngine() (*Engine, *recordingSink) {
	e := New(orderbook.NewBookManager(), zap.NewNop())
	sink := &recordingSink{}
	e.RegisterSink(sink)
	return e, sink
}

func submit(t *testing.T, e *Engine, side orderbook.Side, price float64, qty int64, user string) *SubmitResult {
	t.Helper()
	res, err := e.Submit(context.Background(), &SubmitRequest{
		Instrument: "AAPL",
		Side:       side,
		Price:      decimal.NewFromFloat(price),
		Quantity:   decimal.NewFromInt(qty),
		UserID:     user,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res
}

func TestSubmitRestsOnEmptyBook(t *testing.T) {
	e, sink := newTestEngine()

	res := submit(t, e, orderbook.BUY, 100, 10, "u1")
	if res.Status != orderbook.StatusOpen {
		t.Errorf("expected OPEN, got %s", res.Status)
	}
	if res.Unfilled != 10 {
		t.Errorf("expected unfilled 10, got %d", res.Unfilled)
	}
	if res.OrderID == "" {
		t.Error("expected book-assigned order ID")
	}

	accepted := sink.byType(events.TypeOrderAccepted)
	if len(accepted) != 1 || accepted[0].OrderID != res.OrderID {
		t.Errorf("expected 1 accepted event for %s, got %+v", res.OrderID, accepted)
	}
}

func TestSubmitMatchesAndEmitsTrades(t *testing.T) {
	e, sink := newTestEngine()

	submit(t, e, orderbook.SELL, 102, 8, "seller")
	res := submit(t, e, orderbook.BUY, 103, 15, "buyer")

	if res.Status != orderbook.StatusPartiallyFilled {
		t.Errorf("expected PARTIALLY_FILLED, got %s", res.Status)
	}
	if res.Unfilled != 7 {
		t.Errorf("expected unfilled 7, got %d", res.Unfilled)
	}

	trades := sink.byType(events.TypeTrade)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade event, got %d", len(trades))
	}
	tr := trades[0].Trade
	if tr == nil || tr.Price != 102 || tr.Quantity != 8 {
		t.Errorf("unexpected trade payload: %+v", tr)
	}
	if tr.BuyUserID != "buyer" || tr.SellUserID != "seller" {
		t.Errorf("wrong trade attribution: %+v", tr)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	e, _ := newTestEngine()

	cases := []struct {
		name string
		req  *SubmitRequest
		want error
	}{
		{
			"unknown side",
			&SubmitRequest{Instrument: "AAPL", Side: "HOLD", Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1)},
			orderbook.ErrInvalidSide,
		},
		{
			"non-positive price",
			&SubmitRequest{Instrument: "AAPL", Side: orderbook.BUY, Price: decimal.Zero, Quantity: decimal.NewFromInt(1)},
			orderbook.ErrInvalidPrice,
		},
		{
			"non-positive quantity",
			&SubmitRequest{Instrument: "AAPL", Side: orderbook.BUY, Price: decimal.NewFromInt(100), Quantity: decimal.Zero},
			orderbook.ErrInvalidQuantity,
		},
		{
			"fractional quantity",
			&SubmitRequest{Instrument: "AAPL", Side: orderbook.BUY, Price: decimal.NewFromInt(100), Quantity: decimal.NewFromFloat(1.5)},
			orderbook.ErrInvalidQuantity,
		},
	}

	for _, tc := range cases {
		if _, err := e.Submit(context.Background(), tc.req); err != tc.want {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	// nothing rested
	if _, ok := e.BestBid("AAPL"); ok {
		t.Error("rejected orders must not mutate the book")
	}
}

func TestCancelOutcomes(t *testing.T) {
	e, sink := newTestEngine()

	res := submit(t, e, orderbook.BUY, 100, 10, "u1")

	if out := e.Cancel(context.Background(), "AAPL", res.OrderID); out.Status != CancelCancelled {
		t.Errorf("expected CANCELLED, got %s", out.Status)
	}
	// idempotent: second cancel is NOT_FOUND, never an error
	if out := e.Cancel(context.Background(), "AAPL", res.OrderID); out.Status != CancelNotFound {
		t.Errorf("expected NOT_FOUND on double cancel, got %s", out.Status)
	}
	if out := e.Cancel(context.Background(), "AAPL", "no-such-order"); out.Status != CancelNotFound {
		t.Errorf("expected NOT_FOUND for unknown order, got %s", out.Status)
	}

	cancelled := sink.byType(events.TypeOrderCancelled)
	if len(cancelled) != 1 {
		t.Errorf("expected exactly 1 cancel event, got %d", len(cancelled))
	}
}

func TestCancelAfterFillIsNotFound(t *testing.T) {
	e, _ := newTestEngine()

	sellRes := submit(t, e, orderbook.SELL, 102, 5, "seller")
	submit(t, e, orderbook.BUY, 103, 5, "buyer")

	if out := e.Cancel(context.Background(), "AAPL", sellRes.OrderID); out.Status != CancelNotFound {
		t.Errorf("cancelling a filled order should be NOT_FOUND, got %s", out.Status)
	}
}

func TestMidPriceFallsBackToReference(t *testing.T) {
	e, _ := newTestEngine()

	if _, ok := e.MidPrice("AAPL"); ok {
		t.Error("no book, no reference: mid must be unavailable")
	}

	e.SetReferencePrice(func(instrument string) (float64, bool) {
		return 180.5, true
	})
	if mid, ok := e.MidPrice("AAPL"); !ok || mid != 180.5 {
		t.Errorf("expected reference fallback 180.5, got %v ok=%v", mid, ok)
	}

	// a two-sided book takes precedence over the feed
	submit(t, e, orderbook.BUY, 100, 1, "u1")
	submit(t, e, orderbook.SELL, 102, 1, "u2")
	if mid, ok := e.MidPrice("AAPL"); !ok || mid != 101 {
		t.Errorf("expected book mid 101, got %v ok=%v", mid, ok)
	}
}

func TestDriftSignal(t *testing.T) {
	e, _ := newTestEngine()

	if e.Drift() != 0 {
		t.Errorf("expected zero drift initially, got %v", e.Drift())
	}
	e.SetDrift(-0.35)
	if e.Drift() != -0.35 {
		t.Errorf("expected drift -0.35, got %v", e.Drift())
	}
}
