// Package engine binds the per-instrument order books to the collaborators
// around them: it validates order intents at the boundary, delegates to the
// book, and publishes the resulting events without ever letting a slow
// consumer or an unavailable price feed stall matching.
package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/events"
	"github.com/tradepit/marketsim/pkg/orderbook"
)

type Engine struct {
	books *orderbook.BookManager
	log   *zap.Logger

	mu       sync.RWMutex
	sinks    []events.Sink
	refPrice func(instrument string) (float64, bool)

	// drift/stress scalar from the market-data and news collaborators.
	// Matching itself does not consume it yet.
	// TODO: feed executed volume and drift back into the price engine once
	// the impact model is settled.
	drift atomic.Uint64
}

func New(books *orderbook.BookManager, log *zap.Logger) *Engine {
	return &Engine{
		books: books,
		log:   log,
	}
}

// RegisterSink adds an event consumer. Sinks are invoked fire-and-forget on
// the submit path; they must not block (see events.BufferedSink).
func (e *Engine) RegisterSink(s events.Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// SetReferencePrice installs the market-data mid seed, used only as a
// fallback for MidPrice when a book is one-sided. Matching does not depend
// on it for correctness.
func (e *Engine) SetReferencePrice(fn func(instrument string) (float64, bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refPrice = fn
}

func (e *Engine) SetDrift(v float64) {
	e.drift.Store(math.Float64bits(v))
}

func (e *Engine) Drift() float64 {
	return math.Float64frombits(e.drift.Load())
}

// Submit matches an order intent against its instrument's book and reports
// the outcome. Invalid input is rejected before any book mutation.
func (e *Engine) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	order, err := req.toOrder()
	if err != nil {
		return nil, err
	}

	result, err := e.books.Match(order)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	e.emit(events.NewOrderEvent(events.TypeOrderAccepted, order, now))
	for _, tr := range result.Trades {
		e.emit(events.NewTradeEvent(tr, now))
	}

	return &SubmitResult{
		OrderID:  order.ID,
		Status:   result.Status,
		Unfilled: result.Remaining,
		Trades:   result.Trades,
	}, nil
}

// Cancel removes a resting order. NOT_FOUND is a typed outcome, not an
// error: double cancels and cancels racing a fill are expected.
func (e *Engine) Cancel(ctx context.Context, instrument, orderID string) *CancelResult {
	if !e.books.Remove(instrument, orderID) {
		return &CancelResult{Status: CancelNotFound}
	}

	e.emit(&events.Event{
		Type:       events.TypeOrderCancelled,
		Instrument: instrument,
		OrderID:    orderID,
		Status:     string(orderbook.StatusCancelled),
		Timestamp:  time.Now(),
	})
	return &CancelResult{Status: CancelCancelled}
}

func (e *Engine) BestBid(instrument string) (float64, bool) {
	o, ok := e.books.BestBid(instrument)
	if !ok {
		return 0, false
	}
	return o.Price, true
}

func (e *Engine) BestAsk(instrument string) (float64, bool) {
	o, ok := e.books.BestAsk(instrument)
	if !ok {
		return 0, false
	}
	return o.Price, true
}

// MidPrice is the book mid when both sides rest, otherwise the market-data
// reference price if one is installed.
func (e *Engine) MidPrice(instrument string) (float64, bool) {
	if mid, ok := e.books.MidPrice(instrument); ok {
		return mid, true
	}

	e.mu.RLock()
	ref := e.refPrice
	e.mu.RUnlock()
	if ref == nil {
		return 0, false
	}
	return ref(instrument)
}

func (e *Engine) Snapshot(instrument string, levels int) *orderbook.Snapshot {
	return e.books.Snapshot(instrument, levels)
}

func (e *Engine) emit(ev *events.Event) {
	e.mu.RLock()
	sinks := e.sinks
	e.mu.RUnlock()
	for _, s := range sinks {
		s.Publish(ev)
	}
}
