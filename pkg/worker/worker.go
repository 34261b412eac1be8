// Package worker drains the Kafka event stream into the audit database.
// It runs as its own process so a slow or down database never touches the
// matching path.
package worker

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/events"
	"github.com/tradepit/marketsim/pkg/kafka"
	"github.com/tradepit/marketsim/pkg/repo"
)

type Worker struct {
	trade      repo.ITrade
	orderEvent repo.IOrderEvent
	log        *zap.Logger
}

func New(r repo.IRepo, log *zap.Logger) *Worker {
	return &Worker{
		trade:      r.Trade(),
		orderEvent: r.OrderEvent(),
		log:        log,
	}
}

func (w *Worker) Run(ctx context.Context, consumer *kafka.Consumer) error {
	return consumer.Run(ctx, w.handleMessage)
}

func (w *Worker) handleMessage(ctx context.Context, value []byte) error {
	var ev events.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		// malformed payloads are logged and skipped, not retried
		w.log.Warn("unmarshal event failed", zap.Error(err))
		return nil
	}
	return w.HandleEvent(ctx, &ev)
}

func (w *Worker) HandleEvent(ctx context.Context, ev *events.Event) error {
	switch ev.Type {
	case events.TypeTrade:
		if ev.Trade == nil {
			w.log.Warn("trade event without trade payload",
				zap.String("instrument", ev.Instrument))
			return nil
		}
		tr := ev.Trade
		_, err := w.trade.Create(ctx, &repo.TradeRecord{
			Instrument:  tr.Instrument,
			BuyOrderID:  tr.BuyOrderID,
			SellOrderID: tr.SellOrderID,
			BuyUserID:   tr.BuyUserID,
			SellUserID:  tr.SellUserID,
			Price:       decimal.NewFromFloat(tr.Price),
			Quantity:    tr.Quantity,
			ExecutedAt:  ev.Timestamp,
		})
		return err

	case events.TypeOrderAccepted, events.TypeOrderCancelled:
		_, err := w.orderEvent.Create(ctx, &repo.OrderEventRecord{
			EventType:  string(ev.Type),
			Instrument: ev.Instrument,
			OrderID:    ev.OrderID,
			UserID:     ev.UserID,
			Side:       string(ev.Side),
			Status:     ev.Status,
			Price:      decimal.NewFromFloat(ev.Price),
			Quantity:   ev.Quantity,
			OccurredAt: ev.Timestamp,
		})
		return err

	default:
		w.log.Warn("unknown event type", zap.String("type", string(ev.Type)))
		return nil
	}
}
