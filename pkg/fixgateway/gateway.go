// Package fixgateway exposes the matching engine over FIX. It accepts
// NewOrderSingle and OrderCancelRequest on FIX.4.2 and FIX.4.4 sessions and
// answers with ExecutionReports and OrderCancelRejects.
package fixgateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/engine"
	"github.com/tradepit/marketsim/pkg/orderbook"
)

type Config struct {
	SettingsPath string `yaml:"settings_path"`
}

type Gateway struct {
	cfg      Config
	engine   *engine.Engine
	log      *zap.Logger
	app      *application
	acceptor *quickfix.Acceptor

	// live orders keyed by ClOrdID, for cancels and report fields
	orders sync.Map
}

// liveOrder is what the gateway remembers about an accepted order.
type liveOrder struct {
	orderID   string
	clOrdID   string
	symbol    string
	side      enum.Side
	account   string
	orderQty  int64
	cumQty    int64
	notional  float64
	sessionID quickfix.SessionID
}

func (o *liveOrder) avgPx() float64 {
	if o.cumQty == 0 {
		return 0
	}
	return o.notional / float64(o.cumQty)
}

func New(cfg Config, eng *engine.Engine, log *zap.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		engine: eng,
		log:    log,
	}
}

func (g *Gateway) Start(ctx context.Context) error {
	f, err := os.Open(g.cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("open fix settings %s: %w", g.cfg.SettingsPath, err)
	}
	defer f.Close() // nolint

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read fix settings: %w", err)
	}

	settings, err := quickfix.ParseSettings(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse fix settings: %w", err)
	}

	g.app = newApplication(g, g.log)

	logFactory, err := quickfix.NewFileLogFactory(settings)
	if err != nil {
		return fmt.Errorf("fix log factory: %w", err)
	}

	acceptor, err := quickfix.NewAcceptor(g.app, quickfix.NewMemoryStoreFactory(), settings, logFactory)
	if err != nil {
		return fmt.Errorf("create fix acceptor: %w", err)
	}
	if err := acceptor.Start(); err != nil {
		return fmt.Errorf("start fix acceptor: %w", err)
	}
	g.acceptor = acceptor
	return nil
}

func (g *Gateway) Stop() {
	if g.acceptor != nil {
		g.acceptor.Stop()
	}
	if g.app != nil {
		g.app.stop()
	}
}

func (g *Gateway) handleNewOrder(in *orderIntent, sessionID quickfix.SessionID) {
	side, ok := sideFromFIX(in.Side)
	if !ok {
		g.sendReport(sessionID, &execReport{
			OrderID:   "NONE",
			ExecID:    uuid.NewString(),
			ClOrdID:   in.ClOrdID,
			Symbol:    in.Symbol,
			Side:      in.Side,
			OrdStatus: enum.OrdStatus_REJECTED,
			ExecType:  enum.ExecType_REJECTED,
			OrderQty:  in.OrderQty.IntPart(),
			LeavesQty: 0,
			Text:      "unsupported side",
		})
		return
	}

	res, err := g.engine.Submit(context.Background(), &engine.SubmitRequest{
		Instrument: in.Symbol,
		Side:       side,
		Price:      in.Price,
		Quantity:   in.OrderQty,
		UserID:     in.Account,
	})
	if err != nil {
		g.sendReport(sessionID, &execReport{
			OrderID:   "NONE",
			ExecID:    uuid.NewString(),
			ClOrdID:   in.ClOrdID,
			Symbol:    in.Symbol,
			Side:      in.Side,
			OrdStatus: enum.OrdStatus_REJECTED,
			ExecType:  enum.ExecType_REJECTED,
			OrderQty:  in.OrderQty.IntPart(),
			LeavesQty: 0,
			Text:      err.Error(),
		})
		return
	}

	o := &liveOrder{
		orderID:   res.OrderID,
		clOrdID:   in.ClOrdID,
		symbol:    in.Symbol,
		side:      in.Side,
		account:   in.Account,
		orderQty:  in.OrderQty.IntPart(),
		cumQty:    in.OrderQty.IntPart() - res.Unfilled,
		sessionID: sessionID,
	}
	for _, tr := range res.Trades {
		o.notional += tr.Price * float64(tr.Quantity)
	}
	g.orders.Store(in.ClOrdID, o)

	execType, ordStatus := statusToFIX(res.Status)
	rpt := &execReport{
		OrderID:   res.OrderID,
		ExecID:    uuid.NewString(),
		ClOrdID:   in.ClOrdID,
		Symbol:    in.Symbol,
		Side:      in.Side,
		Account:   in.Account,
		OrdStatus: ordStatus,
		ExecType:  execType,
		OrderQty:  o.orderQty,
		CumQty:    o.cumQty,
		LeavesQty: res.Unfilled,
		Price:     in.Price.InexactFloat64(),
		AvgPx:     o.avgPx(),
	}
	if n := len(res.Trades); n > 0 {
		rpt.LastPx = res.Trades[n-1].Price
		rpt.LastQty = res.Trades[n-1].Quantity
	}
	g.sendReport(sessionID, rpt)
}

func (g *Gateway) handleCancel(clOrdID, origClOrdID, symbol string, sessionID quickfix.SessionID) {
	v, ok := g.orders.Load(origClOrdID)
	if !ok {
		g.sendCancelReject(sessionID, &cancelReject{
			OrderID:     "NONE",
			ClOrdID:     clOrdID,
			OrigClOrdID: origClOrdID,
			Reason:      enum.CxlRejReason_UNKNOWN_ORDER,
			Text:        "unknown original order",
		})
		return
	}
	o := v.(*liveOrder)

	result := g.engine.Cancel(context.Background(), o.symbol, o.orderID)
	if result.Status == engine.CancelNotFound {
		g.sendCancelReject(sessionID, &cancelReject{
			OrderID:     o.orderID,
			ClOrdID:     clOrdID,
			OrigClOrdID: origClOrdID,
			Reason:      enum.CxlRejReason_TOO_LATE_TO_CANCEL,
			Text:        "order already filled or cancelled",
		})
		return
	}

	g.orders.Delete(origClOrdID)
	g.sendReport(sessionID, &execReport{
		OrderID:     o.orderID,
		ExecID:      uuid.NewString(),
		ClOrdID:     clOrdID,
		OrigClOrdID: origClOrdID,
		Symbol:      o.symbol,
		Side:        o.side,
		Account:     o.account,
		OrdStatus:   enum.OrdStatus_CANCELED,
		ExecType:    enum.ExecType_CANCELED,
		OrderQty:    o.orderQty,
		CumQty:      o.cumQty,
		LeavesQty:   0,
		AvgPx:       o.avgPx(),
	})
}

func (g *Gateway) sendReport(sessionID quickfix.SessionID, rpt *execReport) {
	msg := buildExecutionReport(sessionID.BeginString, rpt)
	if err := quickfix.SendToTarget(msg, sessionID); err != nil {
		g.log.Warn("send execution report failed",
			zap.String("clOrdId", rpt.ClOrdID), zap.Error(err))
	}
}

func (g *Gateway) sendCancelReject(sessionID quickfix.SessionID, rej *cancelReject) {
	msg := buildCancelReject(sessionID.BeginString, rej)
	if err := quickfix.SendToTarget(msg, sessionID); err != nil {
		g.log.Warn("send cancel reject failed",
			zap.String("clOrdId", rej.ClOrdID), zap.Error(err))
	}
}

func sideFromFIX(s enum.Side) (orderbook.Side, bool) {
	switch s {
	case enum.Side_BUY:
		return orderbook.BUY, true
	case enum.Side_SELL:
		return orderbook.SELL, true
	default:
		return "", false
	}
}

func statusToFIX(s orderbook.OrderStatus) (enum.ExecType, enum.OrdStatus) {
	switch s {
	case orderbook.StatusPartiallyFilled:
		return enum.ExecType_TRADE, enum.OrdStatus_PARTIALLY_FILLED
	case orderbook.StatusFilled:
		return enum.ExecType_TRADE, enum.OrdStatus_FILLED
	case orderbook.StatusCancelled:
		return enum.ExecType_CANCELED, enum.OrdStatus_CANCELED
	default:
		return enum.ExecType_NEW, enum.OrdStatus_NEW
	}
}
