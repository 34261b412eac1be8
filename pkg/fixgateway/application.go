package fixgateway

import (
	"github.com/quickfixgo/enum"
	newordersingle42 "github.com/quickfixgo/fix42/newordersingle"
	ordercancelrequest42 "github.com/quickfixgo/fix42/ordercancelrequest"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/fix44/ordercancelrequest"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dispatchQueueSize = 100_000

// application implements the quickfix.Application interface. Inbound app
// messages are handed to a dispatcher channel so the FIX session thread
// never waits on matching.
type application struct {
	*quickfix.MessageRouter
	gateway    *Gateway
	dispatcher chan *inboundMsg
	log        *zap.Logger
}

type inboundMsg struct {
	msg       *quickfix.Message
	sessionID quickfix.SessionID
}

func newApplication(g *Gateway, log *zap.Logger) *application {
	app := &application{
		MessageRouter: quickfix.NewMessageRouter(),
		gateway:       g,
		dispatcher:    make(chan *inboundMsg, dispatchQueueSize),
		log:           log,
	}

	app.AddRoute(newordersingle.Route(app.onNewOrderSingle44))
	app.AddRoute(ordercancelrequest.Route(app.onOrderCancelRequest44))
	app.AddRoute(newordersingle42.Route(app.onNewOrderSingle42))
	app.AddRoute(ordercancelrequest42.Route(app.onOrderCancelRequest42))

	go app.runDispatcher()

	return app
}

func (a *application) OnCreate(sessionID quickfix.SessionID) {}

func (a *application) OnLogon(sessionID quickfix.SessionID) {
	a.log.Info("fix logon", zap.String("session", sessionID.String()))
}

func (a *application) OnLogout(sessionID quickfix.SessionID) {
	a.log.Info("fix logout", zap.String("session", sessionID.String()))
}

func (a *application) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (a *application) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

func (a *application) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

// FromApp queues incoming application messages for the dispatcher.
func (a *application) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	a.dispatcher <- &inboundMsg{msg, sessionID}
	return nil
}

func (a *application) runDispatcher() {
	for m := range a.dispatcher {
		if err := a.Route(m.msg, m.sessionID); err != nil {
			a.log.Warn("fix route error", zap.Any("reject", err))
		}
	}
}

func (a *application) stop() {
	close(a.dispatcher)
}

func (a *application) onNewOrderSingle44(msg newordersingle.NewOrderSingle, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	symbol, _ := msg.GetSymbol()
	side, _ := msg.GetSide()
	price, _ := msg.GetPrice()
	orderQty, _ := msg.GetOrderQty()
	account, _ := msg.GetAccount()

	a.gateway.handleNewOrder(&orderIntent{
		ClOrdID:  clOrdID,
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		OrderQty: orderQty,
		Account:  account,
	}, sessionID)
	return nil
}

func (a *application) onNewOrderSingle42(msg newordersingle42.NewOrderSingle, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	symbol, _ := msg.GetSymbol()
	side, _ := msg.GetSide()
	price, _ := msg.GetPrice()
	orderQty, _ := msg.GetOrderQty()
	account, _ := msg.GetAccount()

	a.gateway.handleNewOrder(&orderIntent{
		ClOrdID:  clOrdID,
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		OrderQty: orderQty,
		Account:  account,
	}, sessionID)
	return nil
}

func (a *application) onOrderCancelRequest44(msg ordercancelrequest.OrderCancelRequest, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	origClOrdID, _ := msg.GetOrigClOrdID()
	symbol, _ := msg.GetSymbol()

	a.gateway.handleCancel(clOrdID, origClOrdID, symbol, sessionID)
	return nil
}

func (a *application) onOrderCancelRequest42(msg ordercancelrequest42.OrderCancelRequest, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	origClOrdID, _ := msg.GetOrigClOrdID()
	symbol, _ := msg.GetSymbol()

	a.gateway.handleCancel(clOrdID, origClOrdID, symbol, sessionID)
	return nil
}

// orderIntent is the version-neutral form of an inbound order message.
type orderIntent struct {
	ClOrdID  string
	Symbol   string
	Side     enum.Side
	Price    decimal.Decimal
	OrderQty decimal.Decimal
	Account  string
}
