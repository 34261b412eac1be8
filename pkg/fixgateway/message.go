package fixgateway

import (
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	executionreport42 "github.com/quickfixgo/fix42/executionreport"
	ordercancelreject42 "github.com/quickfixgo/fix42/ordercancelreject"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/fix44/ordercancelreject"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
)

const beginString42 = "FIX.4.2"

// execReport is the version-neutral content of an ExecutionReport.
type execReport struct {
	OrderID     string
	ExecID      string
	ClOrdID     string
	OrigClOrdID string
	Symbol      string
	Side        enum.Side
	Account     string
	OrdStatus   enum.OrdStatus
	ExecType    enum.ExecType
	OrderQty    int64
	CumQty      int64
	LeavesQty   int64
	Price       float64
	AvgPx       float64
	LastPx      float64
	LastQty     int64
	Text        string
}

type cancelReject struct {
	OrderID     string
	ClOrdID     string
	OrigClOrdID string
	Reason      enum.CxlRejReason
	Text        string
}

func buildExecutionReport(beginString string, rpt *execReport) quickfix.Messagable {
	if beginString == beginString42 {
		return buildExecutionReport42(rpt)
	}
	return buildExecutionReport44(rpt)
}

func buildExecutionReport44(rpt *execReport) quickfix.Messagable {
	m := executionreport.New(
		field.NewOrderID(rpt.OrderID),
		field.NewExecID(rpt.ExecID),
		field.NewExecType(rpt.ExecType),
		field.NewOrdStatus(rpt.OrdStatus),
		field.NewSide(rpt.Side),
		field.NewLeavesQty(decimal.NewFromInt(rpt.LeavesQty), 0),
		field.NewCumQty(decimal.NewFromInt(rpt.CumQty), 0),
		field.NewAvgPx(decimal.NewFromFloat(rpt.AvgPx), 2),
	)
	m.SetClOrdID(rpt.ClOrdID)
	m.SetSymbol(rpt.Symbol)
	m.SetOrderQty(decimal.NewFromInt(rpt.OrderQty), 0)
	if rpt.OrigClOrdID != "" {
		m.SetOrigClOrdID(rpt.OrigClOrdID)
	}
	if rpt.Account != "" {
		m.SetAccount(rpt.Account)
	}
	if rpt.Price > 0 {
		m.SetPrice(decimal.NewFromFloat(rpt.Price), 2)
	}
	if rpt.LastQty > 0 {
		m.SetLastQty(decimal.NewFromInt(rpt.LastQty), 0)
		m.SetLastPx(decimal.NewFromFloat(rpt.LastPx), 2)
	}
	if rpt.Text != "" {
		m.SetText(rpt.Text)
	}
	return m
}

func buildExecutionReport42(rpt *execReport) quickfix.Messagable {
	// FIX.4.2 reports fills as PARTIAL_FILL/FILL rather than TRADE
	execType := rpt.ExecType
	if execType == enum.ExecType_TRADE {
		if rpt.OrdStatus == enum.OrdStatus_FILLED {
			execType = enum.ExecType_FILL
		} else {
			execType = enum.ExecType_PARTIAL_FILL
		}
	}

	m := executionreport42.New(
		field.NewOrderID(rpt.OrderID),
		field.NewExecID(rpt.ExecID),
		field.NewExecTransType(enum.ExecTransType_NEW),
		field.NewExecType(execType),
		field.NewOrdStatus(rpt.OrdStatus),
		field.NewSymbol(rpt.Symbol),
		field.NewSide(rpt.Side),
		field.NewLeavesQty(decimal.NewFromInt(rpt.LeavesQty), 0),
		field.NewCumQty(decimal.NewFromInt(rpt.CumQty), 0),
		field.NewAvgPx(decimal.NewFromFloat(rpt.AvgPx), 2),
	)
	m.SetClOrdID(rpt.ClOrdID)
	m.SetOrderQty(decimal.NewFromInt(rpt.OrderQty), 0)
	if rpt.OrigClOrdID != "" {
		m.SetOrigClOrdID(rpt.OrigClOrdID)
	}
	if rpt.Account != "" {
		m.SetAccount(rpt.Account)
	}
	if rpt.Price > 0 {
		m.SetPrice(decimal.NewFromFloat(rpt.Price), 2)
	}
	if rpt.LastQty > 0 {
		m.SetLastShares(decimal.NewFromInt(rpt.LastQty), 0)
		m.SetLastPx(decimal.NewFromFloat(rpt.LastPx), 2)
	}
	if rpt.Text != "" {
		m.SetText(rpt.Text)
	}
	return m
}

func buildCancelReject(beginString string, rej *cancelReject) quickfix.Messagable {
	if beginString == beginString42 {
		m := ordercancelreject42.New(
			field.NewOrderID(rej.OrderID),
			field.NewClOrdID(rej.ClOrdID),
			field.NewOrigClOrdID(rej.OrigClOrdID),
			field.NewOrdStatus(enum.OrdStatus_REJECTED),
			field.NewCxlRejResponseTo(enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST),
		)
		m.SetCxlRejReason(rej.Reason)
		if rej.Text != "" {
			m.SetText(rej.Text)
		}
		return m
	}

	m := ordercancelreject.New(
		field.NewOrderID(rej.OrderID),
		field.NewClOrdID(rej.ClOrdID),
		field.NewOrigClOrdID(rej.OrigClOrdID),
		field.NewOrdStatus(enum.OrdStatus_REJECTED),
		field.NewCxlRejResponseTo(enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST),
	)
	m.SetCxlRejReason(rej.Reason)
	if rej.Text != "" {
		m.SetText(rej.Text)
	}
	return m
}
