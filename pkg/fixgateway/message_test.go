package fixgateway

import (
	"testing"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
)

func TestExecutionReport44Fields(t *testing.T) {
	rpt := &execReport{
		OrderID:   "O1",
		ExecID:    "E1",
		ClOrdID:   "C1",
		Symbol:    "ACME",
		Side:      enum.Side_BUY,
		Account:   "alice",
		OrdStatus: enum.OrdStatus_PARTIALLY_FILLED,
		ExecType:  enum.ExecType_TRADE,
		OrderQty:  15,
		CumQty:    8,
		LeavesQty: 7,
		Price:     103,
		AvgPx:     102,
		LastPx:    102,
		LastQty:   8,
	}

	msg := buildExecutionReport("FIX.4.4", rpt).ToMessage()

	for _, tc := range []struct {
		tag  quickfix.Tag
		want string
	}{
		{tag.OrderID, "O1"},
		{tag.ExecID, "E1"},
		{tag.ClOrdID, "C1"},
		{tag.Symbol, "ACME"},
		{tag.Side, string(enum.Side_BUY)},
		{tag.OrdStatus, string(enum.OrdStatus_PARTIALLY_FILLED)},
		{tag.ExecType, string(enum.ExecType_TRADE)},
		{tag.OrderQty, "15"},
		{tag.CumQty, "8"},
		{tag.LeavesQty, "7"},
		{tag.Account, "alice"},
	} {
		got, err := msg.Body.GetString(tc.tag)
		if err != nil {
			t.Fatalf("tag %d missing: %v", tc.tag, err)
		}
		if got != tc.want {
			t.Errorf("tag %d = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestExecutionReport42UsesFillExecTypes(t *testing.T) {
	cases := []struct {
		ordStatus enum.OrdStatus
		want      enum.ExecType
	}{
		{enum.OrdStatus_FILLED, enum.ExecType_FILL},
		{enum.OrdStatus_PARTIALLY_FILLED, enum.ExecType_PARTIAL_FILL},
	}
	for _, tc := range cases {
		msg := buildExecutionReport("FIX.4.2", &execReport{
			OrderID:   "O1",
			ExecID:    "E1",
			ClOrdID:   "C1",
			Symbol:    "ACME",
			Side:      enum.Side_SELL,
			OrdStatus: tc.ordStatus,
			ExecType:  enum.ExecType_TRADE,
		}).ToMessage()

		got, err := msg.Body.GetString(tag.ExecType)
		if err != nil {
			t.Fatalf("ExecType missing: %v", err)
		}
		if got != string(tc.want) {
			t.Errorf("FIX.4.2 ExecType for %s = %q, want %q", tc.ordStatus, got, tc.want)
		}
		if transType, err := msg.Body.GetString(tag.ExecTransType); err != nil || transType != string(enum.ExecTransType_NEW) {
			t.Errorf("FIX.4.2 report must carry ExecTransType=NEW, got %q (%v)", transType, err)
		}
	}
}

func TestRejectReportCarriesText(t *testing.T) {
	msg := buildExecutionReport("FIX.4.4", &execReport{
		OrderID:   "NONE",
		ExecID:    "E1",
		ClOrdID:   "C1",
		Symbol:    "ACME",
		Side:      enum.Side_BUY,
		OrdStatus: enum.OrdStatus_REJECTED,
		ExecType:  enum.ExecType_REJECTED,
		Text:      "invalid price",
	}).ToMessage()

	got, err := msg.Body.GetString(tag.Text)
	if err != nil {
		t.Fatalf("Text missing: %v", err)
	}
	if got != "invalid price" {
		t.Errorf("Text = %q", got)
	}
}

func TestCancelRejectFields(t *testing.T) {
	for _, begin := range []string{"FIX.4.2", "FIX.4.4"} {
		msg := buildCancelReject(begin, &cancelReject{
			OrderID:     "O1",
			ClOrdID:     "C2",
			OrigClOrdID: "C1",
			Reason:      enum.CxlRejReason_UNKNOWN_ORDER,
			Text:        "unknown original order",
		}).ToMessage()

		for _, tc := range []struct {
			tag  quickfix.Tag
			want string
		}{
			{tag.OrderID, "O1"},
			{tag.ClOrdID, "C2"},
			{tag.OrigClOrdID, "C1"},
			{tag.OrdStatus, string(enum.OrdStatus_REJECTED)},
			{tag.CxlRejResponseTo, string(enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST)},
			{tag.CxlRejReason, string(enum.CxlRejReason_UNKNOWN_ORDER)},
		} {
			got, err := msg.Body.GetString(tc.tag)
			if err != nil {
				t.Fatalf("%s tag %d missing: %v", begin, tc.tag, err)
			}
			if got != tc.want {
				t.Errorf("%s tag %d = %q, want %q", begin, tc.tag, got, tc.want)
			}
		}
	}
}

func BenchmarkBuildExecutionReport44(b *testing.B) {
	rpt := &execReport{
		OrderID:   "O1",
		ExecID:    "E1",
		ClOrdID:   "C1",
		Symbol:    "ACME",
		Side:      enum.Side_BUY,
		OrdStatus: enum.OrdStatus_NEW,
		ExecType:  enum.ExecType_NEW,
		OrderQty:  100,
		LeavesQty: 100,
		Price:     100.5,
	}
	for i := 0; i < b.N; i++ {
		_ = buildExecutionReport44(rpt)
	}
}
