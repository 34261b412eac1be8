package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/engine"
	"github.com/tradepit/marketsim/pkg/leaderboard"
	"github.com/tradepit/marketsim/pkg/marketdata"
	"github.com/tradepit/marketsim/pkg/orderbook"
)

type fakeBoards struct {
	entries []leaderboard.Entry
	ranks   map[string]int64
}

func (f *fakeBoards) Top(_ context.Context, _ string, limit int64) ([]leaderboard.Entry, error) {
	if limit > 0 && int64(len(f.entries)) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeBoards) UserRank(_ context.Context, _, userID string) (int64, bool, error) {
	r, ok := f.ranks[userID]
	return r, ok, nil
}

func newTestServer(boards LeaderboardReader) *Server {
	eng := engine.New(orderbook.NewBookManager(), zap.NewNop())
	if boards == nil {
		boards = &fakeBoards{}
	}
	return NewServer(Config{Addr: ":0"}, eng, boards, zap.NewNop())
}

func submit(t *testing.T, s *Server, user string, body SubmitOrderRequest) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(b))
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestSubmitRequiresUserHeader(t *testing.T) {
	s := newTestServer(nil)
	w := submit(t, s, "", SubmitOrderRequest{
		Instrument: "ACME", Side: "BUY", Price: "100", Quantity: "5",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestSubmitRestsOrder(t *testing.T) {
	s := newTestServer(nil)
	w := submit(t, s, "alice", SubmitOrderRequest{
		Instrument: "ACME", Side: "buy", Price: "100", Quantity: "5",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var res SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != string(orderbook.StatusOpen) || res.OrderID == "" {
		t.Fatalf("unexpected response: %+v", res)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instruments/ACME/book", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("book status = %d", rec.Code)
	}
	var snap orderbook.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 100 || snap.Bids[0].Quantity != 5 {
		t.Fatalf("snapshot bids = %+v", snap.Bids)
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(nil)
	cases := []SubmitOrderRequest{
		{Instrument: "ACME", Side: "BUY", Price: "abc", Quantity: "5"},
		{Instrument: "ACME", Side: "BUY", Price: "100", Quantity: "x"},
		{Instrument: "ACME", Side: "HOLD", Price: "100", Quantity: "5"},
		{Instrument: "ACME", Side: "BUY", Price: "-1", Quantity: "5"},
		{Instrument: "ACME", Side: "BUY", Price: "100", Quantity: "2.5"},
		{Side: "BUY", Price: "100", Quantity: "5"},
	}
	for _, tc := range cases {
		if w := submit(t, s, "alice", tc); w.Code != http.StatusBadRequest {
			t.Errorf("%+v: status = %d, want 400", tc, w.Code)
		}
	}
}

func TestCancelOutcomes(t *testing.T) {
	s := newTestServer(nil)
	w := submit(t, s, "alice", SubmitOrderRequest{
		Instrument: "ACME", Side: "BUY", Price: "100", Quantity: "5",
	})
	var res SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/instruments/ACME/orders/"+res.OrderID, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first cancel status = %d", rec.Code)
	}
	var cres CancelOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cres); err != nil {
		t.Fatal(err)
	}
	if cres.Status != string(engine.CancelCancelled) {
		t.Fatalf("first cancel = %s", cres.Status)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/instruments/ACME/orders/"+res.OrderID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second cancel status = %d, want 404", rec.Code)
	}
}

func TestGetMid(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/instruments/ACME/mid", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("one-sided mid status = %d, want 404", rec.Code)
	}

	submit(t, s, "alice", SubmitOrderRequest{Instrument: "ACME", Side: "BUY", Price: "100", Quantity: "5"})
	submit(t, s, "bob", SubmitOrderRequest{Instrument: "ACME", Side: "SELL", Price: "104", Quantity: "5"})

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/instruments/ACME/mid", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("mid status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["mid"] != 102.0 {
		t.Fatalf("mid = %v, want 102", body["mid"])
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	boards := &fakeBoards{
		entries: []leaderboard.Entry{
			{UserID: "alice", PnL: 250},
			{UserID: "bob", PnL: -30},
		},
		ranks: map[string]int64{"alice": 1, "bob": 2},
	}
	s := newTestServer(boards)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/competitions/comp1/leaderboard", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", rec.Code)
	}
	var entries []leaderboard.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].UserID != "alice" {
		t.Fatalf("entries = %+v", entries)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/competitions/comp1/rank/bob", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("rank status = %d", rec.Code)
	}
	var rank RankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &rank); err != nil {
		t.Fatal(err)
	}
	if rank.Rank != 2 {
		t.Fatalf("rank = %d, want 2", rank.Rank)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/competitions/comp1/rank/carol", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unranked user status = %d, want 404", rec.Code)
	}
}

func TestPostNews(t *testing.T) {
	s := newTestServer(nil)

	body := []byte(`{"headline":"rate cut","magnitude":-0.4,"halfLifeMs":60000}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/news", bytes.NewReader(body)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("without simulator status = %d, want 503", rec.Code)
	}

	news := marketdata.NewNewsSimulator()
	s.AttachNews(news)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/news", bytes.NewReader(body)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if eff := news.TotalEffect(time.Now()); eff >= 0 || eff < -0.4 {
		t.Fatalf("shock not active: effect = %v", eff)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/news",
		bytes.NewReader([]byte(`{"headline":"bad","magnitude":1}`))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid shock status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}
