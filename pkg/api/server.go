// Package api is the HTTP and WebSocket transport for the simulator:
// order entry and book queries for participants, the leaderboard, and the
// /ws/market stream the frontend subscribes to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/engine"
	"github.com/tradepit/marketsim/pkg/events"
	"github.com/tradepit/marketsim/pkg/leaderboard"
	"github.com/tradepit/marketsim/pkg/marketdata"
	"github.com/tradepit/marketsim/pkg/orderbook"
)

const snapshotLevels = 10

// userHeader carries the authenticated participant. Authentication itself
// happens upstream; the id is opaque here.
const userHeader = "X-User-ID"

type Config struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LeaderboardReader is the read side of the leaderboard the API serves.
type LeaderboardReader interface {
	Top(ctx context.Context, competitionID string, limit int64) ([]leaderboard.Entry, error)
	UserRank(ctx context.Context, competitionID, userID string) (int64, bool, error)
}

type Server struct {
	cfg    Config
	engine *engine.Engine
	boards LeaderboardReader
	news   *marketdata.NewsSimulator
	hub    *Hub
	router *mux.Router
	log    *zap.Logger
}

func NewServer(cfg Config, eng *engine.Engine, boards LeaderboardReader, log *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		boards: boards,
		hub:    NewHub(log),
		router: mux.NewRouter(),
		log:    log,
	}
	s.routes()
	return s
}

// AttachNews enables the admin news endpoint.
func (s *Server) AttachNews(news *marketdata.NewsSimulator) {
	s.news = news
}

func (s *Server) routes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	v1.HandleFunc("/instruments/{instrument}/orders/{orderId}", s.handleCancelOrder).Methods(http.MethodDelete)
	v1.HandleFunc("/instruments/{instrument}/book", s.handleGetBook).Methods(http.MethodGet)
	v1.HandleFunc("/instruments/{instrument}/mid", s.handleGetMid).Methods(http.MethodGet)
	v1.HandleFunc("/competitions/{competitionId}/leaderboard", s.handleGetLeaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/competitions/{competitionId}/rank/{userId}", s.handleGetRank).Methods(http.MethodGet)
	v1.HandleFunc("/admin/news", s.handlePostNews).Methods(http.MethodPost)

	s.router.HandleFunc("/ws/market", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go s.hub.Run(done)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", userHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: c.Handler(s.router),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("api server started", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Publish implements events.Sink: trades and book changes reach WebSocket
// subscribers. Wrap in an events.BufferedSink when registering with the
// engine so broadcasting never touches the matching path.
func (s *Server) Publish(ev *events.Event) {
	switch ev.Type {
	case events.TypeTrade:
		s.hub.Broadcast("trades:"+ev.Instrument, ev)
		s.broadcastBook(ev.Instrument)
	case events.TypeOrderAccepted, events.TypeOrderCancelled:
		s.broadcastBook(ev.Instrument)
	}
}

// StreamTicks forwards feed ticks to WebSocket subscribers.
func (s *Server) StreamTicks(ctx context.Context, ticks <-chan marketdata.Tick) {
	for {
		select {
		case t, ok := <-ticks:
			if !ok {
				return
			}
			s.hub.Broadcast("ticks:"+t.Instrument, t)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) broadcastBook(instrument string) {
	s.hub.Broadcast("book:"+instrument, s.engine.Snapshot(instrument, snapshotLevels))
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
		return
	}

	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Instrument == "" {
		respondError(w, http.StatusBadRequest, "instrumentId is required")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price")
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quantity")
		return
	}

	res, err := s.engine.Submit(r.Context(), &engine.SubmitRequest{
		Instrument: req.Instrument,
		Side:       orderbook.Side(strings.ToUpper(req.Side)),
		Price:      price,
		Quantity:   quantity,
		UserID:     userID,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SubmitOrderResponse{
		OrderID:  res.OrderID,
		Status:   string(res.Status),
		Unfilled: res.Unfilled,
		Trades:   res.Trades,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instrument, orderID := vars["instrument"], vars["orderId"]

	res := s.engine.Cancel(r.Context(), instrument, orderID)
	status := http.StatusOK
	if res.Status == engine.CancelNotFound {
		status = http.StatusNotFound
	}
	respondJSON(w, status, CancelOrderResponse{
		OrderID: orderID,
		Status:  string(res.Status),
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]

	levels := snapshotLevels
	if v := r.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid levels")
			return
		}
		levels = n
	}

	respondJSON(w, http.StatusOK, s.engine.Snapshot(instrument, levels))
}

func (s *Server) handleGetMid(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]

	mid, ok := s.engine.MidPrice(instrument)
	if !ok {
		respondError(w, http.StatusNotFound, "no mid price available")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"instrumentId": instrument,
		"mid":          mid,
	})
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.boards == nil {
		respondError(w, http.StatusServiceUnavailable, "leaderboard not configured")
		return
	}
	competitionID := mux.Vars(r)["competitionId"]

	var limit int64
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.boards.Top(r.Context(), competitionID, limit)
	if err != nil {
		s.log.Error("leaderboard read failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	if s.boards == nil {
		respondError(w, http.StatusServiceUnavailable, "leaderboard not configured")
		return
	}
	vars := mux.Vars(r)
	competitionID, userID := vars["competitionId"], vars["userId"]

	rank, ok, err := s.boards.UserRank(r.Context(), competitionID, userID)
	if err != nil {
		s.log.Error("rank read failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "user not ranked")
		return
	}
	respondJSON(w, http.StatusOK, RankResponse{UserID: userID, Rank: rank})
}

func (s *Server) handlePostNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		respondError(w, http.StatusServiceUnavailable, "news simulator not configured")
		return
	}

	var req PostNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	release := time.Now()
	if req.ReleaseAt != nil {
		release = *req.ReleaseAt
	}
	err := s.news.Add(marketdata.NewsShock{
		Headline:  req.Headline,
		Release:   release,
		HalfLife:  time.Duration(req.HalfLifeMs) * time.Millisecond,
		Magnitude: req.Magnitude,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.hub.Broadcast("news", req)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}
