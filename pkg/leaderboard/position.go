package leaderboard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/events"
)

type position struct {
	qty  int64   // signed: long > 0, short < 0
	cash float64 // cumulative cash flow from fills
}

// PositionTracker consumes trade events and keeps mark-to-mid PnL per user:
// pnl = cash + qty * mark. It implements events.Sink, so it is wired behind
// the engine's buffered sink and never slows matching down.
type PositionTracker struct {
	competitionID string
	mark          func(instrument string) (float64, bool)
	scorer        Scorer
	log           *zap.Logger

	mu        sync.Mutex
	positions map[string]map[string]*position // userID -> instrument -> position
}

func NewPositionTracker(competitionID string, mark func(string) (float64, bool), scorer Scorer, log *zap.Logger) *PositionTracker {
	return &PositionTracker{
		competitionID: competitionID,
		mark:          mark,
		scorer:        scorer,
		log:           log,
		positions:     make(map[string]map[string]*position),
	}
}

func (t *PositionTracker) Publish(ev *events.Event) {
	if ev.Type != events.TypeTrade || ev.Trade == nil {
		return
	}
	tr := ev.Trade

	t.apply(tr.BuyUserID, tr.Instrument, tr.Quantity, -tr.Price*float64(tr.Quantity))
	t.apply(tr.SellUserID, tr.Instrument, -tr.Quantity, tr.Price*float64(tr.Quantity))

	t.rescore(tr.BuyUserID)
	t.rescore(tr.SellUserID)
}

func (t *PositionTracker) apply(userID, instrument string, qty int64, cash float64) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	byInstrument, ok := t.positions[userID]
	if !ok {
		byInstrument = make(map[string]*position)
		t.positions[userID] = byInstrument
	}
	pos, ok := byInstrument[instrument]
	if !ok {
		pos = &position{}
		byInstrument[instrument] = pos
	}
	pos.qty += qty
	pos.cash += cash
}

// PnL marks every open position to the current mid. Instruments with no
// mark contribute cash only.
func (t *PositionTracker) PnL(userID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0.0
	for instrument, pos := range t.positions[userID] {
		total += pos.cash
		if pos.qty == 0 {
			continue
		}
		if mark, ok := t.mark(instrument); ok {
			total += float64(pos.qty) * mark
		}
	}
	return total
}

func (t *PositionTracker) rescore(userID string) {
	if userID == "" || t.scorer == nil {
		return
	}
	pnl := t.PnL(userID)
	if err := t.scorer.UpdateUserPnL(context.Background(), t.competitionID, userID, pnl); err != nil {
		t.log.Warn("leaderboard update failed",
			zap.String("user", userID),
			zap.Error(err))
	}
}
