// Package liquidity keeps the competition books two-sided. Each bot quotes
// symmetrically around the reference mid, widening its spread with news
// stress and with the inventory it has accumulated.
package liquidity

import (
	"context"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/engine"
	"github.com/tradepit/marketsim/pkg/marketdata"
	"github.com/tradepit/marketsim/pkg/orderbook"
)

type BotConfig struct {
	Instrument string  `yaml:"instrument"`
	UserID     string  `yaml:"user_id"`
	BaseSpread float64 `yaml:"base_spread"`
	// stress coefficient: how strongly news drift widens the spread
	StressCoeff float64 `yaml:"stress_coeff"`
	// inventory coefficient: how risk-averse the bot is about its position
	InventoryCoeff float64 `yaml:"inventory_coeff"`
	QuoteNoise     float64 `yaml:"quote_noise"`
	Levels         int     `yaml:"levels"`
	Seed           int64   `yaml:"seed"`
}

type Bot struct {
	instrument     string
	userID         string
	baseSpread     float64
	stressCoeff    float64
	inventoryCoeff float64
	quoteNoise     float64
	levels         int

	inventory int64
	rng       *rand.Rand

	eng *engine.Engine
	log *zap.Logger

	// resting quote order IDs from the previous round, cancelled before
	// requoting
	live []string
}

func NewBot(cfg BotConfig, eng *engine.Engine, log *zap.Logger) *Bot {
	if cfg.BaseSpread == 0 {
		cfg.BaseSpread = 0.1
	}
	if cfg.Levels <= 0 {
		cfg.Levels = 3
	}
	return &Bot{
		instrument:     cfg.Instrument,
		userID:         cfg.UserID,
		baseSpread:     cfg.BaseSpread,
		stressCoeff:    cfg.StressCoeff,
		inventoryCoeff: cfg.InventoryCoeff,
		quoteNoise:     cfg.QuoteNoise,
		levels:         cfg.Levels,
		rng:            rand.New(rand.NewSource(cfg.Seed)),
		eng:            eng,
		log:            log,
	}
}

// Spread implements s = s0 + k*|drift| + gamma*|inventory| + eta.
func (b *Bot) Spread(drift float64) float64 {
	eta := 0.0
	if b.quoteNoise > 0 {
		eta = b.rng.NormFloat64() * b.quoteNoise
	}
	return b.baseSpread +
		b.stressCoeff*math.Abs(drift) +
		b.inventoryCoeff*math.Abs(float64(b.inventory)) +
		eta
}

// Quotes places the bid and ask symmetrically around mid.
func Quotes(mid, spread float64) (bid, ask float64) {
	return mid * (1 - spread/2), mid * (1 + spread/2)
}

// DepthCurve is the resting quantity at a quote level.
func DepthCurve(level int) int64 {
	if depth := 50 - 10*level; depth > 10 {
		return int64(depth)
	}
	return 10
}

// Run requotes on every feed tick until the context is cancelled.
func (b *Bot) Run(ctx context.Context, ticks <-chan marketdata.Tick) {
	for {
		select {
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			if tick.Instrument != b.instrument {
				continue
			}
			b.requote(ctx, tick)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) requote(ctx context.Context, tick marketdata.Tick) {
	for _, id := range b.live {
		b.eng.Cancel(ctx, b.instrument, id)
	}
	b.live = b.live[:0]

	mid := tick.Price
	if bookMid, ok := b.eng.MidPrice(b.instrument); ok {
		mid = bookMid
	}

	spread := b.Spread(tick.Drift)
	bid, ask := Quotes(mid, spread)

	for lvl := 0; lvl < b.levels; lvl++ {
		depth := DepthCurve(lvl)
		b.place(ctx, orderbook.BUY, round2(bid-float64(lvl)*spread), depth)
		b.place(ctx, orderbook.SELL, round2(ask+float64(lvl)*spread), depth)
	}
}

func (b *Bot) place(ctx context.Context, side orderbook.Side, price float64, qty int64) {
	if price <= 0 {
		return
	}
	res, err := b.eng.Submit(ctx, &engine.SubmitRequest{
		Instrument: b.instrument,
		Side:       side,
		Price:      decimal.NewFromFloat(price),
		Quantity:   decimal.NewFromInt(qty),
		UserID:     b.userID,
	})
	if err != nil {
		b.log.Warn("bot quote rejected",
			zap.String("instrument", b.instrument),
			zap.String("side", string(side)),
			zap.Float64("price", price),
			zap.Error(err))
		return
	}

	filled := qty - res.Unfilled
	if side == orderbook.BUY {
		b.inventory += filled
	} else {
		b.inventory -= filled
	}
	if res.Status != orderbook.StatusFilled {
		b.live = append(b.live, res.OrderID)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
