package marketdata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tick is one reference-price observation. Drift combines the simulated
// trend with the current news stress.
type Tick struct {
	Instrument string    `json:"instrumentId"`
	Price      float64   `json:"price"`
	Drift      float64   `json:"drift"`
	Vol        float64   `json:"vol"`
	Timestamp  time.Time `json:"ts"`
}

type FeedConfig struct {
	IntervalMs int64 `yaml:"interval_ms"`
}

func (c FeedConfig) interval() time.Duration {
	if c.IntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Feed drives the per-instrument GBM simulators on a ticker and fans ticks
// out to subscribers. Subscriber channels are non-blocking: a consumer that
// falls behind misses ticks instead of stalling the feed.
type Feed struct {
	cfg  FeedConfig
	news *NewsSimulator
	log  *zap.Logger

	mu          sync.RWMutex
	instruments map[string]*GBM
	subscribers []chan Tick
}

func NewFeed(cfg FeedConfig, news *NewsSimulator, log *zap.Logger) *Feed {
	return &Feed{
		cfg:         cfg,
		news:        news,
		log:         log,
		instruments: make(map[string]*GBM),
	}
}

func (f *Feed) AddInstrument(instrument string, sim *GBM) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instruments[instrument] = sim
}

func (f *Feed) Subscribe(buffer int) <-chan Tick {
	ch := make(chan Tick, buffer)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, ch)
	return ch
}

// ReferencePrice is the engine's optional mid seed for one-sided books.
func (f *Feed) ReferencePrice(instrument string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	sim, ok := f.instruments[instrument]
	if !ok {
		return 0, false
	}
	return sim.Price(), true
}

func (f *Feed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.tick(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (f *Feed) tick(now time.Time) {
	stress := f.news.TotalEffect(now)

	f.mu.RLock()
	defer f.mu.RUnlock()

	for instrument, sim := range f.instruments {
		price := sim.Step()
		t := Tick{
			Instrument: instrument,
			Price:      price,
			Drift:      stress,
			Vol:        sim.RealizedVol(),
			Timestamp:  now,
		}
		for _, ch := range f.subscribers {
			select {
			case ch <- t:
			default:
				f.log.Warn("slow tick subscriber, dropping tick",
					zap.String("instrument", instrument))
			}
		}
	}
}
