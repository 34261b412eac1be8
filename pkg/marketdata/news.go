package marketdata

import (
	"errors"
	"math"
	"sync"
	"time"
)

// NewsShock is one market-moving headline. Its effect starts at Magnitude on
// release and decays exponentially with the given half-life.
type NewsShock struct {
	Headline  string
	Release   time.Time
	HalfLife  time.Duration
	Magnitude float64
}

var ErrInvalidNewsShock = errors.New("news shock needs a release time and half-life")

// NewsSimulator aggregates active shocks into a single stress scalar that
// feeds the liquidity bots' spreads and the drift signal.
type NewsSimulator struct {
	mu     sync.Mutex
	shocks []NewsShock
}

func NewNewsSimulator() *NewsSimulator {
	return &NewsSimulator{}
}

func (s *NewsSimulator) Add(shock NewsShock) error {
	if shock.Release.IsZero() || shock.HalfLife <= 0 {
		return ErrInvalidNewsShock
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shocks = append(s.shocks, shock)
	return nil
}

// Effect of one shock at time now. Unreleased news has no effect.
func (shock NewsShock) Effect(now time.Time) float64 {
	if now.Before(shock.Release) {
		return 0
	}
	elapsed := now.Sub(shock.Release).Seconds()
	halflife := shock.HalfLife.Seconds()
	return shock.Magnitude * math.Exp2(-elapsed/halflife)
}

// TotalEffect sums all shock effects at time now, pruning shocks that have
// decayed below noise so the slice does not grow without bound.
func (s *NewsSimulator) TotalEffect(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	const negligible = 1e-6

	total := 0.0
	kept := s.shocks[:0]
	for _, shock := range s.shocks {
		eff := shock.Effect(now)
		total += eff
		if released := !now.Before(shock.Release); released && math.Abs(eff) < negligible {
			continue
		}
		kept = append(kept, shock)
	}
	s.shocks = kept
	return total
}
