// Package marketdata hosts the price-simulation collaborators: a geometric
// Brownian motion reference-price generator, the news shock decay model, and
// the feed that periodically publishes ticks. The matching core never
// depends on any of this for correctness — it only consumes the mid seed and
// the drift scalar.
package marketdata

import (
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"
)

// GBM simulates one instrument's reference price with geometric Brownian
// motion: S' = S * exp((mu - sigma^2/2)*dt + sigma*sqrt(dt)*eps).
type GBM struct {
	price float64
	mu    float64
	sigma float64
	dt    float64

	rng *rand.Rand

	// ring of recent log returns for realized volatility
	returns []float64
	next    int
	filled  bool
}

const returnWindow = 64

func NewGBM(initialPrice, mu, sigma, dt float64, seed int64) *GBM {
	return &GBM{
		price:   initialPrice,
		mu:      mu,
		sigma:   sigma,
		dt:      dt,
		rng:     rand.New(rand.NewSource(seed)),
		returns: make([]float64, returnWindow),
	}
}

// Step advances the simulation one tick and returns the new price.
func (g *GBM) Step() float64 {
	eps := g.rng.NormFloat64()
	drift := (g.mu - 0.5*g.sigma*g.sigma) * g.dt
	diffusion := g.sigma * math.Sqrt(g.dt) * eps

	prev := g.price
	g.price = prev * math.Exp(drift+diffusion)

	g.returns[g.next] = math.Log(g.price / prev)
	g.next = (g.next + 1) % returnWindow
	if g.next == 0 {
		g.filled = true
	}

	return g.price
}

func (g *GBM) Price() float64 {
	return g.price
}

// RealizedVol is the standard deviation of the recent log returns,
// annualized by the tick interval. Zero until enough ticks accumulate.
func (g *GBM) RealizedVol() float64 {
	window := g.returns[:g.next]
	if g.filled {
		window = g.returns
	}
	if len(window) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviation(stats.Float64Data(window))
	if err != nil {
		return 0
	}
	return sd / math.Sqrt(g.dt)
}
