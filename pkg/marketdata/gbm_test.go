package marketdata

import (
	"math"
	"testing"
)

func TestGBMDeterministicUnderSeed(t *testing.T) {
	a := NewGBM(100, 0.05, 0.2, 1.0/252, 42)
	b := NewGBM(100, 0.05, 0.2, 1.0/252, 42)

	for i := 0; i < 100; i++ {
		if pa, pb := a.Step(), b.Step(); pa != pb {
			t.Fatalf("step %d diverged: %v vs %v", i, pa, pb)
		}
	}
}

func TestGBMStaysPositive(t *testing.T) {
	sim := NewGBM(100, 0, 0.8, 1.0/252, 7)
	for i := 0; i < 10_000; i++ {
		if p := sim.Step(); p <= 0 {
			t.Fatalf("price went non-positive at step %d: %v", i, p)
		}
	}
}

func TestGBMZeroVolFollowsDrift(t *testing.T) {
	dt := 1.0 / 252
	mu := 0.1
	sim := NewGBM(100, mu, 0, dt, 1)

	got := sim.Step()
	want := 100 * math.Exp(mu*dt)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("zero-vol step = %v, want %v", got, want)
	}
}

func TestRealizedVolWarmsUp(t *testing.T) {
	sim := NewGBM(100, 0.05, 0.2, 1.0/252, 3)

	if v := sim.RealizedVol(); v != 0 {
		t.Errorf("expected zero vol before any ticks, got %v", v)
	}

	for i := 0; i < 200; i++ {
		sim.Step()
	}
	v := sim.RealizedVol()
	if v <= 0 {
		t.Fatalf("expected positive realized vol, got %v", v)
	}
	// annualized estimate should be in the neighborhood of sigma
	if v < 0.05 || v > 0.6 {
		t.Errorf("realized vol %v implausibly far from sigma 0.2", v)
	}
}
