package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/yourusername/prop-scout/internal/models"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNewEstimateEmptySeason(t *testing.T) {
	_, err := NewEstimate(nil, nil, 0.6)
	if !errors.Is(err, models.ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestNewEstimateBlend(t *testing.T) {
	season := []float64{10, 10, 10, 10, 20, 20, 20, 20} // avg 15
	recent := []float64{20, 20, 20, 20, 20}             // avg 20

	est, err := NewEstimate(season, recent, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.SeasonAvg != 15 {
		t.Fatalf("season avg = %v, want 15", est.SeasonAvg)
	}
	if est.RecentAvg != 20 {
		t.Fatalf("recent avg = %v, want 20", est.RecentAvg)
	}
	want := 0.6*20 + 0.4*15
	if math.Abs(est.Mu-want) > 1e-12 {
		t.Fatalf("mu = %v, want %v", est.Mu, want)
	}
}

func TestNewEstimateRecentAvgDefaultsToSeason(t *testing.T) {
	est, err := NewEstimate([]float64{4, 6, 8}, nil, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.RecentAvg != est.SeasonAvg {
		t.Fatalf("recent avg = %v, want season avg %v", est.RecentAvg, est.SeasonAvg)
	}
	if est.Mu != est.SeasonAvg {
		t.Fatalf("mu = %v, want %v", est.Mu, est.SeasonAvg)
	}
}

func TestZeroVarianceFallback(t *testing.T) {
	est, err := NewEstimate(repeat(10, 8), repeat(10, 5), 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Sigma != 4.0 {
		t.Fatalf("sigma = %v, want fallback 0.4*10 = 4", est.Sigma)
	}
	if est.Mu != 10 {
		t.Fatalf("mu = %v, want 10", est.Mu)
	}

	eval := est.LineProbability(10, models.SideOver)
	if math.Abs(eval.P-0.450) > 0.001 {
		t.Fatalf("p = %v, want 0.450 +/- 0.001", eval.P)
	}
}

func TestSigmaFallbackFloor(t *testing.T) {
	// 0.4 * seasonAvg below 0.5 hits the floor.
	est, err := NewEstimate(repeat(1, 8), repeat(1, 5), 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Sigma != 0.5 {
		t.Fatalf("sigma = %v, want floor 0.5", est.Sigma)
	}
}

func TestLineProbabilityBounds(t *testing.T) {
	est := Estimate{Mu: 22, Sigma: 6}
	for line := 14.0; line <= 30; line += 0.5 {
		over := est.LineProbability(line, models.SideOver)
		under := est.LineProbability(line, models.SideUnder)
		if !(over.P > 0 && over.P < 1) {
			t.Fatalf("over p = %v at line %v out of (0,1)", over.P, line)
		}
		if !(under.P > 0 && under.P < 1) {
			t.Fatalf("under p = %v at line %v out of (0,1)", under.P, line)
		}
	}
}

// The +0.5/-0.5 correction is asymmetric, so over and under of the same
// nominal line are deliberately NOT complements.
func TestContinuityCorrectionAsymmetry(t *testing.T) {
	est := Estimate{Mu: 22, Sigma: 6}
	over := est.LineProbability(22, models.SideOver)
	under := est.LineProbability(22, models.SideUnder)

	sum := over.P + under.P
	if math.Abs(sum-1.0) < 1e-9 {
		t.Fatalf("over+under = %v: the continuity correction should break exact complementarity", sum)
	}

	// The exact complement of p_over(line) lives at the corrected threshold.
	corrected := Phi((22.0 + 0.5 - est.Mu) / est.Sigma)
	if math.Abs(over.P+corrected-1.0) > 1e-12 {
		t.Fatalf("p_over + Phi(z_over) = %v, want exactly 1", over.P+corrected)
	}
}

func TestLineProbabilityMonotonic(t *testing.T) {
	est := Estimate{Mu: 22, Sigma: 6}
	prevOver := math.Inf(1)
	prevUnder := math.Inf(-1)
	for line := 10.0; line <= 34; line += 0.5 {
		over := est.LineProbability(line, models.SideOver).P
		under := est.LineProbability(line, models.SideUnder).P
		if over >= prevOver {
			t.Fatalf("p_over not strictly decreasing at line %v", line)
		}
		if under <= prevUnder {
			t.Fatalf("p_under not strictly increasing at line %v", line)
		}
		prevOver, prevUnder = over, under
	}
}

func TestDeterminism(t *testing.T) {
	season := []float64{12, 19, 25, 8, 30, 17, 22, 14}
	recent := []float64{25, 8, 30, 17, 22}

	first, err := NewEstimate(season, recent, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := NewEstimate(season, recent, 0.6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("estimate not deterministic: %+v != %+v", again, first)
		}
		e1 := first.LineProbability(18.5, models.SideOver)
		e2 := again.LineProbability(18.5, models.SideOver)
		if e1 != e2 {
			t.Fatalf("evaluation not deterministic: %+v != %+v", e1, e2)
		}
	}
}

func TestFairOddsReciprocal(t *testing.T) {
	est := Estimate{Mu: 22, Sigma: 6}
	eval := est.LineProbability(20, models.SideOver)
	if math.Abs(eval.FairOdds-1.0/eval.P) > 1e-12 {
		t.Fatalf("fair odds = %v, want 1/p = %v", eval.FairOdds, 1.0/eval.P)
	}
}

func TestCombine(t *testing.T) {
	home := Estimate{Mu: 110, Sigma: 9, SeasonAvg: 108, RecentAvg: 112, Samples: 10}
	away := Estimate{Mu: 104, Sigma: 12, SeasonAvg: 105, RecentAvg: 103, Samples: 8}

	combined := Combine(home, away)
	if combined.Mu != 214 {
		t.Fatalf("combined mu = %v, want 214", combined.Mu)
	}
	want := math.Sqrt(9*9 + 12*12)
	if math.Abs(combined.Sigma-want) > 1e-12 {
		t.Fatalf("combined sigma = %v, want %v", combined.Sigma, want)
	}
}

func TestCombineSigmaFallback(t *testing.T) {
	combined := Combine(Estimate{Mu: 100}, Estimate{Mu: 100})
	if combined.Sigma != 0.3*200 {
		t.Fatalf("combined sigma = %v, want 0.3*mu = 60", combined.Sigma)
	}

	degenerate := Combine(Estimate{Mu: 0}, Estimate{Mu: 0})
	if degenerate.Sigma != 1.0 {
		t.Fatalf("combined sigma = %v, want fallback 1", degenerate.Sigma)
	}
}

func TestBesselCorrectedStdDev(t *testing.T) {
	// Sample std dev of {2,4,4,4,5,5,7,9} with n-1 divisor is ~2.138.
	got := sampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2.13809) > 1e-4 {
		t.Fatalf("sample std dev = %v, want ~2.138", got)
	}
}
