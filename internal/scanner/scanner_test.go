package scanner

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/yourusername/prop-scout/internal/models"
	"github.com/yourusername/prop-scout/internal/stats"
)

func testSubject() Subject {
	return Subject{
		Type:  models.TypePlayer,
		ID:    "player-1",
		Label: "J. Doe",
		Stat:  models.StatPoints,
	}
}

func TestScanDegenerateEstimate(t *testing.T) {
	degenerate := []stats.Estimate{
		{Mu: 10, Sigma: 0},
		{Mu: 10, Sigma: -1},
		{Mu: math.NaN(), Sigma: 5},
		{Mu: math.Inf(1), Sigma: 5},
		{Mu: 10, Sigma: math.NaN()},
	}
	for _, est := range degenerate {
		if got := Scan(testSubject(), est, DefaultPlayerParams()); got != nil {
			t.Fatalf("degenerate estimate %+v produced %d picks, want none", est, len(got))
		}
	}
}

func TestScanAcceptanceBand(t *testing.T) {
	// mu=22, sigma=6: over@20 and under@24 both price ~0.5987, inside the
	// default band. Every neighboring half-point threshold falls outside.
	est := stats.Estimate{Mu: 22, Sigma: 6, SeasonAvg: 22, RecentAvg: 22, Samples: 10}
	picks := Scan(testSubject(), est, DefaultPlayerParams())

	if len(picks) != 2 {
		t.Fatalf("got %d picks, want 2: %+v", len(picks), picks)
	}
	for _, p := range picks {
		if p.Probability < 0.58 || p.Probability > 0.62 {
			t.Fatalf("pick at line %v side %v has p=%v outside band", p.Line, p.Side, p.Probability)
		}
		if math.Abs(p.FairOdds-1.0/p.Probability) > 1e-12 {
			t.Fatalf("fair odds %v is not 1/p for p=%v", p.FairOdds, p.Probability)
		}
	}

	var over, under bool
	for _, p := range picks {
		if p.Side == models.SideOver && p.Line == 20 {
			over = true
		}
		if p.Side == models.SideUnder && p.Line == 24 {
			under = true
		}
	}
	if !over || !under {
		t.Fatalf("expected over@20 and under@24, got %+v", picks)
	}
}

func TestScanMaxPicksCap(t *testing.T) {
	est := stats.Estimate{Mu: 22, Sigma: 6, Samples: 10}
	params := Params{Window: 8, Step: 0.5, MinProb: 0.50, MaxProb: 0.99, MaxPicks: 2}

	picks := Scan(testSubject(), est, params)
	if len(picks) != 2 {
		t.Fatalf("got %d picks, want cap of 2", len(picks))
	}
	if picks[0].Probability < picks[1].Probability {
		t.Fatalf("picks not sorted by probability descending: %v then %v",
			picks[0].Probability, picks[1].Probability)
	}
}

func TestScanLineRange(t *testing.T) {
	est := stats.Estimate{Mu: 22, Sigma: 6, Samples: 10}
	params := Params{Window: 8, Step: 0.5, MinProb: 0, MaxProb: 1, MaxPicks: 0}

	picks := Scan(testSubject(), est, params)
	lo := math.Floor(est.Mu - params.Window)
	hi := math.Ceil(est.Mu + params.Window)
	for _, p := range picks {
		if p.Line < lo || p.Line > hi {
			t.Fatalf("line %v outside scan range [%v, %v]", p.Line, lo, hi)
		}
		if rem := math.Mod(p.Line-lo, 0.5); rem > 1e-9 && rem < 0.5-1e-9 {
			t.Fatalf("line %v is not on the half-point grid", p.Line)
		}
	}
}

func TestScanLowMuClampsAtZero(t *testing.T) {
	// Window wider than mu: the scan never walks into negative thresholds.
	est := stats.Estimate{Mu: 2, Sigma: 1.5, Samples: 10}
	params := Params{Window: 8, Step: 0.5, MinProb: 0, MaxProb: 1, MaxPicks: 0}

	picks := Scan(testSubject(), est, params)
	if len(picks) == 0 {
		t.Fatal("expected picks for a usable estimate with the full band open")
	}
	for _, p := range picks {
		if p.Line < 0 {
			t.Fatalf("scan emitted negative line %v", p.Line)
		}
	}
}

func TestScanCarriesSubjectAndEstimate(t *testing.T) {
	est := stats.Estimate{Mu: 22, Sigma: 6, SeasonAvg: 21.4, RecentAvg: 22.9, Samples: 10}
	picks := Scan(testSubject(), est, DefaultPlayerParams())
	if len(picks) == 0 {
		t.Fatal("expected picks")
	}
	for _, p := range picks {
		if p.Type != models.TypePlayer || p.SubjectID != "player-1" || p.SubjectLabel != "J. Doe" || p.StatKey != models.StatPoints {
			t.Fatalf("pick lost subject identity: %+v", p)
		}
		if p.SeasonAvg != 21.4 || p.RecentAvg != 22.9 || p.Sigma != 6 {
			t.Fatalf("pick lost estimate context: %+v", p)
		}
		if p.ID == uuid.Nil {
			t.Fatal("pick has zero ID")
		}
	}
}
