// Package scanner generates candidate over/under picks by walking threshold
// values around a model estimate, and resolves contradictory picks.
package scanner

import (
	"math"

	"github.com/google/uuid"
	"github.com/yourusername/prop-scout/internal/models"
	"github.com/yourusername/prop-scout/internal/stats"
)

// Params bounds one scan. Window is the half-width around mu; thresholds
// outside it price near 0 or 1 and are never worth emitting. MaxPicks caps
// output per (entity, statistic) pair to keep batch size bounded.
type Params struct {
	Window   float64
	Step     float64
	MinProb  float64
	MaxProb  float64
	MaxPicks int
}

// DefaultPlayerParams is the scan configuration for individual props.
func DefaultPlayerParams() Params {
	return Params{Window: 8, Step: 0.5, MinProb: 0.58, MaxProb: 0.62, MaxPicks: 2}
}

// DefaultFootballParams narrows the window for football player props, whose
// per-game yardage series are shorter and noisier.
func DefaultFootballParams() Params {
	return Params{Window: 2, Step: 0.5, MinProb: 0.58, MaxProb: 0.62, MaxPicks: 2}
}

// DefaultMatchParams is the scan configuration for match-level aggregates.
func DefaultMatchParams() Params {
	return Params{Window: 3, Step: 0.5, MinProb: 0.58, MaxProb: 0.62, MaxPicks: 1}
}

// Subject identifies what a scan is pricing.
type Subject struct {
	Type  models.PredictionType
	ID    string
	Label string
	Stat  models.StatKey
}

// Scan walks thresholds in [max(0, floor(mu-W)), ceil(mu+W)] in fixed steps,
// prices both sides at each one, and keeps candidates whose probability falls
// inside the acceptance band. Kept candidates are sorted by probability
// descending and truncated to MaxPicks. A degenerate estimate produces
// nothing at all.
func Scan(sub Subject, est stats.Estimate, p Params) []models.Prediction {
	if !est.Usable() {
		return nil
	}
	step := p.Step
	if step <= 0 {
		step = 0.5
	}

	lo := math.Max(0, math.Floor(est.Mu-p.Window))
	hi := math.Ceil(est.Mu + p.Window)

	var kept []models.Prediction
	for line := lo; line <= hi; line += step {
		for _, side := range []models.Side{models.SideOver, models.SideUnder} {
			eval := est.LineProbability(line, side)
			// p outside (0,1) is unusable: the fair-odds reciprocal is
			// meaningless there.
			if !(eval.P > 0 && eval.P < 1) {
				continue
			}
			if eval.P < p.MinProb || eval.P > p.MaxProb {
				continue
			}
			kept = append(kept, models.Prediction{
				ID:           uuid.New(),
				Type:         sub.Type,
				SubjectID:    sub.ID,
				SubjectLabel: sub.Label,
				StatKey:      sub.Stat,
				Side:         side,
				Line:         line,
				Probability:  eval.P,
				FairOdds:     eval.FairOdds,
				SeasonAvg:    est.SeasonAvg,
				RecentAvg:    est.RecentAvg,
				Sigma:        est.Sigma,
			})
		}
	}

	models.SortByProbabilityDesc(kept)
	if p.MaxPicks > 0 && len(kept) > p.MaxPicks {
		kept = kept[:p.MaxPicks]
	}
	return kept
}
