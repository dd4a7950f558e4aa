package stats

import (
	"math"

	"github.com/yourusername/prop-scout/internal/models"
)

// Estimate holds the blended mean/variance estimate derived from a season
// series and an optional recent-form series.
type Estimate struct {
	SeasonAvg     float64
	RecentAvg     float64
	Mu            float64
	Sigma         float64
	Samples       int
	RecentSamples int
}

// LineEval is the model output for one (line, side) evaluation. FairOdds is
// the plain reciprocal of P with no guard: when P is 0 it is +Inf. Callers
// treat P outside (0,1) as unusable and skip the candidate.
type LineEval struct {
	P        float64
	FairOdds float64
}

// NewEstimate derives an Estimate from a season series and an optional
// recent-form series. weight is the fraction of the mean attributed to recent
// form. The season series must be non-empty; every other degenerate input is
// absorbed by the sigma fallback so the scan loop stays simple.
func NewEstimate(season, recent []float64, weight float64) (Estimate, error) {
	if len(season) == 0 {
		return Estimate{}, models.ErrEmptySeries
	}

	seasonAvg := mean(season)
	recentAvg := seasonAvg
	if len(recent) > 0 {
		recentAvg = mean(recent)
	}

	mu := weight*recentAvg + (1.0-weight)*seasonAvg

	sigma := 0.0
	if len(recent) >= 2 {
		sigma = sampleStdDev(recent)
	} else if len(season) >= 2 {
		sigma = sampleStdDev(season)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) || math.IsNaN(sigma) {
		sigma = playerSigmaFallback(seasonAvg)
	}

	return Estimate{
		SeasonAvg:     seasonAvg,
		RecentAvg:     recentAvg,
		Mu:            mu,
		Sigma:         sigma,
		Samples:       len(season),
		RecentSamples: len(recent),
	}, nil
}

// Combine sums two independent team estimates into a match-level aggregate.
// Correlation between the teams is deliberately ignored.
func Combine(home, away Estimate) Estimate {
	mu := home.Mu + away.Mu
	sigma := math.Sqrt(home.Sigma*home.Sigma + away.Sigma*away.Sigma)
	if !(sigma > 0) || math.IsInf(sigma, 0) || math.IsNaN(sigma) {
		sigma = matchSigmaFallback(mu)
	}
	samples := home.Samples
	if away.Samples < samples {
		samples = away.Samples
	}
	return Estimate{
		SeasonAvg: home.SeasonAvg + away.SeasonAvg,
		RecentAvg: home.RecentAvg + away.RecentAvg,
		Mu:        mu,
		Sigma:     sigma,
		Samples:   samples,
	}
}

// LineProbability prices a single threshold with a continuity-corrected
// normal approximation. The +0.5/-0.5 shift is asymmetric on purpose: the
// over and under of the same nominal line are NOT exact complements, and the
// conflict resolver depends on comparing these exact values.
func (e Estimate) LineProbability(line float64, side models.Side) LineEval {
	var p float64
	switch side {
	case models.SideUnder:
		z := (line - 0.5 - e.Mu) / e.Sigma
		p = Phi(z)
	default:
		z := (line + 0.5 - e.Mu) / e.Sigma
		p = 1.0 - Phi(z)
	}
	return LineEval{P: p, FairOdds: 1.0 / p}
}

// Usable reports whether the estimate can be scanned at all.
func (e Estimate) Usable() bool {
	return e.Sigma > 0 && !math.IsInf(e.Sigma, 0) && !math.IsNaN(e.Sigma) && !math.IsNaN(e.Mu) && !math.IsInf(e.Mu, 0)
}

func playerSigmaFallback(seasonAvg float64) float64 {
	return math.Max(0.4*seasonAvg, 0.5)
}

func matchSigmaFallback(mu float64) float64 {
	if s := 0.3 * mu; s > 0 {
		return s
	}
	return 1.0
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the Bessel-corrected (n-1 divisor) standard deviation.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
