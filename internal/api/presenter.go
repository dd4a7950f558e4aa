package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/prop-scout/internal/cache"
	"github.com/yourusername/prop-scout/internal/models"
)

// Wire shapes for the predictions endpoint. Probabilities are presented as
// 0-100 percentages with one decimal and fair odds with three, by convention
// of downstream consumers.
type pickDTO struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Subject        string  `json:"subject"`
	SubjectID      string  `json:"subjectId"`
	Stat           string  `json:"stat"`
	Side           string  `json:"side"`
	Line           float64 `json:"line"`
	ProbabilityPct float64 `json:"probabilityPct"`
	FairOdds       float64 `json:"fairOdds"`
	SeasonAvg      float64 `json:"seasonAvg"`
	RecentAvg      float64 `json:"recentAvg"`
	Sigma          float64 `json:"sigma"`
}

type fixtureDTO struct {
	FixtureID string    `json:"fixtureId"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	StartTime time.Time `json:"startTime"`
	Picks     []pickDTO `json:"picks"`
}

type domainResponse struct {
	Domain      string       `json:"domain"`
	Season      string       `json:"season"`
	Week        int          `json:"week,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Fixtures    []fixtureDTO `json:"fixtures"`
	LastUpdated time.Time    `json:"lastUpdated"`
	FromCache   bool         `json:"fromCache"`
}

func presentDomainResult(snap cache.Snapshot) domainResponse {
	result := snap.Data
	fixtures := make([]fixtureDTO, 0, len(result.Fixtures))
	for _, f := range result.Fixtures {
		picks := make([]pickDTO, 0, len(f.Picks))
		for _, p := range f.Picks {
			picks = append(picks, presentPick(p))
		}
		fixtures = append(fixtures, fixtureDTO{
			FixtureID: f.FixtureID,
			HomeTeam:  f.HomeTeam,
			AwayTeam:  f.AwayTeam,
			StartTime: f.StartTime,
			Picks:     picks,
		})
	}

	return domainResponse{
		Domain:      result.Domain,
		Season:      result.Season,
		Week:        result.Week,
		GeneratedAt: result.GeneratedAt,
		Fixtures:    fixtures,
		LastUpdated: snap.LastUpdated,
		FromCache:   true,
	}
}

func presentPick(p models.Prediction) pickDTO {
	return pickDTO{
		ID:             p.ID.String(),
		Type:           string(p.Type),
		Subject:        p.SubjectLabel,
		SubjectID:      p.SubjectID,
		Stat:           string(p.StatKey),
		Side:           string(p.Side),
		Line:           p.Line,
		ProbabilityPct: roundTo(p.Probability*100, 1),
		FairOdds:       roundTo(p.FairOdds, 3),
		SeasonAvg:      roundTo(p.SeasonAvg, 2),
		RecentAvg:      roundTo(p.RecentAvg, 2),
		Sigma:          roundTo(p.Sigma, 2),
	}
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
