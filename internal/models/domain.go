package models

import (
	"time"

	"github.com/google/uuid"
)

// FixturePicks bundles the top predictions for one upcoming fixture.
type FixturePicks struct {
	FixtureID string       `json:"fixture_id"`
	HomeTeam  string       `json:"home_team"`
	AwayTeam  string       `json:"away_team"`
	StartTime time.Time    `json:"start_time"`
	Picks     []Prediction `json:"picks"`
}

// DomainResult is the full output of one refresh pipeline run for one sport
// domain. It is stored in the cache as-is and never mutated afterwards.
type DomainResult struct {
	Domain      string         `json:"domain"`
	Season      string         `json:"season"`
	Week        int            `json:"week,omitempty"`
	RunID       uuid.UUID      `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Fixtures    []FixturePicks `json:"fixtures"`
}

// ItemCount returns the total number of predictions across all fixtures.
func (r *DomainResult) ItemCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, f := range r.Fixtures {
		n += len(f.Picks)
	}
	return n
}
