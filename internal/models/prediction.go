package models

import (
	"sort"

	"github.com/google/uuid"
)

// Side is the direction of a line bet.
type Side string

const (
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// PredictionType distinguishes individual player props from match-level
// aggregates.
type PredictionType string

const (
	TypePlayer PredictionType = "player"
	TypeMatch  PredictionType = "match"
)

// Prediction is a single generated pick. It is a value object: once created
// it is only ever filtered and sorted, never mutated.
type Prediction struct {
	ID           uuid.UUID      `json:"id"`
	Type         PredictionType `json:"type"`
	SubjectID    string         `json:"subject_id"`
	SubjectLabel string         `json:"subject"`
	StatKey      StatKey        `json:"stat"`
	Side         Side           `json:"side"`
	Line         float64        `json:"line"`
	Probability  float64        `json:"probability"`
	FairOdds     float64        `json:"fair_odds"`
	SeasonAvg    float64        `json:"season_avg"`
	RecentAvg    float64        `json:"recent_avg"`
	Sigma        float64        `json:"sigma"`
}

// SortByProbabilityDesc orders predictions from most to least confident.
// Stable so equal probabilities keep their generation order.
func SortByProbabilityDesc(preds []Prediction) {
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Probability > preds[j].Probability
	})
}
