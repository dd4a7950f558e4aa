// Package models defines the core domain types for the prediction service.
package models

import "time"

// Sport identifies a supported sport domain.
type Sport string

const (
	SportBasketball Sport = "basketball"
	SportFootball   Sport = "football"
)

// StatKey identifies a supported statistic. The set of keys is closed:
// unknown keys are rejected when a domain is registered.
type StatKey string

// Basketball statistics.
const (
	StatPoints   StatKey = "pts"
	StatRebounds StatKey = "reb"
	StatAssists  StatKey = "ast"
	StatThrees   StatKey = "threes"
	StatPRA      StatKey = "pra"
)

// Football statistics.
const (
	StatPassingYards   StatKey = "pass_yds"
	StatRushingYards   StatKey = "rush_yds"
	StatReceivingYards StatKey = "rec_yds"
	StatReceptions     StatKey = "receptions"
)

// Match-level aggregate statistics.
const (
	StatTotalPoints StatKey = "total_pts"
)

// GameLog is one completed-game observation for an entity (player or team).
// Stat fields are pointers because upstream box scores omit stats the entity
// did not record; a nil field is filtered out by the series builder.
type GameLog struct {
	GameID   string    `json:"game_id"`
	EntityID string    `json:"entity_id"`
	GameDate time.Time `json:"game_date"`
	Opponent string    `json:"opponent,omitempty"`

	Points   *float64 `json:"points,omitempty"`
	Rebounds *float64 `json:"rebounds,omitempty"`
	Assists  *float64 `json:"assists,omitempty"`
	Threes   *float64 `json:"threes,omitempty"`

	PassingYards   *float64 `json:"passing_yards,omitempty"`
	RushingYards   *float64 `json:"rushing_yards,omitempty"`
	ReceivingYards *float64 `json:"receiving_yards,omitempty"`
	Receptions     *float64 `json:"receptions,omitempty"`
}
