package provider

import (
	"time"

	"github.com/yourusername/prop-scout/internal/models"
)

// Team is one side of an upcoming fixture.
type Team struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Fixture is one upcoming game.
type Fixture struct {
	ID        string    `json:"id"`
	Season    string    `json:"season"`
	Week      int       `json:"week"`
	StartTime time.Time `json:"start_time"`
	HomeTeam  Team      `json:"home_team"`
	AwayTeam  Team      `json:"away_team"`
}

// Player is a roster entry.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	TeamID   string `json:"team_id"`
}

// meta carries the opaque pagination cursor returned by the upstream API.
type meta struct {
	NextCursor string `json:"next_cursor"`
	PerPage    int    `json:"per_page"`
}

type fixturesResponse struct {
	Data []Fixture `json:"data"`
	Meta meta      `json:"meta"`
}

type rosterResponse struct {
	Data []Player `json:"data"`
	Meta meta     `json:"meta"`
}

// gameLogRecord is the wire shape of one completed-game box score line.
// Nullable stat fields stay pointers all the way into models.GameLog so the
// series builder can tell "absent" from "zero".
type gameLogRecord struct {
	GameID   string `json:"game_id"`
	EntityID string `json:"entity_id"`
	GameDate string `json:"game_date"`
	Opponent string `json:"opponent"`

	Points   *float64 `json:"points"`
	Rebounds *float64 `json:"rebounds"`
	Assists  *float64 `json:"assists"`
	Threes   *float64 `json:"threes"`

	PassingYards   *float64 `json:"passing_yards"`
	RushingYards   *float64 `json:"rushing_yards"`
	ReceivingYards *float64 `json:"receiving_yards"`
	Receptions     *float64 `json:"receptions"`
}

type gameLogsResponse struct {
	Data []gameLogRecord `json:"data"`
	Meta meta            `json:"meta"`
}

func (r gameLogRecord) toModel() models.GameLog {
	date, err := time.Parse(time.RFC3339, r.GameDate)
	if err != nil {
		// Some endpoints return bare dates.
		date, _ = time.Parse("2006-01-02", r.GameDate)
	}
	return models.GameLog{
		GameID:         r.GameID,
		EntityID:       r.EntityID,
		GameDate:       date,
		Opponent:       r.Opponent,
		Points:         r.Points,
		Rebounds:       r.Rebounds,
		Assists:        r.Assists,
		Threes:         r.Threes,
		PassingYards:   r.PassingYards,
		RushingYards:   r.RushingYards,
		ReceivingYards: r.ReceivingYards,
		Receptions:     r.Receptions,
	}
}
