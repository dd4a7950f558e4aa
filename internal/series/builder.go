// Package series turns raw per-game logs into per-statistic numeric series.
package series

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/prop-scout/internal/models"
)

// DefaultRecentSize is the length of the recent-form window.
const DefaultRecentSize = 5

// Extractor pulls one statistic out of a game log. ok is false when the
// underlying fields are missing from the box score.
type Extractor func(models.GameLog) (value float64, ok bool)

// StatSeries is the season series (newest first) and its recent-form prefix
// for one (entity, statistic) pair. Built fresh on every refresh.
type StatSeries struct {
	Season []float64
	Recent []float64
}

var basketballExtractors = map[models.StatKey]Extractor{
	models.StatPoints:   direct(func(g models.GameLog) *float64 { return g.Points }),
	models.StatRebounds: direct(func(g models.GameLog) *float64 { return g.Rebounds }),
	models.StatAssists:  direct(func(g models.GameLog) *float64 { return g.Assists }),
	models.StatThrees:   direct(func(g models.GameLog) *float64 { return g.Threes }),
	models.StatPRA: sum(
		func(g models.GameLog) *float64 { return g.Points },
		func(g models.GameLog) *float64 { return g.Rebounds },
		func(g models.GameLog) *float64 { return g.Assists },
	),
	models.StatTotalPoints: direct(func(g models.GameLog) *float64 { return g.Points }),
}

var footballExtractors = map[models.StatKey]Extractor{
	models.StatPassingYards:   direct(func(g models.GameLog) *float64 { return g.PassingYards }),
	models.StatRushingYards:   direct(func(g models.GameLog) *float64 { return g.RushingYards }),
	models.StatReceivingYards: direct(func(g models.GameLog) *float64 { return g.ReceivingYards }),
	models.StatReceptions:     direct(func(g models.GameLog) *float64 { return g.Receptions }),
	models.StatTotalPoints:    direct(func(g models.GameLog) *float64 { return g.Points }),
}

// ExtractorFor resolves a statistic to its extractor for one sport. Unknown
// keys are rejected here, at registration time, rather than silently
// producing empty series during a refresh.
func ExtractorFor(sport models.Sport, key models.StatKey) (Extractor, error) {
	var table map[models.StatKey]Extractor
	switch sport {
	case models.SportBasketball:
		table = basketballExtractors
	case models.SportFootball:
		table = footballExtractors
	default:
		return nil, fmt.Errorf("%w: no extractor table for sport %q", models.ErrUnknownStat, sport)
	}
	ex, ok := table[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q for sport %q", models.ErrUnknownStat, key, sport)
	}
	return ex, nil
}

// Build produces the season series for one statistic, newest game first,
// with the recent window sliced off the front. Missing and non-finite values
// are dropped before slicing.
func Build(logs []models.GameLog, ex Extractor, recentSize int) StatSeries {
	if recentSize <= 0 {
		recentSize = DefaultRecentSize
	}

	ordered := make([]models.GameLog, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].GameDate.After(ordered[j].GameDate)
	})

	season := make([]float64, 0, len(ordered))
	for _, g := range ordered {
		v, ok := ex(g)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		season = append(season, v)
	}

	recent := season
	if len(season) > recentSize {
		recent = season[:recentSize]
	}
	return StatSeries{Season: season, Recent: recent}
}

func direct(field func(models.GameLog) *float64) Extractor {
	return func(g models.GameLog) (float64, bool) {
		p := field(g)
		if p == nil {
			return 0, false
		}
		return *p, true
	}
}

// sum builds a derived composite stat. All components must be present.
func sum(fields ...func(models.GameLog) *float64) Extractor {
	return func(g models.GameLog) (float64, bool) {
		total := 0.0
		for _, field := range fields {
			p := field(g)
			if p == nil {
				return 0, false
			}
			total += *p
		}
		return total, true
	}
}
