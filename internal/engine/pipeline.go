package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/prop-scout/internal/metrics"
	"github.com/yourusername/prop-scout/internal/models"
	"github.com/yourusername/prop-scout/internal/provider"
	"github.com/yourusername/prop-scout/internal/scanner"
	"github.com/yourusername/prop-scout/internal/series"
	"github.com/yourusername/prop-scout/internal/stats"
)

// buildDomainResult is the refresh pipeline body. Only the initial fixture
// fetch can fail the whole run; every narrower failure is logged and skipped
// so one bad fixture or player never empties the batch.
func (e *Engine) buildDomainResult(ctx context.Context, spec DomainSpec) (*models.DomainResult, error) {
	fixtures, err := e.provider.FetchUpcomingFixtures(ctx, spec.Sport, spec.FixtureLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming fixtures: %w", err)
	}

	result := &models.DomainResult{
		Domain:      spec.Key,
		Season:      spec.Season,
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Fixtures:    make([]models.FixturePicks, 0, len(fixtures)),
	}

	for _, fx := range fixtures {
		picks, err := e.buildFixturePicks(ctx, spec, fx)
		if err != nil {
			metrics.EntityFailuresTotal.WithLabelValues(spec.Key).Inc()
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"domain":  spec.Key,
				"fixture": fx.ID,
			}).Warn("Skipping fixture")
			continue
		}
		result.Fixtures = append(result.Fixtures, picks)
		if fx.Week > result.Week {
			result.Week = fx.Week
		}
	}

	return result, nil
}

// buildFixturePicks scores one fixture: both rosters fanned out player by
// player, the match-total aggregate, then conflict resolution and the
// per-fixture top-K cut.
func (e *Engine) buildFixturePicks(ctx context.Context, spec DomainSpec, fx provider.Fixture) (models.FixturePicks, error) {
	home, err := e.provider.FetchRoster(ctx, spec.Sport, fx.HomeTeam.ID)
	if err != nil {
		return models.FixturePicks{}, fmt.Errorf("failed to fetch home roster: %w", err)
	}
	away, err := e.provider.FetchRoster(ctx, spec.Sport, fx.AwayTeam.ID)
	if err != nil {
		return models.FixturePicks{}, fmt.Errorf("failed to fetch away roster: %w", err)
	}

	players := append(capRoster(home, spec.MaxPlayersPerTeam), capRoster(away, spec.MaxPlayersPerTeam)...)

	// Fan out one goroutine per player; each failure is contained to its own
	// player so the batch always completes.
	results := make(chan []models.Prediction, len(players))
	var wg sync.WaitGroup
	for _, pl := range players {
		wg.Add(1)
		go func(pl provider.Player) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					metrics.EntityFailuresTotal.WithLabelValues(spec.Key).Inc()
					e.logger.WithFields(map[string]interface{}{
						"domain": spec.Key,
						"player": pl.ID,
						"panic":  r,
					}).Error("Player scoring panicked")
				}
			}()

			preds, err := e.scorePlayer(ctx, spec, pl)
			if err != nil {
				metrics.EntityFailuresTotal.WithLabelValues(spec.Key).Inc()
				e.logger.WithError(err).WithFields(map[string]interface{}{
					"domain": spec.Key,
					"player": pl.ID,
				}).Warn("Skipping player")
				return
			}
			results <- preds
		}(pl)
	}
	wg.Wait()
	close(results)

	var all []models.Prediction
	for preds := range results {
		all = append(all, preds...)
	}

	matchPicks, err := e.scoreMatch(ctx, spec, fx)
	if err != nil {
		metrics.EntityFailuresTotal.WithLabelValues(spec.Key).Inc()
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"domain":  spec.Key,
			"fixture": fx.ID,
		}).Warn("Skipping match aggregate")
	} else {
		all = append(all, matchPicks...)
	}

	resolved := scanner.ResolveConflicts(all)
	models.SortByProbabilityDesc(resolved)
	if spec.TopPicksPerFixture > 0 && len(resolved) > spec.TopPicksPerFixture {
		resolved = resolved[:spec.TopPicksPerFixture]
	}

	return models.FixturePicks{
		FixtureID: fx.ID,
		HomeTeam:  fx.HomeTeam.Name,
		AwayTeam:  fx.AwayTeam.Name,
		StartTime: fx.StartTime,
		Picks:     resolved,
	}, nil
}

// scorePlayer builds a series per configured statistic and scans each one.
// Entities below the minimum sample size are silently excluded: that is a
// data-sufficiency gate, not an error.
func (e *Engine) scorePlayer(ctx context.Context, spec DomainSpec, pl provider.Player) ([]models.Prediction, error) {
	logs, err := e.provider.FetchSeasonObservations(ctx, spec.Sport, pl.ID, spec.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game logs: %w", err)
	}

	var preds []models.Prediction
	for _, key := range spec.PlayerStats {
		ex, err := series.ExtractorFor(spec.Sport, key)
		if err != nil {
			return nil, err
		}
		s := series.Build(logs, ex, spec.RecentSize)
		if len(s.Season) < spec.MinPlayerGames {
			continue
		}
		est, err := stats.NewEstimate(s.Season, s.Recent, spec.BlendWeight)
		if err != nil {
			continue
		}
		sub := scanner.Subject{
			Type:  models.TypePlayer,
			ID:    pl.ID,
			Label: pl.Name,
			Stat:  key,
		}
		preds = append(preds, scanner.Scan(sub, est, spec.PlayerScan)...)
	}
	return preds, nil
}

// scoreMatch prices the combined two-team aggregate from independent team
// estimates.
func (e *Engine) scoreMatch(ctx context.Context, spec DomainSpec, fx provider.Fixture) ([]models.Prediction, error) {
	if spec.MatchStat == "" {
		return nil, nil
	}
	ex, err := series.ExtractorFor(spec.Sport, spec.MatchStat)
	if err != nil {
		return nil, err
	}

	homeLogs, err := e.provider.FetchSeasonObservations(ctx, spec.Sport, fx.HomeTeam.ID, spec.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch home team logs: %w", err)
	}
	awayLogs, err := e.provider.FetchSeasonObservations(ctx, spec.Sport, fx.AwayTeam.ID, spec.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch away team logs: %w", err)
	}

	homeSeries := series.Build(homeLogs, ex, spec.RecentSize)
	awaySeries := series.Build(awayLogs, ex, spec.RecentSize)
	if len(homeSeries.Season) < spec.MinTeamGames || len(awaySeries.Season) < spec.MinTeamGames {
		return nil, nil
	}

	homeEst, err := stats.NewEstimate(homeSeries.Season, homeSeries.Recent, spec.BlendWeight)
	if err != nil {
		return nil, nil
	}
	awayEst, err := stats.NewEstimate(awaySeries.Season, awaySeries.Recent, spec.BlendWeight)
	if err != nil {
		return nil, nil
	}

	combined := stats.Combine(homeEst, awayEst)
	sub := scanner.Subject{
		Type:  models.TypeMatch,
		ID:    fx.ID,
		Label: fx.HomeTeam.Abbreviation + " vs " + fx.AwayTeam.Abbreviation,
		Stat:  spec.MatchStat,
	}
	return scanner.Scan(sub, combined, spec.MatchScan), nil
}

func capRoster(players []provider.Player, max int) []provider.Player {
	if max > 0 && len(players) > max {
		return players[:max]
	}
	return players
}
