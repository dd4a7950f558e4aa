// Package engine runs the per-domain refresh pipeline: fetch upstream data,
// build stat series, scan lines, resolve conflicts and store the result in
// the prediction cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-scout/internal/cache"
	"github.com/yourusername/prop-scout/internal/metrics"
	"github.com/yourusername/prop-scout/internal/models"
	"github.com/yourusername/prop-scout/internal/provider"
	"github.com/yourusername/prop-scout/internal/scanner"
	"github.com/yourusername/prop-scout/internal/series"
)

// DataProvider is the upstream sports-data dependency of the pipeline.
type DataProvider interface {
	FetchUpcomingFixtures(ctx context.Context, sport models.Sport, limit int) ([]provider.Fixture, error)
	FetchRoster(ctx context.Context, sport models.Sport, teamID string) ([]provider.Player, error)
	FetchSeasonObservations(ctx context.Context, sport models.Sport, entityID, season string) ([]models.GameLog, error)
}

// HistoryWriter persists successful refresh results. Persistence failures
// are logged and never fail the refresh.
type HistoryWriter interface {
	SaveRun(ctx context.Context, result *models.DomainResult) error
}

// EventSink receives refresh lifecycle notifications.
type EventSink interface {
	RefreshCompleted(domain string, result *models.DomainResult)
	RefreshFailed(domain string, err error)
}

// DomainSpec configures the pipeline for one sport domain.
type DomainSpec struct {
	Key                string
	Sport              models.Sport
	Season             string
	FixtureLimit       int
	MaxPlayersPerTeam  int
	MinPlayerGames     int
	MinTeamGames       int
	RecentSize         int
	BlendWeight        float64
	PlayerStats        []models.StatKey
	MatchStat          models.StatKey
	PlayerScan         scanner.Params
	MatchScan          scanner.Params
	TopPicksPerFixture int
}

// BasketballSpec returns the default basketball domain configuration.
func BasketballSpec(season string) DomainSpec {
	return DomainSpec{
		Key:                string(models.SportBasketball),
		Sport:              models.SportBasketball,
		Season:             season,
		FixtureLimit:       10,
		MaxPlayersPerTeam:  6,
		MinPlayerGames:     8,
		MinTeamGames:       3,
		RecentSize:         series.DefaultRecentSize,
		BlendWeight:        0.6,
		PlayerStats:        []models.StatKey{models.StatPoints, models.StatRebounds, models.StatAssists, models.StatThrees, models.StatPRA},
		MatchStat:          models.StatTotalPoints,
		PlayerScan:         scanner.DefaultPlayerParams(),
		MatchScan:          scanner.DefaultMatchParams(),
		TopPicksPerFixture: 10,
	}
}

// FootballSpec returns the default football domain configuration.
func FootballSpec(season string) DomainSpec {
	return DomainSpec{
		Key:                string(models.SportFootball),
		Sport:              models.SportFootball,
		Season:             season,
		FixtureLimit:       10,
		MaxPlayersPerTeam:  6,
		MinPlayerGames:     5,
		MinTeamGames:       3,
		RecentSize:         series.DefaultRecentSize,
		BlendWeight:        0.6,
		PlayerStats:        []models.StatKey{models.StatPassingYards, models.StatRushingYards, models.StatReceivingYards, models.StatReceptions},
		MatchStat:          models.StatTotalPoints,
		PlayerScan:         scanner.DefaultFootballParams(),
		MatchScan:          scanner.DefaultMatchParams(),
		TopPicksPerFixture: 10,
	}
}

// Validate rejects a spec whose statistic keys have no extractor.
func (s DomainSpec) Validate() error {
	for _, key := range s.PlayerStats {
		if _, err := series.ExtractorFor(s.Sport, key); err != nil {
			return err
		}
	}
	if s.MatchStat != "" {
		if _, err := series.ExtractorFor(s.Sport, s.MatchStat); err != nil {
			return err
		}
	}
	return nil
}

// Engine wires the provider, the domain specs and the prediction cache.
type Engine struct {
	provider DataProvider
	store    *cache.Store
	specs    map[string]DomainSpec
	logger   *logrus.Logger
	history  HistoryWriter
	events   EventSink
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithHistory enables persistence of successful refresh runs.
func WithHistory(h HistoryWriter) Option {
	return func(e *Engine) { e.history = h }
}

// WithEvents enables refresh lifecycle notifications.
func WithEvents(s EventSink) Option {
	return func(e *Engine) { e.events = s }
}

// NewEngine creates an engine for the given domain specs. Every spec must
// pass Validate.
func NewEngine(p DataProvider, store *cache.Store, specs []DomainSpec, logger *logrus.Logger, opts ...Option) (*Engine, error) {
	byKey := make(map[string]DomainSpec, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid domain spec %q: %w", spec.Key, err)
		}
		byKey[spec.Key] = spec
	}

	e := &Engine{provider: p, store: store, specs: byKey, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Domains lists the registered domain keys.
func (e *Engine) Domains() []string {
	return e.store.Domains()
}

// Snapshot returns the cache state for a domain without blocking.
func (e *Engine) Snapshot(domain string) (cache.Snapshot, error) {
	entry, err := e.store.Entry(domain)
	if err != nil {
		return cache.Snapshot{}, err
	}
	return entry.Snapshot(), nil
}

// RefreshDomain runs the full refresh pipeline for one domain under the
// cache's single-flight guard. A concurrent trigger returns
// cache.ErrRefreshInProgress without starting a duplicate pipeline.
func (e *Engine) RefreshDomain(ctx context.Context, domain string) error {
	entry, err := e.store.Entry(domain)
	if err != nil {
		return err
	}
	spec, ok := e.specs[domain]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownDomain, domain)
	}

	start := time.Now()
	err = entry.StartRefresh(ctx, func(ctx context.Context) (*models.DomainResult, error) {
		// Counted here so the metric moves when the flight is acquired,
		// not when the pipeline finishes.
		metrics.RefreshesStartedTotal.WithLabelValues(domain).Inc()
		return e.buildDomainResult(ctx, spec)
	})
	if errors.Is(err, cache.ErrRefreshInProgress) {
		metrics.RefreshSkippedTotal.WithLabelValues(domain).Inc()
		return err
	}

	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordRefreshFailure(domain, elapsed)
		if e.events != nil {
			e.events.RefreshFailed(domain, err)
		}
		return err
	}

	snap := entry.Snapshot()
	metrics.RecordRefreshSuccess(domain, elapsed, snap.Data.ItemCount(), float64(snap.LastUpdated.Unix()))

	e.logger.WithFields(logrus.Fields{
		"domain":      domain,
		"fixtures":    len(snap.Data.Fixtures),
		"predictions": snap.Data.ItemCount(),
		"duration":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("Refresh completed")

	if e.history != nil {
		if herr := e.history.SaveRun(ctx, snap.Data); herr != nil {
			e.logger.WithError(herr).WithField("domain", domain).Warn("Failed to persist refresh history")
		}
	}
	if e.events != nil {
		e.events.RefreshCompleted(domain, snap.Data)
	}
	return nil
}
