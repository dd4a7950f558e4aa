package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/prop-scout/internal/cache"
	"github.com/yourusername/prop-scout/internal/metrics"
	"github.com/yourusername/prop-scout/internal/models"
	"github.com/yourusername/prop-scout/internal/provider"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func ptr(v float64) *float64 { return &v }

// fakeProvider serves canned fixtures, rosters and game logs and lets tests
// inject per-entity failures.
type fakeProvider struct {
	fixtures    []provider.Fixture
	fixturesErr error
	rosters     map[string][]provider.Player
	rosterErr   map[string]error
	logs        map[string][]models.GameLog
	logsErr     map[string]error

	// Optional gate so a test can hold a pipeline mid-flight.
	fetchStarted chan struct{}
	fetchGate    chan struct{}
}

func (f *fakeProvider) FetchUpcomingFixtures(ctx context.Context, sport models.Sport, limit int) ([]provider.Fixture, error) {
	if f.fetchStarted != nil {
		close(f.fetchStarted)
	}
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	if f.fixturesErr != nil {
		return nil, f.fixturesErr
	}
	return f.fixtures, nil
}

func (f *fakeProvider) FetchRoster(ctx context.Context, sport models.Sport, teamID string) ([]provider.Player, error) {
	if err := f.rosterErr[teamID]; err != nil {
		return nil, err
	}
	return f.rosters[teamID], nil
}

func (f *fakeProvider) FetchSeasonObservations(ctx context.Context, sport models.Sport, entityID, season string) ([]models.GameLog, error) {
	if err := f.logsErr[entityID]; err != nil {
		return nil, err
	}
	return f.logs[entityID], nil
}

type fakeSink struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (s *fakeSink) RefreshCompleted(domain string, result *models.DomainResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, domain)
}

func (s *fakeSink) RefreshFailed(domain string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, domain)
}

type fakeHistory struct {
	mu    sync.Mutex
	saved []*models.DomainResult
	err   error
}

func (h *fakeHistory) SaveRun(ctx context.Context, result *models.DomainResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = append(h.saved, result)
	return h.err
}

func pointsLogs(entityID string, values ...float64) []models.GameLog {
	logs := make([]models.GameLog, 0, len(values))
	for i, v := range values {
		logs = append(logs, models.GameLog{
			GameID:   fmt.Sprintf("%s-g%d", entityID, i),
			EntityID: entityID,
			GameDate: time.Date(2025, 11, i+1, 0, 0, 0, 0, time.UTC),
			Points:   ptr(v),
		})
	}
	return logs
}

func testFixture() provider.Fixture {
	return provider.Fixture{
		ID:        "fx-1",
		Season:    "2025",
		Week:      7,
		StartTime: time.Date(2025, 11, 20, 19, 0, 0, 0, time.UTC),
		HomeTeam:  provider.Team{ID: "t1", Name: "Hawks", Abbreviation: "ATL"},
		AwayTeam:  provider.Team{ID: "t2", Name: "Celtics", Abbreviation: "BOS"},
	}
}

// wideBandSpec opens the acceptance band so any usable estimate yields picks.
func wideBandSpec() DomainSpec {
	spec := BasketballSpec("2025")
	spec.PlayerScan.MinProb = 0.0
	spec.PlayerScan.MaxProb = 1.0
	spec.MatchScan.MinProb = 0.0
	spec.MatchScan.MaxProb = 1.0
	return spec
}

func newTestEngine(t *testing.T, p DataProvider, spec DomainSpec, opts ...Option) *Engine {
	t.Helper()
	store := cache.NewStore([]string{spec.Key}, testLogger())
	eng, err := NewEngine(p, store, []DomainSpec{spec}, testLogger(), opts...)
	require.NoError(t, err)
	return eng
}

func TestNewEngineRejectsInvalidSpec(t *testing.T) {
	spec := BasketballSpec("2025")
	spec.PlayerStats = append(spec.PlayerStats, models.StatPassingYards)

	store := cache.NewStore([]string{spec.Key}, testLogger())
	_, err := NewEngine(&fakeProvider{}, store, []DomainSpec{spec}, testLogger())
	require.Error(t, err, "football stat on a basketball spec must be rejected")
}

func TestRefreshDomainUnknown(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{}, wideBandSpec())
	err := eng.RefreshDomain(context.Background(), "cricket")
	require.ErrorIs(t, err, models.ErrUnknownDomain)
}

func TestRefreshDomainFixtureFetchFailure(t *testing.T) {
	sink := &fakeSink{}
	p := &fakeProvider{fixturesErr: errors.New("upstream down")}
	eng := newTestEngine(t, p, wideBandSpec(), WithEvents(sink))

	err := eng.RefreshDomain(context.Background(), "basketball")
	require.Error(t, err)

	snap, err := eng.Snapshot("basketball")
	require.NoError(t, err)
	assert.False(t, snap.HasData(), "failed refresh must not populate the cache")
	assert.Equal(t, []string{"basketball"}, sink.failed)
}

func TestRefreshDomainFullPipeline(t *testing.T) {
	sink := &fakeSink{}
	history := &fakeHistory{}
	p := &fakeProvider{
		fixtures: []provider.Fixture{testFixture()},
		rosters: map[string][]provider.Player{
			"t1": {{ID: "p1", Name: "J. Doe", TeamID: "t1"}},
			"t2": {{ID: "p2", Name: "A. Roe", TeamID: "t2"}},
		},
		logs: map[string][]models.GameLog{
			"p1": pointsLogs("p1", 20, 24, 18, 26, 22, 21, 25, 19),
			"p2": pointsLogs("p2", 14, 11, 16, 12, 15, 13, 17, 10),
			"t1": pointsLogs("t1", 110, 118, 104, 121, 109, 115, 112, 108),
			"t2": pointsLogs("t2", 98, 105, 101, 96, 108, 103, 99, 102),
		},
	}
	eng := newTestEngine(t, p, wideBandSpec(), WithEvents(sink), WithHistory(history))

	require.NoError(t, eng.RefreshDomain(context.Background(), "basketball"))

	snap, err := eng.Snapshot("basketball")
	require.NoError(t, err)
	require.True(t, snap.HasData())

	data := snap.Data
	assert.Equal(t, "basketball", data.Domain)
	assert.Equal(t, "2025", data.Season)
	assert.Equal(t, 7, data.Week)
	require.Len(t, data.Fixtures, 1)

	fx := data.Fixtures[0]
	assert.Equal(t, "fx-1", fx.FixtureID)
	assert.Equal(t, "Hawks", fx.HomeTeam)
	assert.Equal(t, "Celtics", fx.AwayTeam)
	require.NotEmpty(t, fx.Picks, "expected picks with the band wide open")
	assert.LessOrEqual(t, len(fx.Picks), 10, "per-fixture cap exceeded")
	for i := 1; i < len(fx.Picks); i++ {
		assert.LessOrEqual(t, fx.Picks[i].Probability, fx.Picks[i-1].Probability,
			"picks not sorted by probability descending")
	}

	assert.Equal(t, []string{"basketball"}, sink.completed)
	require.Len(t, history.saved, 1)
	assert.Equal(t, data.RunID, history.saved[0].RunID)
}

func TestRefreshStartedCountedAtFlightAcquisition(t *testing.T) {
	counter := metrics.RefreshesStartedTotal.WithLabelValues("basketball")
	before := testutil.ToFloat64(counter)

	p := &fakeProvider{
		fetchStarted: make(chan struct{}),
		fetchGate:    make(chan struct{}),
	}
	eng := newTestEngine(t, p, wideBandSpec())

	done := make(chan error, 1)
	go func() {
		done <- eng.RefreshDomain(context.Background(), "basketball")
	}()

	// The pipeline is now blocked inside the fixture fetch; the started
	// counter must already have moved.
	<-p.fetchStarted
	assert.Equal(t, before+1, testutil.ToFloat64(counter),
		"started counter should move when the flight is acquired, not at completion")

	close(p.fetchGate)
	require.NoError(t, <-done)
}

func TestRefreshDomainHistoryFailureIsNonFatal(t *testing.T) {
	history := &fakeHistory{err: errors.New("db down")}
	p := &fakeProvider{
		fixtures: []provider.Fixture{testFixture()},
		rosters: map[string][]provider.Player{
			"t1": {{ID: "p1", Name: "J. Doe", TeamID: "t1"}},
			"t2": {{ID: "p2", Name: "A. Roe", TeamID: "t2"}},
		},
		logs: map[string][]models.GameLog{
			"p1": pointsLogs("p1", 20, 24, 18, 26, 22, 21, 25, 19),
			"t1": pointsLogs("t1", 110, 118, 104, 121, 109, 115, 112, 108),
			"t2": pointsLogs("t2", 98, 105, 101, 96, 108, 103, 99, 102),
		},
	}
	eng := newTestEngine(t, p, wideBandSpec(), WithHistory(history))

	require.NoError(t, eng.RefreshDomain(context.Background(), "basketball"),
		"a history persistence error must not fail the refresh")
	snap, err := eng.Snapshot("basketball")
	require.NoError(t, err)
	assert.True(t, snap.HasData())
}

func TestSufficiencyGateExcludesShortSeries(t *testing.T) {
	// 7 games of points against a basketball minimum of 8, and 2 team games
	// against a minimum of 3: the fixture survives with zero picks.
	p := &fakeProvider{
		fixtures: []provider.Fixture{testFixture()},
		rosters: map[string][]provider.Player{
			"t1": {{ID: "p1", Name: "J. Doe", TeamID: "t1"}},
			"t2": {},
		},
		logs: map[string][]models.GameLog{
			"p1": pointsLogs("p1", 20, 24, 18, 26, 22, 21, 25),
			"t1": pointsLogs("t1", 110, 118),
			"t2": pointsLogs("t2", 98, 105),
		},
	}
	eng := newTestEngine(t, p, wideBandSpec())

	require.NoError(t, eng.RefreshDomain(context.Background(), "basketball"))

	snap, err := eng.Snapshot("basketball")
	require.NoError(t, err)
	require.Len(t, snap.Data.Fixtures, 1)
	assert.Empty(t, snap.Data.Fixtures[0].Picks, "insufficient data must yield zero picks")
}

func TestPerPlayerFailureIsContained(t *testing.T) {
	p := &fakeProvider{
		fixtures: []provider.Fixture{testFixture()},
		rosters: map[string][]provider.Player{
			"t1": {{ID: "p1", Name: "J. Doe", TeamID: "t1"}},
			"t2": {{ID: "p2", Name: "A. Roe", TeamID: "t2"}},
		},
		logs: map[string][]models.GameLog{
			"p1": pointsLogs("p1", 20, 24, 18, 26, 22, 21, 25, 19),
			"t1": pointsLogs("t1", 110, 118, 104, 121, 109, 115, 112, 108),
			"t2": pointsLogs("t2", 98, 105, 101, 96, 108, 103, 99, 102),
		},
		logsErr: map[string]error{"p2": errors.New("entity fetch failed")},
	}
	eng := newTestEngine(t, p, wideBandSpec())

	require.NoError(t, eng.RefreshDomain(context.Background(), "basketball"))

	snap, err := eng.Snapshot("basketball")
	require.NoError(t, err)
	picks := snap.Data.Fixtures[0].Picks
	require.NotEmpty(t, picks, "one broken player emptied the fixture")
	for _, pk := range picks {
		assert.NotEqual(t, "p2", pk.SubjectID, "picks emitted for the failed player")
	}
}

func TestRosterFailureSkipsFixture(t *testing.T) {
	p := &fakeProvider{
		fixtures:  []provider.Fixture{testFixture()},
		rosterErr: map[string]error{"t1": errors.New("roster fetch failed")},
	}
	eng := newTestEngine(t, p, wideBandSpec())

	require.NoError(t, eng.RefreshDomain(context.Background(), "basketball"))

	snap, err := eng.Snapshot("basketball")
	require.NoError(t, err)
	assert.Empty(t, snap.Data.Fixtures, "broken fixture should be skipped, not fail the run")
}

func TestRosterCap(t *testing.T) {
	roster := make([]provider.Player, 9)
	logs := map[string][]models.GameLog{
		"t1": pointsLogs("t1", 110, 118, 104, 121, 109, 115, 112, 108),
		"t2": pointsLogs("t2", 98, 105, 101, 96, 108, 103, 99, 102),
	}
	for i := range roster {
		id := fmt.Sprintf("p%d", i+1)
		roster[i] = provider.Player{ID: id, Name: id, TeamID: "t1"}
		logs[id] = pointsLogs(id, 20, 24, 18, 26, 22, 21, 25, 19)
	}
	p := &fakeProvider{
		fixtures: []provider.Fixture{testFixture()},
		rosters:  map[string][]provider.Player{"t1": roster, "t2": {}},
		logs:     logs,
	}

	spec := wideBandSpec()
	spec.MaxPlayersPerTeam = 6
	spec.TopPicksPerFixture = 0 // no cut, so every scored player shows up
	spec.MatchStat = ""
	eng := newTestEngine(t, p, spec)

	require.NoError(t, eng.RefreshDomain(context.Background(), "basketball"))

	snap, err := eng.Snapshot("basketball")
	require.NoError(t, err)
	subjects := make(map[string]bool)
	for _, pk := range snap.Data.Fixtures[0].Picks {
		subjects[pk.SubjectID] = true
	}
	assert.Len(t, subjects, 6, "picks should span exactly the capped roster")
}
