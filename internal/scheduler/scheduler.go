// Package scheduler triggers periodic per-domain refreshes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-scout/internal/cache"
)

// Refresher is the orchestrator surface the scheduler drives. It only ever
// calls the single-flight StartRefresh path, so overlapping triggers are
// harmless.
type Refresher interface {
	Domains() []string
	RefreshDomain(ctx context.Context, domain string) error
}

// Scheduler runs one recurring refresh job per domain, plus a staggered
// initial kick at process start so rate-limited upstreams don't get hit by
// every domain at once.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	logger    *logrus.Logger

	interval time.Duration
	stagger  time.Duration

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
	timers    []*time.Timer
}

// New creates a scheduler refreshing every interval, staggering domains by
// the given offset.
func New(refresher Refresher, interval, stagger time.Duration, logger *logrus.Logger) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Hour
	}
	if stagger <= 0 {
		stagger = 15 * time.Second
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		refresher: refresher,
		logger:    logger,
		interval:  interval,
		stagger:   stagger,
		jobIDs:    make([]cron.EntryID, 0),
	}
}

// Start schedules every domain and kicks off the staggered initial refreshes.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	domains := s.refresher.Domains()
	if len(domains) == 0 {
		return fmt.Errorf("no domains to schedule")
	}

	for i, domain := range domains {
		domain := domain

		entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
			s.runRefresh(domain)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule domain %q: %w", domain, err)
		}
		s.jobIDs = append(s.jobIDs, entryID)

		// Initial kick, offset per domain. The first domain fires right
		// away, each following one waits a further stagger.
		delay := time.Duration(i) * s.stagger
		s.timers = append(s.timers, time.AfterFunc(delay, func() {
			s.runRefresh(domain)
		}))

		s.logger.WithFields(logrus.Fields{
			"domain":        domain,
			"interval":      s.interval.String(),
			"initial_delay": delay.String(),
		}).Info("Scheduled domain refresh")
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop halts the cron loop and cancels pending initial kicks. In-flight
// refreshes run to completion; there is no cancellation path for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	for _, t := range s.timers {
		t.Stop()
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the earliest next scheduled refresh time.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// RunNow triggers an immediate refresh for one domain, outside the cron
// schedule. Single-flight semantics still apply.
func (s *Scheduler) RunNow(domain string) {
	go s.runRefresh(domain)
}

func (s *Scheduler) runRefresh(domain string) {
	err := s.refresher.RefreshDomain(context.Background(), domain)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrRefreshInProgress):
		s.logger.WithField("domain", domain).Debug("Refresh already in flight, skipping scheduled run")
	default:
		s.logger.WithError(err).WithField("domain", domain).Error("Scheduled refresh failed")
	}
}
