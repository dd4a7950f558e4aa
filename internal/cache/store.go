// Package cache holds the per-domain prediction cache and coordinates
// refreshes with single-flight, stale-while-revalidate semantics.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-scout/internal/models"
)

// ErrRefreshInProgress is returned by StartRefresh when a refresh pipeline
// for the domain is already in flight. The caller must not start another.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Snapshot is a non-blocking read of one domain's cache state.
type Snapshot struct {
	Data        *models.DomainResult
	LastUpdated time.Time
	IsLoading   bool
}

// HasData reports whether the domain has ever completed a refresh.
func (s Snapshot) HasData() bool {
	return s.Data != nil
}

// Entry is the mutable cell for one domain. All mutation happens inside
// StartRefresh under the entry's own mutex; readers only ever copy fields.
type Entry struct {
	domain string
	logger *logrus.Logger

	mu          sync.Mutex
	data        *models.DomainResult
	lastUpdated time.Time
	isLoading   bool
}

// Store owns one Entry per registered domain. Entries are created empty at
// process start and never removed.
type Store struct {
	entries map[string]*Entry
	domains []string
}

// NewStore creates a store with one empty entry per domain.
func NewStore(domains []string, logger *logrus.Logger) *Store {
	entries := make(map[string]*Entry, len(domains))
	keys := make([]string, 0, len(domains))
	for _, d := range domains {
		entries[d] = &Entry{domain: d, logger: logger}
		keys = append(keys, d)
	}
	return &Store{entries: entries, domains: keys}
}

// Entry returns the cache entry for a domain.
func (s *Store) Entry(domain string) (*Entry, error) {
	e, ok := s.entries[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownDomain, domain)
	}
	return e, nil
}

// Domains lists the registered domains in registration order.
func (s *Store) Domains() []string {
	out := make([]string, len(s.domains))
	copy(out, s.domains)
	return out
}

// Snapshot returns the current state without blocking on any in-flight
// refresh.
func (e *Entry) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{Data: e.data, LastUpdated: e.lastUpdated, IsLoading: e.isLoading}
}

// StartRefresh runs fn as the domain's refresh pipeline. It is single-flight:
// if a refresh is already in progress it returns ErrRefreshInProgress without
// invoking fn. On success the result and timestamp are swapped in atomically.
// On failure (error or panic) previously cached data is left untouched, so a
// broken upstream degrades to stale-but-available rather than empty.
func (e *Entry) StartRefresh(ctx context.Context, fn func(context.Context) (*models.DomainResult, error)) (err error) {
	e.mu.Lock()
	if e.isLoading {
		e.mu.Unlock()
		return ErrRefreshInProgress
	}
	e.isLoading = true
	e.mu.Unlock()

	var result *models.DomainResult

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh pipeline panicked: %v", r)
		}

		e.mu.Lock()
		if err == nil && result != nil {
			e.data = result
			e.lastUpdated = time.Now().UTC()
		}
		e.isLoading = false
		e.mu.Unlock()

		if err != nil && e.logger != nil {
			e.logger.WithError(err).WithField("domain", e.domain).
				Error("Refresh pipeline failed, keeping previous data")
		}
	}()

	result, err = fn(ctx)
	return err
}
