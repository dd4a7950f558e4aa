package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type fakeRefresher struct {
	domains []string

	mu    sync.Mutex
	calls map[string]int
}

func newFakeRefresher(domains ...string) *fakeRefresher {
	return &fakeRefresher{domains: domains, calls: make(map[string]int)}
}

func (f *fakeRefresher) Domains() []string { return f.domains }

func (f *fakeRefresher) RefreshDomain(ctx context.Context, domain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[domain]++
	return nil
}

func (f *fakeRefresher) callCount(domain string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[domain]
}

func TestSchedulerStartStop(t *testing.T) {
	r := newFakeRefresher("basketball", "football")
	s := New(r, time.Hour, time.Hour, testLogger())

	if s.IsRunning() {
		t.Fatal("scheduler running before Start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("scheduler not running after Start")
	}
	if err := s.Start(); err == nil {
		t.Fatal("second Start should fail")
	}
	if s.NextRun().IsZero() {
		t.Fatal("no next run scheduled")
	}

	s.Stop()
	if s.IsRunning() {
		t.Fatal("scheduler still running after Stop")
	}
	// Stopping again is a no-op.
	s.Stop()
}

func TestSchedulerRequiresDomains(t *testing.T) {
	s := New(newFakeRefresher(), time.Hour, time.Hour, testLogger())
	if err := s.Start(); err == nil {
		t.Fatal("expected error for empty domain list")
	}
}

func TestSchedulerStaggeredInitialKick(t *testing.T) {
	r := newFakeRefresher("basketball", "football")
	s := New(r, time.Hour, 20*time.Millisecond, testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.callCount("basketball") >= 1 && r.callCount("football") >= 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("initial kicks did not fire: basketball=%d football=%d",
		r.callCount("basketball"), r.callCount("football"))
}

func TestSchedulerRunNow(t *testing.T) {
	r := newFakeRefresher("basketball")
	s := New(r, time.Hour, time.Hour, testLogger())

	s.RunNow("basketball")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.callCount("basketball") == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("RunNow did not trigger a refresh")
}

func TestSchedulerFirstDomainKicksImmediately(t *testing.T) {
	r := newFakeRefresher("basketball", "football")
	s := New(r, time.Hour, 10*time.Second, testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop()

	// The first domain's kick is not held back by the stagger; the second
	// domain still waits.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.callCount("basketball") >= 1 {
			if got := r.callCount("football"); got != 0 {
				t.Fatalf("football kicked %d times before its stagger elapsed", got)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("first domain's initial kick did not fire promptly")
}

func TestSchedulerStopCancelsPendingKicks(t *testing.T) {
	r := newFakeRefresher("basketball", "football")
	s := New(r, time.Hour, 500*time.Millisecond, testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	s.Stop()

	// Basketball's zero-delay timer may already have fired; football's
	// pending staggered kick must be cancelled.
	time.Sleep(600 * time.Millisecond)
	if got := r.callCount("football"); got != 0 {
		t.Fatalf("pending initial kick fired %d times after Stop", got)
	}
}
