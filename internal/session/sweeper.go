package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
	"github.com/sandeepkv93/session-lifecycle-service/internal/observability"
)

// Sweeper periodically reaps sessions that expired without receiving another
// request, bounding registry growth from abandoned clients. It is an explicit
// start/stop task so tests and shutdown can end it deterministically.
type Sweeper struct {
	tracker  *Tracker
	interval time.Duration
	logger   *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

func NewSweeper(tracker *Tracker, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		tracker:  tracker,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Repeated calls are no-ops.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run()
	})
}

// Stop ends the loop and waits for an in-flight tick to finish. Idempotent,
// and a no-op if the loop never started.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.SweepOnce(context.Background())
		}
	}
}

// SweepOnce runs a single sweep tick and returns how many sessions were
// reaped. Zero is the normal outcome on a quiet registry. Exported so tests
// and operational tooling can trigger a sweep without waiting out the
// interval.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	now := s.tracker.clock()
	limits := s.tracker.limits
	reaped := 0
	for _, rec := range s.tracker.registry.Snapshot() {
		eval := Evaluate(&rec, now, limits)
		if !eval.Expired {
			continue
		}
		// Remove-first inside expire keeps this exactly-once even when a
		// live request expires the same session concurrently.
		if s.tracker.expire(ctx, rec.SessionID, eval.Reason, domain.EventSessionExpired, now) {
			reaped++
		}
	}
	observability.RecordSweep(ctx, reaped)
	s.logger.Debug("session sweep complete", "reaped", reaped, "active", s.tracker.registry.Len())
	return reaped
}
