// Package scheduler runs background maintenance jobs on fixed periods with an
// explicit start/stop lifecycle, replacing fire-and-forget timers.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler invokes a job every interval until stopped.
type Scheduler struct {
	job      Job
	interval time.Duration
	logger   *slog.Logger

	// ticks overrides the interval ticker when set, so tests drive the
	// schedule deterministically without wall-clock waits.
	ticks <-chan time.Time

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// New builds a scheduler for the job.
func New(job Job, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{job: job, interval: interval, logger: logger}
}

// WithTicks replaces the interval ticker with an injected tick source.
func (s *Scheduler) WithTicks(ticks <-chan time.Time) *Scheduler {
	s.ticks = ticks
	return s
}

// Start launches the scheduling goroutine. Starting twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(ctx)
	s.logger.Info("scheduler started", "job", s.job.Name(), "interval", s.interval)
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	s.logger.Info("scheduler stopped", "job", s.job.Name())
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticks:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", s.job.Name(), "error", err)
	}
}
