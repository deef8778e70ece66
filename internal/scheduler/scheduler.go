// Package scheduler runs the ingestion and analysis pipelines on fixed
// intervals. The admin HTTP endpoints remain the authoritative trigger; the
// scheduler simply fires the same runs unattended.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-watch/internal/observability"
)

// Job is a named unit of periodic work. Run errors are logged, not fatal:
// the next tick retries.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler ticks each job on its own interval until the context is
// cancelled. If a job is still running when its next tick fires, that tick
// is skipped rather than queued.
type Scheduler struct {
	jobs    []Job
	clk     clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a scheduler. A nil clock means the real clock.
func New(jobs []Job, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Scheduler{jobs: jobs, clk: clk, logger: logger, metrics: metrics}
}

// Run blocks until ctx is cancelled, then waits for in-flight jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.metrics.SchedulerEnabled.Set(1)
	defer s.metrics.SchedulerEnabled.Set(0)

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, job)
		}()
	}
	wg.Wait()
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	s.logger.Info("scheduled job registered", "job", job.Name, "interval", job.Interval)

	ticker := s.clk.NewTicker(job.Interval)
	defer ticker.Stop()

	var running atomic.Bool
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduled job stopping", "job", job.Name, "reason", ctx.Err())
			return
		case <-ticker.Chan():
		}
		// A tick raced with shutdown. Don't start new work.
		if ctx.Err() != nil {
			s.logger.Info("scheduled job stopping", "job", job.Name, "reason", ctx.Err())
			return
		}

		if !running.CompareAndSwap(false, true) {
			s.logger.Warn("previous run still in progress, skipping tick", "job", job.Name)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer running.Store(false)
			start := s.clk.Now()
			if err := job.Run(ctx); err != nil {
				s.logger.Error("scheduled run failed", "job", job.Name, "error", err)
				return
			}
			s.logger.Info("scheduled run finished", "job", job.Name, "duration", s.clk.Since(start))
		}()
	}
}
