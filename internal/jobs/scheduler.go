// Package jobs runs periodic maintenance work on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context) error

// Observer is told about every job run.
type Observer func(name string, err error, elapsed time.Duration)

// Scheduler runs registered jobs until its Run context is cancelled. A run
// that is still in progress when the next tick fires is skipped.
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	observe  Observer
	ctx      context.Context
	cancel   context.CancelFunc
	jobNames map[cron.EntryID]string
}

// NewScheduler creates a scheduler. Schedules accept the standard five-field
// format and descriptors such as "@every 1h".
func NewScheduler(logger *slog.Logger, observe Observer) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "jobs")
	if observe == nil {
		observe = func(string, error, time.Duration) {}
	}
	cronLogger := cronLogAdapter{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:   logger,
		observe:  observe,
		ctx:      ctx,
		cancel:   cancel,
		jobNames: make(map[cron.EntryID]string),
	}
}

// Add registers fn to run on spec.
func (s *Scheduler) Add(spec, name string, fn JobFunc) error {
	id, err := s.cron.AddFunc(spec, func() {
		s.runJob(s.ctx, name, fn)
	})
	if err != nil {
		return fmt.Errorf("jobs: schedule %s %q: %w", name, spec, err)
	}
	s.jobNames[id] = name
	return nil
}

// RunNow runs fn once synchronously with the same logging as a scheduled run.
func (s *Scheduler) RunNow(ctx context.Context, name string, fn JobFunc) error {
	return s.runJob(ctx, name, fn)
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, entry := range s.cron.Entries() {
		s.logger.InfoContext(ctx, "job scheduled", "job", s.jobNames[entry.ID], "next", entry.Next)
	}
	s.cron.Start()
	<-ctx.Done()
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.InfoContext(context.WithoutCancel(ctx), "job scheduler stopped")
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, name string, fn JobFunc) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	s.observe(name, err, elapsed)
	if err != nil {
		s.logger.ErrorContext(ctx, "job failed", "job", name, "duration", elapsed, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "job completed", "job", name, "duration", elapsed)
	return nil
}

// cronLogAdapter routes cron's internal logging to slog.
type cronLogAdapter struct {
	logger *slog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
