// Package scheduler runs the periodic background jobs: the Strava import
// for every linked runner and the leaderboard reconciliation.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// Job is one unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler wraps a gocron scheduler. Failed runs are logged and wait for
// the next tick; nothing is retried.
type Scheduler struct {
	cron   gocron.Scheduler
	logger *slog.Logger
}

// New registers jobs on a fresh scheduler. Nothing runs until Start.
func New(logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: creating: %w", err)
	}
	s := &Scheduler{cron: cron, logger: logger}

	for _, job := range jobs {
		if job.Interval <= 0 {
			cron.Shutdown()
			return nil, fmt.Errorf("scheduler: job %q: interval must be positive", job.Name)
		}
		_, err := cron.NewJob(
			gocron.DurationJob(job.Interval),
			gocron.NewTask(s.run, job),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cron.Shutdown()
			return nil, fmt.Errorf("scheduler: registering %q: %w", job.Name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			slog.String("job", job.Name),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("scheduled job finished",
		slog.String("job", job.Name),
		slog.Duration("duration", time.Since(start)),
	)
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Jobs())))
}

// Shutdown stops the scheduler and waits for running jobs to return.
func (s *Scheduler) Shutdown() error {
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("scheduler: shutdown: %w", err)
	}
	return nil
}
