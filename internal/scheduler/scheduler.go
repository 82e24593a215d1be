// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is a task run every Interval. Jobs with a zero interval are skipped.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler runs jobs on a gocron scheduler. A job never overlaps with its
// own previous run.
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	cancel    context.CancelFunc
}

func New(jobs ...Job) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, jobs: jobs}
}

// Start schedules the jobs and runs the scheduler in the background. The
// first run of each job happens one interval after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, job := range s.jobs {
		if job.Interval <= 0 {
			slog.Info("Job disabled", "job", job.Name)
			continue
		}
		_, err := s.scheduler.Every(job.Interval).WaitForSchedule().Do(func() {
			start := time.Now()
			job.Run(ctx)
			slog.Debug("Job finished", "job", job.Name, "duration", time.Since(start))
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		slog.Info("Job scheduled", "job", job.Name, "interval", job.Interval)
	}

	s.scheduler.StartAsync()
	return nil
}

// Jobs is the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return s.scheduler.Len()
}

// Stop cancels running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
}
