package scheduler

import (
	"time"

	"ewm-participation/internal/jobs"
	"ewm-participation/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision. A run that is
	// still going when the next tick fires is skipped.
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers the jobs the runner has services for
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler
	services := s.jobs.Services()

	if services.Compensation != nil {
		if _, err := s.cron.AddFunc(cfg.RetryCounterAdjustments, s.jobs.RetryCounterAdjustments); err != nil {
			logger.Error("Failed to register RetryCounterAdjustments job", "error", err)
		}
	}

	if services.Capacity != nil {
		if _, err := s.cron.AddFunc(cfg.ReconcileCounters, s.jobs.ReconcileCounters); err != nil {
			logger.Error("Failed to register ReconcileCounters job", "error", err)
		}
	}

	logger.Info("Cron jobs registered", "count", len(s.cron.Entries()))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
