package jobs

import (
	"ewm-participation/internal/config"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds the service dependencies needed by jobs. A nil service
// disables the jobs that need it: the request service runs the compensation
// relay, the event service the counter reconciliation.
type Services struct {
	Compensation service.CompensationService
	Capacity     service.CapacityService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// Services returns the services the runner was built with
func (jr *JobRunner) Services() *Services {
	return jr.services
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Debug("Starting job", "job", jobName)
	jobFunc()
	logger.Debug("Job completed", "job", jobName)
}

// RunAll runs every job this runner has services for (for manual execution)
func (jr *JobRunner) RunAll() {
	if jr.services.Compensation != nil {
		jr.RetryCounterAdjustments()
	}
	if jr.services.Capacity != nil {
		jr.ReconcileCounters()
	}
}
