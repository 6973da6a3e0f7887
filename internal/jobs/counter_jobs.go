package jobs

import (
	"context"
	"time"

	"ewm-participation/internal/logger"
)

const jobTimeout = 2 * time.Minute

// RetryCounterAdjustments re-drives queued counter compensations against the
// event service.
func (jr *JobRunner) RetryCounterAdjustments() {
	jr.runWithRecovery("RetryCounterAdjustments", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		cfg := jr.config.Scheduler
		applied, failed, err := jr.services.Compensation.RetryPending(ctx, cfg.MaxAdjustmentAttempts, cfg.AdjustmentBatchSize)
		if err != nil {
			logger.Error("Failed to retry counter adjustments", "error", err, "applied", applied, "failed", failed)
			return
		}
		if applied > 0 || failed > 0 {
			logger.Info("Counter adjustments retried", "applied", applied, "failed", failed)
		}
	})
}

// ReconcileCounters repairs confirmed counters that drifted from the slots
// held against them.
func (jr *JobRunner) ReconcileCounters() {
	jr.runWithRecovery("ReconcileCounters", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		repaired, err := jr.services.Capacity.ReconcileCounters(ctx)
		if err != nil {
			logger.Error("Failed to reconcile counters", "error", err)
			return
		}
		if repaired > 0 {
			logger.Warn("Repaired drifted counters", "events", repaired)
		}
	})
}
