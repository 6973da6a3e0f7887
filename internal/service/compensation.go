package service

import (
	"context"
	"errors"
	"fmt"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/repository"
)

type compensationService struct {
	adjRepo     repository.AdjustmentRepository
	requestRepo repository.RequestRepository
	events      CapacityOwner
}

func NewCompensationService(
	adjRepo repository.AdjustmentRepository,
	requestRepo repository.RequestRepository,
	events CapacityOwner,
) CompensationService {
	return &compensationService{
		adjRepo:     adjRepo,
		requestRepo: requestRepo,
		events:      events,
	}
}

// RetryPending drives queued adjustments to the event service. An adjustment
// is applied only while it still matches the request: a RELEASE is skipped
// for a request that ended up CONFIRMED and a RESTORE for one that did not.
func (s *compensationService) RetryPending(ctx context.Context, maxAttempts, limit int) (applied, failed int, err error) {
	logger.EnterMethod("compensationService.RetryPending", "maxAttempts", maxAttempts, "limit", limit)

	adjs, err := s.adjRepo.ListPending(ctx, maxAttempts, limit)
	if err != nil {
		logger.ExitMethodWithError("compensationService.RetryPending", err)
		return 0, 0, err
	}

	for _, adj := range adjs {
		if err := ctx.Err(); err != nil {
			return applied, failed, err
		}

		if applyErr := s.apply(ctx, adj); applyErr != nil {
			failed++
			logger.Warn("Counter adjustment failed", "adjustmentID", adj.ID, "kind", adj.Kind,
				"attempt", adj.Attempts+1, "error", applyErr)
			if err := s.adjRepo.MarkFailed(ctx, adj.ID, applyErr.Error()); err != nil {
				logger.Error("Failed to record adjustment failure", "adjustmentID", adj.ID, "error", err)
			}
			continue
		}

		if err := s.adjRepo.MarkApplied(ctx, adj.ID); err != nil {
			return applied, failed, err
		}
		applied++
	}

	logger.ExitMethod("compensationService.RetryPending", "applied", applied, "failed", failed)
	return applied, failed, nil
}

// apply holds the request's row lock across the status check and the slot
// call, so a confirm or cancel of the same request cannot slip in between.
func (s *compensationService) apply(ctx context.Context, adj domain.CounterAdjustment) error {
	err := s.requestRepo.WithLock(ctx, adj.RequestID, func(req *domain.Request, _ repository.RequestTx) error {
		return s.applyTo(ctx, adj, req.Status == domain.RequestStatusConfirmed)
	})
	if errors.Is(err, domain.ErrRequestNotFound) {
		// The request was never stored, so nothing else can claim its slot.
		return s.applyTo(ctx, adj, false)
	}
	return err
}

func (s *compensationService) applyTo(ctx context.Context, adj domain.CounterAdjustment, confirmed bool) error {
	switch adj.Kind {
	case domain.AdjustmentRelease:
		if confirmed {
			logger.Info("Skipping release for confirmed request", "adjustmentID", adj.ID, "requestID", adj.RequestID)
			return nil
		}
		_, err := s.events.Release(ctx, adj.EventID, adj.RequestID)
		return err
	case domain.AdjustmentRestore:
		if !confirmed {
			logger.Info("Skipping restore for request no longer confirmed", "adjustmentID", adj.ID, "requestID", adj.RequestID)
			return nil
		}
		return s.events.Restore(ctx, adj.EventID, adj.RequestID)
	default:
		return fmt.Errorf("unknown adjustment kind %q", adj.Kind)
	}
}
