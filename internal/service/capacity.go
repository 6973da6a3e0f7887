package service

import (
	"context"
	"fmt"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/repository"
)

type capacityService struct {
	eventRepo repository.EventRepository
}

func NewCapacityService(eventRepo repository.EventRepository) CapacityService {
	return &capacityService{eventRepo: eventRepo}
}

func validateSlotKey(eventID, requestID int64) error {
	if eventID <= 0 || requestID <= 0 {
		return domain.ErrValidation.WithMessage(
			fmt.Sprintf("event id and request id must be positive, got %d and %d", eventID, requestID))
	}
	return nil
}

func (s *capacityService) GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error) {
	return s.eventRepo.GetAdmission(ctx, eventID)
}

func (s *capacityService) Reserve(ctx context.Context, eventID, requestID int64) (bool, error) {
	logger.EnterMethod("capacityService.Reserve", "eventID", eventID, "requestID", requestID)
	if err := validateSlotKey(eventID, requestID); err != nil {
		return false, err
	}

	reserved, err := s.eventRepo.ReserveSlot(ctx, eventID, requestID)
	if err != nil {
		logger.ExitMethodWithError("capacityService.Reserve", err, "eventID", eventID, "requestID", requestID)
		return false, err
	}
	if reserved {
		logger.InfoContext(ctx, "Slot reserved", "eventID", eventID, "requestID", requestID)
	}
	logger.ExitMethod("capacityService.Reserve", "eventID", eventID, "requestID", requestID, "reserved", reserved)
	return reserved, nil
}

func (s *capacityService) Release(ctx context.Context, eventID, requestID int64) (bool, error) {
	logger.EnterMethod("capacityService.Release", "eventID", eventID, "requestID", requestID)
	if err := validateSlotKey(eventID, requestID); err != nil {
		return false, err
	}

	released, err := s.eventRepo.ReleaseSlot(ctx, eventID, requestID)
	if err != nil {
		logger.ExitMethodWithError("capacityService.Release", err, "eventID", eventID, "requestID", requestID)
		return false, err
	}
	if released {
		logger.InfoContext(ctx, "Slot released", "eventID", eventID, "requestID", requestID)
	}
	logger.ExitMethod("capacityService.Release", "eventID", eventID, "requestID", requestID, "released", released)
	return released, nil
}

// Increment takes a slot for requestID regardless of the limit. It is used to
// restore a slot for a request that is still confirmed.
func (s *capacityService) Increment(ctx context.Context, eventID, requestID int64) error {
	if err := validateSlotKey(eventID, requestID); err != nil {
		return err
	}
	restored, err := s.eventRepo.RestoreSlot(ctx, eventID, requestID)
	if err != nil {
		return err
	}
	if restored {
		logger.WarnContext(ctx, "Slot restored without limit check", "eventID", eventID, "requestID", requestID)
	}
	return nil
}

func (s *capacityService) Decrement(ctx context.Context, eventID, requestID int64) error {
	_, err := s.Release(ctx, eventID, requestID)
	return err
}

func (s *capacityService) ReconcileCounters(ctx context.Context) (int, error) {
	drifts, err := s.eventRepo.ListCounterDrift(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, d := range drifts {
		logger.Warn("Confirmed counter drifted from held slots",
			"eventID", d.EventID, "counter", d.ConfirmedRequests, "slots", d.Slots)
		if err := s.eventRepo.RepairCounter(ctx, d.EventID); err != nil {
			logger.Error("Failed to repair counter", "eventID", d.EventID, "error", err)
			continue
		}
		repaired++
	}
	return repaired, nil
}
