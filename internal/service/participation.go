package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/repository"
)

type participationService struct {
	requestRepo repository.RequestRepository
	adjRepo     repository.AdjustmentRepository
	events      CapacityOwner
}

func NewParticipationService(
	requestRepo repository.RequestRepository,
	adjRepo repository.AdjustmentRepository,
	events CapacityOwner,
) ParticipationService {
	return &participationService{
		requestRepo: requestRepo,
		adjRepo:     adjRepo,
		events:      events,
	}
}

func (s *participationService) CreateRequest(ctx context.Context, requesterID, eventID int64) (*domain.Request, error) {
	logger.EnterMethod("participationService.CreateRequest", "requesterID", requesterID, "eventID", eventID)

	params, err := s.events.GetAdmission(ctx, eventID)
	if err != nil {
		logger.ExitMethodWithError("participationService.CreateRequest", err, "eventID", eventID)
		return nil, err
	}

	if params.State != domain.EventStatePublished {
		return nil, domain.ErrEventNotPublished.WithMessage(
			fmt.Sprintf("event %d is %s, requests are only accepted for published events", eventID, params.State))
	}
	if params.InitiatorID == requesterID {
		return nil, domain.ErrSelfParticipation
	}

	_, err = s.requestRepo.GetByRequesterAndEvent(ctx, requesterID, eventID)
	if err == nil {
		return nil, domain.ErrDuplicateRequest.WithMessage(
			fmt.Sprintf("user %d already has a request for event %d", requesterID, eventID))
	}
	if !errors.Is(err, domain.ErrRequestNotFound) {
		return nil, err
	}

	// Cheap rejection on the last known counter. Reserve below is authoritative.
	if params.Full() {
		return nil, domain.ErrCapacityExceeded.WithMessage(
			fmt.Sprintf("event %d has reached its limit of %d participants", eventID, params.ParticipantLimit))
	}

	id, err := s.requestRepo.NextID(ctx)
	if err != nil {
		return nil, err
	}

	req := &domain.Request{
		ID:          id,
		EventID:     eventID,
		RequesterID: requesterID,
		Status:      domain.RequestStatusPending,
		Created:     time.Now().UTC(),
	}
	if params.AutoConfirm() {
		req.Status = domain.RequestStatusConfirmed
	}

	// Unlimited events carry no slots.
	reserved := false
	if req.Status == domain.RequestStatusConfirmed && !params.Unlimited() {
		ok, err := s.events.Reserve(ctx, eventID, id)
		if err != nil {
			if errors.Is(err, domain.ErrUnavailable) {
				// The reservation may have landed; the relay releases it later.
				s.enqueue(ctx, eventID, id, domain.AdjustmentRelease)
			}
			logger.ExitMethodWithError("participationService.CreateRequest", err, "eventID", eventID, "requestID", id)
			return nil, err
		}
		if !ok {
			return nil, domain.ErrCapacityExceeded.WithMessage(
				fmt.Sprintf("event %d has reached its limit of %d participants", eventID, params.ParticipantLimit))
		}
		reserved = true
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		if reserved {
			s.compensate(ctx, eventID, id, domain.AdjustmentRelease)
		}
		logger.ExitMethodWithError("participationService.CreateRequest", err, "eventID", eventID, "requestID", id)
		return nil, err
	}

	logger.InfoContext(ctx, "Participation request created",
		"requestID", req.ID, "eventID", eventID, "requesterID", requesterID, "status", req.Status)
	logger.ExitMethod("participationService.CreateRequest", "requestID", req.ID, "status", req.Status)
	return req, nil
}

func (s *participationService) ListRequesterRequests(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	return s.requestRepo.ListByRequester(ctx, requesterID)
}

func (s *participationService) ListEventRequests(ctx context.Context, initiatorID, eventID int64) ([]domain.Request, error) {
	params, err := s.events.GetAdmission(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if params.InitiatorID != initiatorID {
		return nil, domain.ErrNotInitiator
	}
	return s.requestRepo.ListByEvent(ctx, eventID)
}

func (s *participationService) UpdateEventRequestsStatus(ctx context.Context, initiatorID, eventID int64, update domain.StatusUpdate) (*domain.BatchResult, error) {
	logger.EnterMethod("participationService.UpdateEventRequestsStatus",
		"initiatorID", initiatorID, "eventID", eventID, "status", update.Status, "count", len(update.RequestIDs))

	if update.Status != domain.RequestStatusConfirmed && update.Status != domain.RequestStatusRejected {
		return nil, domain.ErrInvalidStatus.WithMessage(
			fmt.Sprintf("status must be CONFIRMED or REJECTED, got %q", update.Status))
	}
	if len(update.RequestIDs) == 0 {
		return nil, domain.ErrValidation.WithMessage("requestIds must not be empty")
	}
	seen := make(map[int64]bool, len(update.RequestIDs))
	for _, id := range update.RequestIDs {
		if seen[id] {
			return nil, domain.ErrValidation.WithMessage(fmt.Sprintf("request %d is listed more than once", id))
		}
		seen[id] = true
	}

	params, err := s.events.GetAdmission(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if params.InitiatorID != initiatorID {
		return nil, domain.ErrNotInitiator
	}

	found, err := s.requestRepo.ListByIDs(ctx, update.RequestIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Request, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	ordered := make([]domain.Request, 0, len(update.RequestIDs))
	for _, id := range update.RequestIDs {
		r, ok := byID[id]
		if !ok {
			return nil, domain.ErrRequestNotFound.WithMessage(fmt.Sprintf("request %d not found", id))
		}
		if r.EventID != eventID {
			return nil, domain.ErrInvalidRequestState.WithMessage(
				fmt.Sprintf("request %d does not belong to event %d", id, eventID))
		}
		ordered = append(ordered, r)
	}

	result := &domain.BatchResult{}

	// Auto-confirming events have nothing to moderate.
	if params.AutoConfirm() {
		result.Confirmed = ordered
		logger.ExitMethod("participationService.UpdateEventRequestsStatus", "eventID", eventID, "passThrough", true)
		return result, nil
	}

	pending := make([]domain.PendingRequest, 0, len(ordered))
	for _, r := range ordered {
		p, err := r.AsPending()
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}

	if update.Status == domain.RequestStatusRejected {
		if err := s.requestRepo.UpdateStatuses(ctx, update.RequestIDs, domain.RequestStatusPending, domain.RequestStatusRejected); err != nil {
			return nil, err
		}
		for _, p := range pending {
			result.Rejected = append(result.Rejected, p.Reject())
		}
		logger.InfoContext(ctx, "Participation requests rejected", "eventID", eventID, "count", len(result.Rejected))
		logger.ExitMethod("participationService.UpdateEventRequestsStatus", "eventID", eventID, "rejected", len(result.Rejected))
		return result, nil
	}

	// Nothing can be confirmed on the last known counter. Failing here keeps
	// the pending queue intact instead of rejecting all of it as overflow.
	if params.Full() {
		return nil, domain.ErrCapacityExceeded.WithMessage(
			fmt.Sprintf("event %d has reached its limit of %d participants", eventID, params.ParticipantLimit))
	}

	if err := s.confirmInOrder(ctx, eventID, pending, result); err != nil {
		logger.ExitMethodWithError("participationService.UpdateEventRequestsStatus", err, "eventID", eventID,
			"confirmed", len(result.Confirmed), "rejected", len(result.Rejected))
		return nil, err
	}

	logger.InfoContext(ctx, "Participation requests moderated", "eventID", eventID,
		"confirmed", len(result.Confirmed), "rejected", len(result.Rejected), "overflowed", len(result.Overflowed))
	logger.ExitMethod("participationService.UpdateEventRequestsStatus", "eventID", eventID,
		"confirmed", len(result.Confirmed), "rejected", len(result.Rejected))
	return result, nil
}

// confirmInOrder reserves a slot per request in submission order. Once a
// reservation is refused the rest of the batch is rejected as overflow.
// Each request is decided under its row lock and persisted before the next.
func (s *participationService) confirmInOrder(ctx context.Context, eventID int64, pending []domain.PendingRequest, result *domain.BatchResult) error {
	full := false
	for _, p := range pending {
		var decided domain.Request
		reserved := false

		err := s.requestRepo.WithLock(ctx, p.ID(), func(req *domain.Request, tx repository.RequestTx) error {
			cur, err := req.AsPending()
			if err != nil {
				return err
			}
			if !full {
				ok, err := s.events.Reserve(ctx, eventID, cur.ID())
				if err != nil {
					if errors.Is(err, domain.ErrUnavailable) {
						// The reservation may have landed; the relay releases it later.
						s.enqueue(ctx, eventID, cur.ID(), domain.AdjustmentRelease)
					}
					return err
				}
				reserved = ok
				full = !ok
			}

			decided = cur.Reject()
			if reserved {
				decided = cur.Confirm()
			}
			if err := tx.SetStatus(ctx, decided.Status); err != nil {
				if reserved {
					s.compensate(ctx, eventID, cur.ID(), domain.AdjustmentRelease)
					reserved = false
				}
				return err
			}
			return nil
		})
		if err != nil {
			if reserved {
				// The slot is held but the commit failed.
				s.enqueue(ctx, eventID, p.ID(), domain.AdjustmentRelease)
			}
			return err
		}

		if reserved {
			result.Confirmed = append(result.Confirmed, decided)
		} else {
			result.Rejected = append(result.Rejected, decided)
			result.Overflowed = append(result.Overflowed, decided.ID)
		}
	}
	return nil
}

func (s *participationService) CancelRequest(ctx context.Context, requesterID, requestID int64) (*domain.Request, error) {
	logger.EnterMethod("participationService.CancelRequest", "requesterID", requesterID, "requestID", requestID)

	var (
		canceled domain.Request
		from     domain.RequestStatus
		released bool
	)
	err := s.requestRepo.WithLock(ctx, requestID, func(req *domain.Request, tx repository.RequestTx) error {
		if req.RequesterID != requesterID {
			return domain.ErrNotRequester
		}
		from = req.Status

		switch req.Status {
		case domain.RequestStatusCanceled:
			canceled = *req
			return nil

		case domain.RequestStatusPending:
			p, err := req.AsPending()
			if err != nil {
				return err
			}
			canceled = p.Cancel()
			return tx.SetStatus(ctx, canceled.Status)

		case domain.RequestStatusConfirmed:
			c, err := req.AsConfirmed()
			if err != nil {
				return err
			}
			canceled = c.Cancel()
			released, err = s.releaseSlot(ctx, c)
			if err != nil {
				return err
			}
			if err := tx.SetStatus(ctx, canceled.Status); err != nil {
				if released {
					s.compensate(ctx, c.EventID(), c.ID(), domain.AdjustmentRestore)
					released = false
				}
				return err
			}
			return nil

		default:
			return domain.ErrInvalidTransition.WithMessage(
				fmt.Sprintf("request %d is %s and cannot be canceled", requestID, req.Status))
		}
	})
	if err != nil {
		if released {
			// The slot is gone but the commit failed.
			s.enqueue(ctx, canceled.EventID, requestID, domain.AdjustmentRestore)
		}
		logger.ExitMethodWithError("participationService.CancelRequest", err, "requestID", requestID)
		return nil, err
	}

	if from != domain.RequestStatusCanceled {
		logger.InfoContext(ctx, "Participation request canceled",
			"requestID", requestID, "eventID", canceled.EventID, "from", from, "released", released)
	}
	logger.ExitMethod("participationService.CancelRequest", "requestID", requestID)
	return &canceled, nil
}

// releaseSlot gives the slot of a confirmed request back before the
// cancellation is recorded, so a failed release leaves the request untouched.
// Unlimited events hold no slots.
func (s *participationService) releaseSlot(ctx context.Context, c domain.ConfirmedRequest) (bool, error) {
	params, err := s.events.GetAdmission(ctx, c.EventID())
	if err != nil {
		return false, err
	}
	if params.Unlimited() {
		return false, nil
	}
	return s.events.Release(ctx, c.EventID(), c.ID())
}

// compensate undoes a slot change whose request write failed. It tries the
// event service once and falls back to the adjustment outbox.
func (s *participationService) compensate(ctx context.Context, eventID, requestID int64, kind domain.AdjustmentKind) {
	ctx = context.WithoutCancel(ctx)

	var err error
	switch kind {
	case domain.AdjustmentRelease:
		_, err = s.events.Release(ctx, eventID, requestID)
	case domain.AdjustmentRestore:
		err = s.events.Restore(ctx, eventID, requestID)
	}
	if err == nil {
		logger.WarnContext(ctx, "Counter compensated", "kind", kind, "eventID", eventID, "requestID", requestID)
		return
	}

	logger.WarnContext(ctx, "Counter compensation failed, queueing", "kind", kind,
		"eventID", eventID, "requestID", requestID, "error", err)
	s.enqueue(ctx, eventID, requestID, kind)
}

func (s *participationService) enqueue(ctx context.Context, eventID, requestID int64, kind domain.AdjustmentKind) {
	adj := &domain.CounterAdjustment{
		EventID:   eventID,
		RequestID: requestID,
		Kind:      kind,
	}
	if err := s.adjRepo.Enqueue(context.WithoutCancel(ctx), adj); err != nil {
		logger.ErrorContext(ctx, "Failed to queue counter adjustment",
			"kind", kind, "eventID", eventID, "requestID", requestID, "error", err)
		return
	}
	logger.WarnContext(ctx, "Counter adjustment queued", "adjustmentID", adj.ID, "kind", kind,
		"eventID", eventID, "requestID", requestID)
}
