package service

import (
	"context"

	"ewm-participation/internal/domain"
)

// CapacityService is the event service side: it owns the confirmed counter
// and the slots held against it.
type CapacityService interface {
	GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error)
	Reserve(ctx context.Context, eventID, requestID int64) (bool, error)
	Release(ctx context.Context, eventID, requestID int64) (bool, error)
	Increment(ctx context.Context, eventID, requestID int64) error
	Decrement(ctx context.Context, eventID, requestID int64) error
	ReconcileCounters(ctx context.Context) (int, error) // returns number of events repaired
}

type ParticipationService interface {
	CreateRequest(ctx context.Context, requesterID, eventID int64) (*domain.Request, error)
	ListRequesterRequests(ctx context.Context, requesterID int64) ([]domain.Request, error)
	ListEventRequests(ctx context.Context, initiatorID, eventID int64) ([]domain.Request, error)
	UpdateEventRequestsStatus(ctx context.Context, initiatorID, eventID int64, update domain.StatusUpdate) (*domain.BatchResult, error)
	CancelRequest(ctx context.Context, requesterID, requestID int64) (*domain.Request, error)
}

type CompensationService interface {
	RetryPending(ctx context.Context, maxAttempts, limit int) (applied, failed int, err error)
}

// CapacityOwner is how the request service reaches the event service. Every
// slot call is keyed by request id and safe to repeat.
type CapacityOwner interface {
	GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error)
	Reserve(ctx context.Context, eventID, requestID int64) (bool, error)
	Release(ctx context.Context, eventID, requestID int64) (bool, error)
	Restore(ctx context.Context, eventID, requestID int64) error
}
