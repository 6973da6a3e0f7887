package repository

import (
	"context"

	"ewm-participation/internal/domain"
)

// EventRepository is the event service's view of event rows and the slots
// held against them. Every slot method is idempotent per (eventID, requestID).
type EventRepository interface {
	GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error)

	// ReserveSlot takes a slot only while the limit allows it.
	ReserveSlot(ctx context.Context, eventID, requestID int64) (bool, error)
	// RestoreSlot takes a slot without checking the limit.
	RestoreSlot(ctx context.Context, eventID, requestID int64) (bool, error)
	ReleaseSlot(ctx context.Context, eventID, requestID int64) (bool, error)

	ListCounterDrift(ctx context.Context) ([]domain.CounterDrift, error)
	RepairCounter(ctx context.Context, eventID int64) error
}

type RequestRepository interface {
	// NextID allocates an id before the request is stored so it can key
	// calls to the event service.
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, req *domain.Request) error
	GetByRequesterAndEvent(ctx context.Context, requesterID, eventID int64) (*domain.Request, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Request, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Request, error)

	// WithLock loads the request FOR UPDATE and runs fn while the row stays
	// locked. Changes made through tx commit only if fn returns nil. Every
	// slot call made on behalf of a stored request happens inside fn.
	WithLock(ctx context.Context, id int64, fn func(req *domain.Request, tx RequestTx) error) error
	// UpdateStatuses moves a set of requests from `from` to `to` in one
	// transaction, failing with domain.ErrInvalidTransition if any of them
	// is no longer in `from`.
	UpdateStatuses(ctx context.Context, ids []int64, from, to domain.RequestStatus) error
}

// RequestTx writes to a request locked by RequestRepository.WithLock.
type RequestTx interface {
	SetStatus(ctx context.Context, to domain.RequestStatus) error
}

// AdjustmentRepository is the outbox of counter compensations.
type AdjustmentRepository interface {
	Enqueue(ctx context.Context, adj *domain.CounterAdjustment) error
	ListPending(ctx context.Context, maxAttempts, limit int) ([]domain.CounterAdjustment, error)
	MarkApplied(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}
