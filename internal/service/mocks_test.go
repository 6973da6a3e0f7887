package service_test

import (
	"context"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockEventRepo
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdmissionParams), args.Error(1)
}
func (m *MockEventRepo) ReserveSlot(ctx context.Context, eventID, requestID int64) (bool, error) {
	args := m.Called(ctx, eventID, requestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockEventRepo) RestoreSlot(ctx context.Context, eventID, requestID int64) (bool, error) {
	args := m.Called(ctx, eventID, requestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockEventRepo) ReleaseSlot(ctx context.Context, eventID, requestID int64) (bool, error) {
	args := m.Called(ctx, eventID, requestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockEventRepo) ListCounterDrift(ctx context.Context) ([]domain.CounterDrift, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CounterDrift), args.Error(1)
}
func (m *MockEventRepo) RepairCounter(ctx context.Context, eventID int64) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// MockRequestRepo
type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) NextID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRequestRepo) Create(ctx context.Context, req *domain.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockRequestRepo) GetByRequesterAndEvent(ctx context.Context, requesterID, eventID int64) (*domain.Request, error) {
	args := m.Called(ctx, requesterID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}
func (m *MockRequestRepo) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	args := m.Called(ctx, requesterID)
	return args.Get(0).([]domain.Request), args.Error(1)
}
func (m *MockRequestRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Request, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]domain.Request), args.Error(1)
}
func (m *MockRequestRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.Request, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Request), args.Error(1)
}
func (m *MockRequestRepo) WithLock(ctx context.Context, id int64, fn func(req *domain.Request, tx repository.RequestTx) error) error {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return args.Error(1)
	}
	req := *args.Get(0).(*domain.Request)
	return fn(&req, mockRequestTx{repo: m, id: id})
}

// mockRequestTx records writes on the owning repo as SetStatus(ctx, id, to).
type mockRequestTx struct {
	repo *MockRequestRepo
	id   int64
}

func (tx mockRequestTx) SetStatus(ctx context.Context, to domain.RequestStatus) error {
	args := tx.repo.MethodCalled("SetStatus", ctx, tx.id, to)
	return args.Error(0)
}
func (m *MockRequestRepo) UpdateStatuses(ctx context.Context, ids []int64, from, to domain.RequestStatus) error {
	args := m.Called(ctx, ids, from, to)
	return args.Error(0)
}

// MockAdjustmentRepo
type MockAdjustmentRepo struct {
	mock.Mock
}

func (m *MockAdjustmentRepo) Enqueue(ctx context.Context, adj *domain.CounterAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}
func (m *MockAdjustmentRepo) ListPending(ctx context.Context, maxAttempts, limit int) ([]domain.CounterAdjustment, error) {
	args := m.Called(ctx, maxAttempts, limit)
	return args.Get(0).([]domain.CounterAdjustment), args.Error(1)
}
func (m *MockAdjustmentRepo) MarkApplied(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAdjustmentRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

// MockCapacityOwner
type MockCapacityOwner struct {
	mock.Mock
}

func (m *MockCapacityOwner) GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdmissionParams), args.Error(1)
}
func (m *MockCapacityOwner) Reserve(ctx context.Context, eventID, requestID int64) (bool, error) {
	args := m.Called(ctx, eventID, requestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockCapacityOwner) Release(ctx context.Context, eventID, requestID int64) (bool, error) {
	args := m.Called(ctx, eventID, requestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockCapacityOwner) Restore(ctx context.Context, eventID, requestID int64) error {
	args := m.Called(ctx, eventID, requestID)
	return args.Error(0)
}
