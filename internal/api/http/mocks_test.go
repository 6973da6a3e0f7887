package http_test

import (
	"context"

	"ewm-participation/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockParticipationService struct {
	mock.Mock
}

func (m *MockParticipationService) CreateRequest(ctx context.Context, requesterID, eventID int64) (*domain.Request, error) {
	args := m.Called(ctx, requesterID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}
func (m *MockParticipationService) ListRequesterRequests(ctx context.Context, requesterID int64) ([]domain.Request, error) {
	args := m.Called(ctx, requesterID)
	return args.Get(0).([]domain.Request), args.Error(1)
}
func (m *MockParticipationService) ListEventRequests(ctx context.Context, initiatorID, eventID int64) ([]domain.Request, error) {
	args := m.Called(ctx, initiatorID, eventID)
	return args.Get(0).([]domain.Request), args.Error(1)
}
func (m *MockParticipationService) UpdateEventRequestsStatus(ctx context.Context, initiatorID, eventID int64, update domain.StatusUpdate) (*domain.BatchResult, error) {
	args := m.Called(ctx, initiatorID, eventID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}
func (m *MockParticipationService) CancelRequest(ctx context.Context, requesterID, requestID int64) (*domain.Request, error) {
	args := m.Called(ctx, requesterID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

type MockCapacityService struct {
	mock.Mock
}

func (m *MockCapacityService) GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdmissionParams), args.Error(1)
}
func (m *MockCapacityService) Reserve(ctx context.Context, eventID, requestID int64) (bool, error) {
	args := m.Called(ctx, eventID, requestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockCapacityService) Release(ctx context.Context, eventID, requestID int64) (bool, error) {
	args := m.Called(ctx, eventID, requestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockCapacityService) Increment(ctx context.Context, eventID, requestID int64) error {
	args := m.Called(ctx, eventID, requestID)
	return args.Error(0)
}
func (m *MockCapacityService) Decrement(ctx context.Context, eventID, requestID int64) error {
	args := m.Called(ctx, eventID, requestID)
	return args.Error(0)
}
func (m *MockCapacityService) ReconcileCounters(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
