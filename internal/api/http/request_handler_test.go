package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpapi "ewm-participation/internal/api/http"
	"ewm-participation/internal/domain"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRequestRouter(svc *MockParticipationService) *mux.Router {
	router := mux.NewRouter()
	httpapi.RegisterRequestRoutes(router, svc)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestHandler_Create(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 30, 15, 123000000, time.UTC)

	t.Run("Success", func(t *testing.T) {
		svc := new(MockParticipationService)
		svc.On("CreateRequest", mock.Anything, int64(2), int64(10)).Return(&domain.Request{
			ID: 7, EventID: 10, RequesterID: 2, Status: domain.RequestStatusPending, Created: created,
		}, nil)

		rec := serve(newRequestRouter(svc), http.MethodPost, "/users/2/requests?eventId=10", "")
		require.Equal(t, http.StatusCreated, rec.Code)

		var dto httpapi.RequestDto
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, httpapi.RequestDto{
			ID: 7, Created: "2026-05-01T12:30:15.123", Event: 10, Requester: 2, Status: "PENDING",
		}, dto)
	})

	t.Run("MissingEventID", func(t *testing.T) {
		svc := new(MockParticipationService)
		rec := serve(newRequestRouter(svc), http.MethodPost, "/users/2/requests", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ErrorEnvelope", func(t *testing.T) {
		svc := new(MockParticipationService)
		svc.On("CreateRequest", mock.Anything, int64(1), int64(10)).Return(nil, domain.ErrSelfParticipation)

		rec := serve(newRequestRouter(svc), http.MethodPost, "/users/1/requests?eventId=10", "")
		require.Equal(t, http.StatusForbidden, rec.Code)

		var apiErr httpapi.ApiError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		assert.Equal(t, "FORBIDDEN", apiErr.Status)
		assert.Equal(t, "SELF_PARTICIPATION_FORBIDDEN", apiErr.Reason)
		_, err := time.Parse("2006-01-02 15:04:05", apiErr.Timestamp)
		assert.NoError(t, err)
	})
}

func TestRequestHandler_ErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrEventNotFound, http.StatusNotFound},
		{domain.ErrDuplicateRequest, http.StatusConflict},
		{domain.ErrCapacityExceeded, http.StatusConflict},
		{domain.Unavailable(assert.AnError), http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		svc := new(MockParticipationService)
		svc.On("CreateRequest", mock.Anything, int64(2), int64(10)).Return(nil, tt.err)

		rec := serve(newRequestRouter(svc), http.MethodPost, "/users/2/requests?eventId=10", "")
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}
}

func TestRequestHandler_UpdateStatuses(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockParticipationService)
		update := domain.StatusUpdate{RequestIDs: []int64{1, 2, 3}, Status: domain.RequestStatusConfirmed}
		svc.On("UpdateEventRequestsStatus", mock.Anything, int64(1), int64(10), update).Return(&domain.BatchResult{
			Confirmed:  []domain.Request{{ID: 1, Status: domain.RequestStatusConfirmed}, {ID: 2, Status: domain.RequestStatusConfirmed}},
			Rejected:   []domain.Request{{ID: 3, Status: domain.RequestStatusRejected}},
			Overflowed: []int64{3},
		}, nil)

		rec := serve(newRequestRouter(svc), http.MethodPatch, "/users/1/events/10/requests",
			`{"requestIds":[1,2,3],"status":"CONFIRMED"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var dto httpapi.StatusUpdateResultDto
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Len(t, dto.ConfirmedRequests, 2)
		assert.Len(t, dto.RejectedRequests, 1)
		assert.Equal(t, []int64{3}, dto.OverflowRequestIDs)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		svc := new(MockParticipationService)
		rec := serve(newRequestRouter(svc), http.MethodPatch, "/users/1/events/10/requests",
			`{"requestIds":[1],"status":"MAYBE"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		svc := new(MockParticipationService)
		rec := serve(newRequestRouter(svc), http.MethodPatch, "/users/1/events/10/requests", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRequestHandler_CancelAndList(t *testing.T) {
	svc := new(MockParticipationService)
	svc.On("CancelRequest", mock.Anything, int64(2), int64(7)).
		Return(&domain.Request{ID: 7, Status: domain.RequestStatusCanceled}, nil)
	svc.On("ListRequesterRequests", mock.Anything, int64(2)).
		Return([]domain.Request{}, nil)
	svc.On("ListEventRequests", mock.Anything, int64(1), int64(10)).
		Return([]domain.Request{{ID: 7}}, nil)
	router := newRequestRouter(svc)

	rec := serve(router, http.MethodPatch, "/users/2/requests/7/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELED"`)

	rec = serve(router, http.MethodGet, "/users/2/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/users/1/events/10/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
