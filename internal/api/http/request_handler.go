package http

import (
	"encoding/json"
	"net/http"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/service"

	"github.com/gorilla/mux"
)

// RequestHandler serves the public participation request API.
type RequestHandler struct {
	svc service.ParticipationService
}

func NewRequestHandler(svc service.ParticipationService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eventID, err := queryID(r, "eventId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	req, err := h.svc.CreateRequest(r.Context(), userID, eventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDto(*req))
}

func (h *RequestHandler) ListForRequester(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reqs, err := h.svc.ListRequesterRequests(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDtos(reqs))
}

func (h *RequestHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reqs, err := h.svc.ListEventRequests(r.Context(), userID, eventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDtos(reqs))
}

func (h *RequestHandler) UpdateStatuses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body UpdateStatusDto
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, domain.ErrValidation.WithMessage("malformed request body"))
		return
	}
	update, err := body.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.UpdateEventRequestsStatus(r.Context(), userID, eventID, update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusUpdateResultDto(res))
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	req, err := h.svc.CancelRequest(r.Context(), userID, requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDto(*req))
}

// RegisterRequestRoutes registers the participation request endpoints
func RegisterRequestRoutes(router *mux.Router, svc service.ParticipationService) {
	h := NewRequestHandler(svc)
	router.HandleFunc("/users/{userId}/requests", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/users/{userId}/requests", h.ListForRequester).Methods(http.MethodGet)
	router.HandleFunc("/users/{userId}/requests/{requestId}/cancel", h.Cancel).Methods(http.MethodPatch)
	router.HandleFunc("/users/{userId}/events/{eventId}/requests", h.ListForEvent).Methods(http.MethodGet)
	router.HandleFunc("/users/{userId}/events/{eventId}/requests", h.UpdateStatuses).Methods(http.MethodPatch)
}
