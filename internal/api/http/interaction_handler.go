package http

import (
	"context"
	"net/http"

	"ewm-participation/internal/service"

	"github.com/gorilla/mux"
)

// InteractionHandler serves the event service API used by other services.
type InteractionHandler struct {
	svc service.CapacityService
}

func NewInteractionHandler(svc service.CapacityService) *InteractionHandler {
	return &InteractionHandler{svc: svc}
}

func (h *InteractionHandler) GetAdmission(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	params, err := h.svc.GetAdmission(r.Context(), eventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

func slotKey(r *http.Request) (eventID, requestID int64, err error) {
	if eventID, err = pathID(r, "eventId"); err != nil {
		return 0, 0, err
	}
	requestID, err = pathID(r, "requestId")
	return eventID, requestID, err
}

func (h *InteractionHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	eventID, requestID, err := slotKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reserved, err := h.svc.Reserve(r.Context(), eventID, requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slotDto{Reserved: &reserved})
}

func (h *InteractionHandler) Release(w http.ResponseWriter, r *http.Request) {
	eventID, requestID, err := slotKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	released, err := h.svc.Release(r.Context(), eventID, requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slotDto{Released: &released})
}

func (h *InteractionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Increment)
}

func (h *InteractionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Decrement)
}

func (h *InteractionHandler) adjust(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, eventID, requestID int64) error) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	requestID, err := queryID(r, "requestId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := apply(r.Context(), eventID, requestID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterInteractionRoutes registers the service-to-service endpoints
func RegisterInteractionRoutes(router *mux.Router, svc service.CapacityService) {
	h := NewInteractionHandler(svc)
	router.HandleFunc("/interaction/events/{eventId}", h.GetAdmission).Methods(http.MethodGet)
	router.HandleFunc("/interaction/events/{eventId}/slots/{requestId}", h.Reserve).Methods(http.MethodPut)
	router.HandleFunc("/interaction/events/{eventId}/slots/{requestId}", h.Release).Methods(http.MethodDelete)
	router.HandleFunc("/interaction/events/{eventId}/participation/confirm", h.Confirm).Methods(http.MethodPatch)
	router.HandleFunc("/interaction/events/{eventId}/participation/reject", h.Reject).Methods(http.MethodPatch)
}
