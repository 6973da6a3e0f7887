package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"

	"github.com/gorilla/mux"
)

const apiErrorTimeLayout = "2006-01-02 15:04:05"

// ApiError is the error envelope returned by every endpoint.
type ApiError struct {
	Status    string   `json:"status"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	Timestamp string   `json:"timestamp"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := ApiError{
		Status:    domain.KindInternal.String(),
		Reason:    "INTERNAL_ERROR",
		Message:   "internal server error",
		Timestamp: time.Now().Format(apiErrorTimeLayout),
	}

	var de *domain.Error
	if errors.As(err, &de) {
		apiErr.Status = de.Kind.String()
		apiErr.Reason = de.Reason
		apiErr.Message = de.Message
		if de.Err != nil {
			apiErr.Errors = []string{de.Err.Error()}
		}
	}

	status := statusFor(domain.KindOf(err))
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, apiErr)
}

// pathID reads a positive integer path variable.
func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, mux.Vars(r)[name])
}

// queryID reads a required positive integer query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	return parseID(name, r.URL.Query().Get(name))
}

func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, domain.ErrValidation.WithMessage(name + " is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation.WithMessage(name + " must be a positive integer")
	}
	return id, nil
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RegisterHealthRoutes exposes GET /health.
func RegisterHealthRoutes(router *mux.Router, db HealthChecker) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	}).Methods(http.MethodGet)
}
