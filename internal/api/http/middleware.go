package http

import (
	"net/http"
	"strings"
	"time"

	"ewm-participation/internal/config"
	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates the caller's correlation id or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

// Recover turns a handler panic into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.ErrorContext(r.Context(), "Handler panicked", "path", r.URL.Path, "panic", p)
				writeError(w, r, &domain.Error{Kind: domain.KindInternal, Reason: "INTERNAL_ERROR", Message: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ServiceAuth requires a valid service token on routes whose security level
// is config.SecurityService.
type ServiceAuth struct {
	tokenManager security.TokenManager
}

func NewServiceAuth(tm security.TokenManager) *ServiceAuth {
	return &ServiceAuth{tokenManager: tm}
}

func (a *ServiceAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.GetSecurityLevel(r.URL.Path) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, r, domain.ErrUnauthorized.WithMessage("authorization token is not provided"))
			return
		}
		claims, err := a.tokenManager.ValidateServiceToken(token)
		if err != nil {
			writeError(w, r, domain.ErrUnauthorized.WithMessage("invalid token: "+err.Error()))
			return
		}

		logger.DebugContext(r.Context(), "Service call authenticated", "caller", claims.Service, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return token
}

// Use installs the middleware chain shared by both services.
func Use(router *mux.Router, tm security.TokenManager) {
	router.Use(Recover, RequestID, AccessLog, NewServiceAuth(tm).Middleware)
}
