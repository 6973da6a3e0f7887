package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindValidation:
		return "BAD_REQUEST"
	case KindUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// Error is the error type shared by both services. Two errors are the same
// (for errors.Is) when their reasons match, so a message can be refined with
// WithMessage without losing identity.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// NewError builds an error from its parts, typically when decoding a remote
// error response.
func NewError(kind ErrorKind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

var (
	ErrEventNotFound   = &Error{Kind: KindNotFound, Reason: "EVENT_NOT_FOUND", Message: "event not found"}
	ErrRequestNotFound = &Error{Kind: KindNotFound, Reason: "REQUEST_NOT_FOUND", Message: "participation request not found"}
)

var (
	ErrSelfParticipation = &Error{Kind: KindForbidden, Reason: "SELF_PARTICIPATION_FORBIDDEN", Message: "initiator cannot request participation in own event"}
	ErrNotInitiator      = &Error{Kind: KindForbidden, Reason: "NOT_EVENT_INITIATOR", Message: "only the event initiator can manage its requests"}
	ErrNotRequester      = &Error{Kind: KindForbidden, Reason: "NOT_REQUESTER", Message: "only the requester can cancel a request"}
	ErrUnauthorized      = &Error{Kind: KindForbidden, Reason: "UNAUTHORIZED_SERVICE", Message: "service token is missing or invalid"}
)

var (
	ErrEventNotPublished   = &Error{Kind: KindConflict, Reason: "EVENT_NOT_PUBLISHED", Message: "event is not published"}
	ErrDuplicateRequest    = &Error{Kind: KindConflict, Reason: "DUPLICATE_REQUEST", Message: "participation request already exists"}
	ErrCapacityExceeded    = &Error{Kind: KindConflict, Reason: "CAPACITY_EXCEEDED", Message: "participant limit reached"}
	ErrInvalidRequestState = &Error{Kind: KindConflict, Reason: "INVALID_REQUEST_STATE", Message: "request is not in a state that allows this change"}
	ErrInvalidTransition   = &Error{Kind: KindConflict, Reason: "INVALID_TRANSITION", Message: "status transition is not allowed"}
	ErrInvalidStatus       = &Error{Kind: KindConflict, Reason: "INVALID_STATUS", Message: "status must be CONFIRMED or REJECTED"}
)

var (
	ErrValidation  = &Error{Kind: KindValidation, Reason: "VALIDATION_FAILED", Message: "validation error"}
	ErrUnavailable = &Error{Kind: KindUnavailable, Reason: "CAPACITY_OWNER_UNAVAILABLE", Message: "event service is unavailable"}
)

// Unavailable wraps a transport failure talking to the event service.
func Unavailable(err error) error {
	return &Error{Kind: KindUnavailable, Reason: ErrUnavailable.Reason, Message: ErrUnavailable.Message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
