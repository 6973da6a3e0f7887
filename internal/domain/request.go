package domain

import (
	"fmt"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusConfirmed RequestStatus = "CONFIRMED"
	RequestStatusCanceled  RequestStatus = "CANCELED"
	RequestStatusRejected  RequestStatus = "REJECTED"
)

// ParseRequestStatus converts a wire value into a RequestStatus.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(s); st {
	case RequestStatusPending, RequestStatusConfirmed, RequestStatusCanceled, RequestStatusRejected:
		return st, nil
	default:
		return "", ErrInvalidStatus.WithMessage(fmt.Sprintf("unknown request status %q", s))
	}
}

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCanceled || s == RequestStatusRejected
}

type Request struct {
	ID          int64         `json:"id"`
	EventID     int64         `json:"event"`
	RequesterID int64         `json:"requester"`
	Status      RequestStatus `json:"status"`
	Created     time.Time     `json:"created"`
}

// PendingRequest is a request that may still be confirmed, rejected or
// canceled. It can only be obtained through Request.AsPending.
type PendingRequest struct {
	req Request
}

// ConfirmedRequest holds a slot at the event service. Canceling it must
// release that slot.
type ConfirmedRequest struct {
	req Request
}

// AsPending narrows r to a PendingRequest.
func (r Request) AsPending() (PendingRequest, error) {
	if r.Status != RequestStatusPending {
		return PendingRequest{}, ErrInvalidRequestState.WithMessage(
			fmt.Sprintf("request %d is %s, expected %s", r.ID, r.Status, RequestStatusPending))
	}
	return PendingRequest{req: r}, nil
}

// AsConfirmed narrows r to a ConfirmedRequest.
func (r Request) AsConfirmed() (ConfirmedRequest, error) {
	if r.Status != RequestStatusConfirmed {
		return ConfirmedRequest{}, ErrInvalidTransition.WithMessage(
			fmt.Sprintf("request %d is %s, expected %s", r.ID, r.Status, RequestStatusConfirmed))
	}
	return ConfirmedRequest{req: r}, nil
}

func (p PendingRequest) ID() int64       { return p.req.ID }
func (p PendingRequest) Request() Request { return p.req }

func (p PendingRequest) Confirm() Request { return p.moveTo(RequestStatusConfirmed) }
func (p PendingRequest) Reject() Request  { return p.moveTo(RequestStatusRejected) }
func (p PendingRequest) Cancel() Request  { return p.moveTo(RequestStatusCanceled) }

func (p PendingRequest) moveTo(status RequestStatus) Request {
	r := p.req
	r.Status = status
	return r
}

func (c ConfirmedRequest) ID() int64       { return c.req.ID }
func (c ConfirmedRequest) EventID() int64  { return c.req.EventID }
func (c ConfirmedRequest) Request() Request { return c.req }

// Cancel returns the canceled request. The caller is responsible for
// releasing the slot before persisting it.
func (c ConfirmedRequest) Cancel() Request {
	r := c.req
	r.Status = RequestStatusCanceled
	return r
}

// StatusUpdate is an initiator's decision on a set of pending requests.
type StatusUpdate struct {
	RequestIDs []int64
	Status     RequestStatus
}

// BatchResult partitions the requests touched by a StatusUpdate. Overflowed
// lists the ids that were rejected because the limit was reached mid-batch;
// each of them also appears in Rejected.
type BatchResult struct {
	Confirmed  []Request
	Rejected   []Request
	Overflowed []int64
}
