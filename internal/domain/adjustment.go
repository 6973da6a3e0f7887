package domain

import "time"

type AdjustmentKind string

const (
	// AdjustmentRelease gives a slot back to the event.
	AdjustmentRelease AdjustmentKind = "RELEASE"
	// AdjustmentRestore takes a slot again for a request that is still CONFIRMED.
	AdjustmentRestore AdjustmentKind = "RESTORE"
)

// CounterAdjustment is a queued compensation for the event counter, keyed by
// the participation request that caused it.
type CounterAdjustment struct {
	ID        int64          `json:"id"`
	EventID   int64          `json:"event_id"`
	RequestID int64          `json:"request_id"`
	Kind      AdjustmentKind `json:"kind"`
	Attempts  int            `json:"attempts"`
	LastError string         `json:"last_error,omitempty"`
	CreatedOn time.Time      `json:"created_on"`
	AppliedOn *time.Time     `json:"applied_on,omitempty"`
}
