package domain

type EventState string

const (
	EventStatePending   EventState = "PENDING"
	EventStatePublished EventState = "PUBLISHED"
	EventStateRejected  EventState = "REJECTED"
	EventStateCanceled  EventState = "CANCELED"
)

// AdmissionParams is the slice of an event the request service needs to
// decide on a participation request. The event service owns every field.
type AdmissionParams struct {
	ID                int64      `json:"id"`
	State             EventState `json:"state"`
	ParticipantLimit  int        `json:"participantLimit"`
	RequestModeration bool       `json:"requestModeration"`
	ConfirmedRequests int        `json:"confirmedRequests"`
	InitiatorID       int64      `json:"initiatorId"`
}

// Unlimited reports whether the event accepts any number of participants.
func (p *AdmissionParams) Unlimited() bool {
	return p.ParticipantLimit == 0
}

// AutoConfirm reports whether requests skip initiator moderation.
func (p *AdmissionParams) AutoConfirm() bool {
	return p.Unlimited() || !p.RequestModeration
}

// Full reports whether the last known counter has reached the limit.
// The value may be stale; the event service makes the final call on reserve.
func (p *AdmissionParams) Full() bool {
	return p.ParticipantLimit > 0 && p.ConfirmedRequests >= p.ParticipantLimit
}

// CounterDrift describes an event whose stored counter disagrees with the
// number of slots held for it.
type CounterDrift struct {
	EventID           int64
	ConfirmedRequests int
	Slots             int
}
