package http

import "ewm-participation/internal/domain"

const createdLayout = "2006-01-02T15:04:05.000"

type RequestDto struct {
	ID        int64  `json:"id"`
	Created   string `json:"created"`
	Event     int64  `json:"event"`
	Requester int64  `json:"requester"`
	Status    string `json:"status"`
}

type UpdateStatusDto struct {
	RequestIDs []int64 `json:"requestIds"`
	Status     string  `json:"status"`
}

// StatusUpdateResultDto partitions the requests touched by a batch update.
// OverflowRequestIDs names the rejected requests that lost out on capacity.
type StatusUpdateResultDto struct {
	ConfirmedRequests  []RequestDto `json:"confirmedRequests"`
	RejectedRequests   []RequestDto `json:"rejectedRequests"`
	OverflowRequestIDs []int64      `json:"overflowRequestIds"`
}

type slotDto struct {
	Reserved *bool `json:"reserved,omitempty"`
	Released *bool `json:"released,omitempty"`
}

func toRequestDto(r domain.Request) RequestDto {
	return RequestDto{
		ID:        r.ID,
		Created:   r.Created.Format(createdLayout),
		Event:     r.EventID,
		Requester: r.RequesterID,
		Status:    string(r.Status),
	}
}

func toRequestDtos(reqs []domain.Request) []RequestDto {
	out := make([]RequestDto, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestDto(r))
	}
	return out
}

func toStatusUpdateResultDto(res *domain.BatchResult) StatusUpdateResultDto {
	overflow := res.Overflowed
	if overflow == nil {
		overflow = []int64{}
	}
	return StatusUpdateResultDto{
		ConfirmedRequests:  toRequestDtos(res.Confirmed),
		RejectedRequests:   toRequestDtos(res.Rejected),
		OverflowRequestIDs: overflow,
	}
}

func (d UpdateStatusDto) toDomain() (domain.StatusUpdate, error) {
	status, err := domain.ParseRequestStatus(d.Status)
	if err != nil {
		return domain.StatusUpdate{}, err
	}
	return domain.StatusUpdate{RequestIDs: d.RequestIDs, Status: status}, nil
}
