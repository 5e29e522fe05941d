package domain

import (
	"fmt"
	"strings"
	"time"

	"handicraft-marketplace/backend/internal/platform/errs"
)

// RequestStatus is the lifecycle state of an agent request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestAccepted, RequestRejected},
	RequestAccepted: {RequestCompleted},
}

// Request is an artist asking for an agent in a location. AgentID is empty until an agent accepts.
type Request struct {
	ID        string
	ArtistID  string
	AgentID   string
	Status    RequestStatus
	Location  string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRequest returns a pending request for artistID.
func NewRequest(id, artistID, location, createdBy string, now time.Time) (*Request, error) {
	location = strings.TrimSpace(location)
	if strings.TrimSpace(artistID) == "" {
		return nil, fmt.Errorf("%w: artist id is required", errs.ErrInvalidArgument)
	}
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", errs.ErrInvalidArgument)
	}
	if len(location) > 255 {
		return nil, fmt.Errorf("%w: location exceeds 255 characters", errs.ErrInvalidArgument)
	}
	return &Request{
		ID:        id,
		ArtistID:  artistID,
		Status:    RequestPending,
		Location:  location,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition moves r to next. Pending requests may be accepted or rejected; accepted ones may be completed.
// Anything else fails with errs.ErrInvalidTransition and leaves r unchanged.
func (r *Request) Transition(next RequestStatus, at time.Time) error {
	for _, allowed := range requestTransitions[r.Status] {
		if allowed == next {
			r.Status = next
			r.UpdatedAt = at
			return nil
		}
	}
	return fmt.Errorf("request %s is %s, cannot become %s: %w", r.ID, r.Status, next, errs.ErrInvalidTransition)
}
