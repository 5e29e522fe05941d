package domain

import (
	"fmt"
	"time"

	"handicraft-marketplace/backend/internal/platform/errs"
)

// Relation pairs an agent profile with an artist profile. Rows are never deleted;
// deactivation keeps the history of who assigned what.
type Relation struct {
	ID            string
	AgentID       string
	ArtistID      string
	AssignedBy    string
	AssignedAt    time.Time
	IsActive      bool
	DeactivatedAt *time.Time
}

// CapacityExceededError is returned when an agent already manages MaxArtists active artists.
type CapacityExceededError struct {
	AgentID string
	Active  int
	Max     int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("agent %s manages %d of %d artists: %v", e.AgentID, e.Active, e.Max, errs.ErrCapacityExceeded)
}

func (e *CapacityExceededError) Unwrap() error {
	return errs.ErrCapacityExceeded
}
