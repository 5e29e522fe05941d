package domain

import (
	"fmt"
	"time"

	"handicraft-marketplace/backend/internal/platform/errs"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
)

// ErrAssignmentNotFound is returned when revoking a role the user does not hold. It matches errs.ErrNotFound.
var ErrAssignmentNotFound = fmt.Errorf("role assignment: %w", errs.ErrNotFound)

// Assignment grants Role to UserID. The pair is unique.
type Assignment struct {
	UserID     string
	Role       roledomain.Role
	AssignedAt time.Time
	AssignedBy string
}
