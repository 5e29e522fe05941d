package domain

import (
	"errors"
	"strings"
	"time"
)

// User is an account owned by the identity service. This module only reads users;
// Create exists for the seed tool.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return errors.New("id is required")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
