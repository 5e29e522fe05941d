package domain

import (
	"errors"
	"strings"
	"time"
)

// Product is a listing owned by exactly one artist profile. Deletion is soft: IsActive flips to false.
type Product struct {
	ID         string
	ArtistID   string
	Name       string
	PriceCents int64
	IsActive   bool
	CreatedAt  time.Time
}

// Validate validates the product for persistence.
func (p *Product) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.ArtistID == "" {
		return errors.New("artist id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.PriceCents < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

// Owner identifies who owns a product: the artist profile and its underlying user.
type Owner struct {
	ArtistID string
	UserID   string
}
