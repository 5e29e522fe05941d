package domain

import (
	"fmt"
	"strings"
	"time"

	"handicraft-marketplace/backend/internal/platform/errs"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
)

// DefaultMaxArtists is the capacity of an agent profile when none is configured.
const DefaultMaxArtists = 10

// Defaults written when the artist role is granted.
const (
	DefaultArtistBio            = "I create beautiful handmade products"
	DefaultArtistSpecialization = "Handicrafts"
)

// ArtistProfile is the artist extension of a user. At most one per user.
type ArtistProfile struct {
	ID             string
	UserID         string
	Bio            string
	Specialization string
	Location       string
	ContactPhone   string
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AgentProfile is the agent extension of a user. At most one per user.
type AgentProfile struct {
	ID           string
	UserID       string
	Region       string
	ContactPhone string
	IsVerified   bool
	MaxArtists   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewArtistProfile returns the profile created when the artist role is granted.
// Location is left empty so the onboarding gate fires.
func NewArtistProfile(id, userID string, now time.Time) *ArtistProfile {
	return &ArtistProfile{
		ID:             id,
		UserID:         userID,
		Bio:            DefaultArtistBio,
		Specialization: DefaultArtistSpecialization,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewAgentProfile returns the profile created when the agent role is granted.
// maxArtists <= 0 falls back to DefaultMaxArtists.
func NewAgentProfile(id, userID string, maxArtists int, now time.Time) *AgentProfile {
	if maxArtists <= 0 {
		maxArtists = DefaultMaxArtists
	}
	return &AgentProfile{
		ID:         id,
		UserID:     userID,
		MaxArtists: maxArtists,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Kind names a profile table.
type Kind string

const (
	KindArtist Kind = "artist"
	KindAgent  Kind = "agent"
)

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindArtist, KindAgent:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown profile kind %q", errs.ErrInvalidArgument, s)
	}
}

// Snapshot is the pair of profiles a user may hold. Either may be nil.
type Snapshot struct {
	Artist *ArtistProfile
	Agent  *AgentProfile
}

// NeedsOnboarding reports whether a user holding role must complete profile details.
// Artists need a location and agents a region; a missing profile counts as incomplete.
// Admin and buyer never need onboarding.
func NeedsOnboarding(role roledomain.Role, s Snapshot) bool {
	switch role {
	case roledomain.RoleArtist:
		return s.Artist == nil || strings.TrimSpace(s.Artist.Location) == ""
	case roledomain.RoleAgent:
		return s.Agent == nil || strings.TrimSpace(s.Agent.Region) == ""
	default:
		return false
	}
}
