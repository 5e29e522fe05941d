package domain

import "time"

// Type is the pledge cadence.
type Type string

const (
	TypeOneTime Type = "one_time"
	TypeMonthly Type = "monthly"
)

// StatusPendingPayment is the only status this module writes; payment capture happens elsewhere.
const StatusPendingPayment = "pending_payment"

// Transaction is a support pledge from a supporter to an artist.
type Transaction struct {
	ID          string
	ArtistID    string
	SupporterID string
	AmountCents int64
	Type        Type
	Message     string
	IsAnonymous bool
	Status      string
	CreatedAt   time.Time
}

// Parties identifies who may see a pledge: the supporter and the supported artist's user.
type Parties struct {
	ArtistID     string
	ArtistUserID string
	SupporterID  string
}

// Input is a pledge request. Validation tags are checked by the service.
type Input struct {
	ArtistID    string `validate:"required"`
	AmountCents int64  `validate:"gt=0"`
	Type        Type   `validate:"required,oneof=one_time monthly"`
	Message     string `validate:"max=500"`
	IsAnonymous bool
}
