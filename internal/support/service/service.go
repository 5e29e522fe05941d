package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"handicraft-marketplace/backend/internal/audit"
	auditdomain "handicraft-marketplace/backend/internal/audit/domain"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/platform/logging"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
	"handicraft-marketplace/backend/internal/support/domain"
)

// SupportRepo is the subset of the support repository used here.
type SupportRepo interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByArtist(ctx context.Context, artistID string) ([]*domain.Transaction, error)
}

// ArtistLookup resolves artist profiles by id.
type ArtistLookup interface {
	GetArtistByID(ctx context.Context, id string) (*profiledomain.ArtistProfile, error)
}

// Service records support pledges.
type Service struct {
	repo    SupportRepo
	artists ArtistLookup
	audit   audit.AuditLogger
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewService returns a support service. auditLogger and log may be nil.
func NewService(repo SupportRepo, artists ArtistLookup, auditLogger audit.AuditLogger, log logrus.FieldLogger, timeout time.Duration) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{
		repo:    repo,
		artists: artists,
		audit:   auditLogger,
		log:     logging.OrDiscard(log),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// Create records a pledge from supporterID. The pledge starts in pending_payment.
func (s *Service) Create(ctx context.Context, supporterID string, in domain.Input) (*domain.Transaction, error) {
	if supporterID == "" {
		return nil, errs.ErrUnauthenticated
	}
	in.ArtistID = strings.TrimSpace(in.ArtistID)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	artist, err := s.artists.GetArtistByID(ctx, in.ArtistID)
	if err != nil {
		return nil, fmt.Errorf("create support: %w", err)
	}
	if artist == nil {
		return nil, fmt.Errorf("artist %s: %w", in.ArtistID, errs.ErrNotFound)
	}

	t := &domain.Transaction{
		ID:          s.newID(),
		ArtistID:    artist.ID,
		SupporterID: supporterID,
		AmountCents: in.AmountCents,
		Type:        in.Type,
		Message:     in.Message,
		IsAnonymous: in.IsAnonymous,
		Status:      domain.StatusPendingPayment,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		s.log.WithError(err).WithField("artist_id", artist.ID).Error("support: create failed")
		return nil, err
	}

	s.audit.LogEvent(ctx, supporterID, auditdomain.ActionSupportCreate, "support_transaction:"+t.ID,
		audit.Metadata(audit.Fields{"artist_id": t.ArtistID, "amount_cents": t.AmountCents, "type": t.Type}))
	return t, nil
}

// Get returns pledge id. Callers authorize access through the resolver before calling.
func (s *Service) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("support transaction %s: %w", id, errs.ErrNotFound)
	}
	return t, nil
}

// ListForArtist returns pledges received by artistID, newest first.
func (s *Service) ListForArtist(ctx context.Context, artistID string) ([]*domain.Transaction, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.ListByArtist(ctx, artistID)
}
