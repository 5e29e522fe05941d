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
	"handicraft-marketplace/backend/internal/authz"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/platform/logging"
	"handicraft-marketplace/backend/internal/product/domain"
)

// ProductRepo is the subset of the product repository used here.
type ProductRepo interface {
	ListByArtist(ctx context.Context, artistID string, includeInactive bool) ([]*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	SoftDelete(ctx context.Context, id string) (bool, error)
}

// Authorizer decides whether an actor may act on a resource.
type Authorizer interface {
	Authorize(ctx context.Context, actorID string, ref authz.ResourceRef, action authz.Action) error
}

// Service manages listings on behalf of artists, their agents and admins. Every mutation is
// authorized through the resolver first.
type Service struct {
	repo    ProductRepo
	authz   Authorizer
	audit   audit.AuditLogger
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewService returns a product service. auditLogger and log may be nil.
func NewService(repo ProductRepo, authorizer Authorizer, auditLogger audit.AuditLogger, log logrus.FieldLogger, timeout time.Duration) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{
		repo:    repo,
		authz:   authorizer,
		audit:   auditLogger,
		log:     logging.OrDiscard(log),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// Create lists a new product for artistID. The actor must be allowed to edit the artist's profile:
// the artist, an admin, or the artist's active agent.
func (s *Service) Create(ctx context.Context, actorID, artistID, name string, priceCents int64) (*domain.Product, error) {
	p := &domain.Product{
		ID:         s.newID(),
		ArtistID:   strings.TrimSpace(artistID),
		Name:       strings.TrimSpace(name),
		PriceCents: priceCents,
		IsActive:   true,
		CreatedAt:  s.now(),
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	if err := s.authz.Authorize(ctx, actorID, authz.ArtistProfile(p.ArtistID), authz.ActionEdit); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.log.WithError(err).WithField("artist_id", p.ArtistID).Error("product: create failed")
		return nil, err
	}
	s.audit.LogEvent(ctx, actorID, auditdomain.ActionProductCreate, "product:"+p.ID, audit.Metadata(audit.Fields{"artist_id": p.ArtistID}))
	return p, nil
}

// Delete soft-deletes productID. Owners and admins may delete; agents may not.
func (s *Service) Delete(ctx context.Context, actorID, productID string) error {
	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	if err := s.authz.Authorize(ctx, actorID, authz.Product(productID), authz.ActionDelete); err != nil {
		return err
	}
	found, err := s.repo.SoftDelete(ctx, productID)
	if err != nil {
		s.log.WithError(err).WithField("product_id", productID).Error("product: delete failed")
		return err
	}
	if !found {
		return fmt.Errorf("product %s: %w", productID, errs.ErrNotFound)
	}
	s.audit.LogEvent(ctx, actorID, auditdomain.ActionProductDelete, "product:"+productID, "")
	return nil
}

// ListForArtist returns artistID's products. Inactive listings are included only for actors who
// may edit the artist's profile.
func (s *Service) ListForArtist(ctx context.Context, actorID, artistID string) ([]*domain.Product, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	includeInactive := false
	if actorID != "" {
		switch err := s.authz.Authorize(ctx, actorID, authz.ArtistProfile(artistID), authz.ActionEdit); {
		case err == nil:
			includeInactive = true
		case errs.IsClientError(err):
		default:
			return nil, err
		}
	}
	return s.repo.ListByArtist(ctx, artistID, includeInactive)
}
