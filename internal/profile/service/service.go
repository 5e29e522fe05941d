package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"handicraft-marketplace/backend/internal/audit"
	auditdomain "handicraft-marketplace/backend/internal/audit/domain"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/platform/logging"
	"handicraft-marketplace/backend/internal/profile/domain"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
)

// ProfileRepo is the minimal profile repository needed by the profile service.
type ProfileRepo interface {
	GetArtistByID(ctx context.Context, id string) (*domain.ArtistProfile, error)
	GetAgentByID(ctx context.Context, id string) (*domain.AgentProfile, error)
	GetArtistByUserID(ctx context.Context, userID string) (*domain.ArtistProfile, error)
	GetAgentByUserID(ctx context.Context, userID string) (*domain.AgentProfile, error)
	SetVerified(ctx context.Context, kind domain.Kind, id string, verified bool) (bool, error)
}

// PermissionChecker reports whether an actor holds a permission through any of their roles.
type PermissionChecker interface {
	HasPermission(ctx context.Context, actorID string, p roledomain.Permission) (bool, error)
}

// Service reads profiles and applies admin-only verification.
type Service struct {
	repo    ProfileRepo
	perms   PermissionChecker
	audit   audit.AuditLogger
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewService returns a profile service. auditLogger and log may be nil.
func NewService(repo ProfileRepo, perms PermissionChecker, auditLogger audit.AuditLogger, log logrus.FieldLogger, timeout time.Duration) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{repo: repo, perms: perms, audit: auditLogger, log: logging.OrDiscard(log), timeout: timeout}
}

// Snapshot returns both profiles of userID. Missing profiles are nil.
func (s *Service) Snapshot(ctx context.Context, userID string) (domain.Snapshot, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	artist, err := s.repo.GetArtistByUserID(ctx, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	agent, err := s.repo.GetAgentByUserID(ctx, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{Artist: artist, Agent: agent}, nil
}

// SetVerified sets the verification badge on an artist or agent profile. Only actors holding
// profile:verify (admins) may do so.
func (s *Service) SetVerified(ctx context.Context, actorID string, kind domain.Kind, profileID string, verified bool) error {
	if actorID == "" {
		return errs.ErrUnauthenticated
	}
	if _, err := domain.ParseKind(string(kind)); err != nil {
		return err
	}
	if profileID == "" {
		return fmt.Errorf("%w: profile id is required", errs.ErrInvalidArgument)
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	ok, err := s.perms.HasPermission(ctx, actorID, roledomain.PermProfileVerify)
	if err != nil {
		return fmt.Errorf("verify profile: %w", err)
	}
	if !ok {
		return errs.ErrForbidden
	}

	found, err := s.repo.SetVerified(ctx, kind, profileID, verified)
	if err != nil {
		s.log.WithError(err).WithField("profile_id", profileID).Error("profile: set verified failed")
		return err
	}
	if !found {
		return fmt.Errorf("%s profile %s: %w", kind, profileID, errs.ErrNotFound)
	}

	s.audit.LogEvent(ctx, actorID, auditdomain.ActionProfileVerify, string(kind)+":"+profileID, audit.Metadata(audit.Fields{"verified": verified}))
	return nil
}
