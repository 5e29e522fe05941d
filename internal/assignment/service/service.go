package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"handicraft-marketplace/backend/internal/assignment/domain"
	assignmentrepo "handicraft-marketplace/backend/internal/assignment/repository"
	"handicraft-marketplace/backend/internal/audit"
	auditdomain "handicraft-marketplace/backend/internal/audit/domain"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/platform/logging"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
	profilerepo "handicraft-marketplace/backend/internal/profile/repository"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
)

// Config tunes the ledger.
type Config struct {
	// DefaultMaxArtists is written to agent profiles created on role assignment.
	DefaultMaxArtists int
	// Timeout bounds each call whose context carries no deadline.
	Timeout time.Duration
}

// Service is the user-role assignment ledger. Role grants bootstrap the matching profile in the same transaction.
type Service struct {
	runner *db.Runner
	reader *assignmentrepo.PostgresRepository
	cfg    Config
	audit  audit.AuditLogger
	log    logrus.FieldLogger
	now    func() time.Time
	newID  func() string
}

// NewService returns a ledger over conn. auditLogger and log may be nil.
func NewService(conn *sql.DB, cfg Config, auditLogger audit.AuditLogger, log logrus.FieldLogger) *Service {
	if cfg.DefaultMaxArtists <= 0 {
		cfg.DefaultMaxArtists = profiledomain.DefaultMaxArtists
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{
		runner: db.NewRunner(conn),
		reader: assignmentrepo.NewPostgresRepository(conn),
		cfg:    cfg,
		audit:  auditLogger,
		log:    logging.OrDiscard(log),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// AssignRole grants role to userID and creates the role's profile if the user has none.
// The grant and the profile are committed together or not at all.
func (s *Service) AssignRole(ctx context.Context, userID string, role roledomain.Role, assignedBy string) (*domain.Assignment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidArgument)
	}
	if _, err := roledomain.ParseRole(string(role)); err != nil {
		return nil, err
	}

	ctx, cancel := db.Detached(ctx, s.cfg.Timeout)
	defer cancel()

	now := s.now()
	a := &domain.Assignment{UserID: userID, Role: role, AssignedAt: now, AssignedBy: assignedBy}

	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		ledger := s.reader.WithTx(tx)
		ok, err := ledger.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
		}

		inserted, err := ledger.Insert(ctx, a)
		if err != nil {
			return err
		}
		if !inserted {
			held, err := ledger.ListRoles(ctx, userID)
			if err != nil {
				return err
			}
			if held.Has(role) {
				return fmt.Errorf("%s for user %s: %w", role, userID, errs.ErrDuplicateAssignment)
			}
			return fmt.Errorf("role %s: %w", role, errs.ErrNotFound)
		}

		return s.bootstrapProfile(ctx, profilerepo.NewPostgresRepository(tx), userID, role, now)
	})
	if err != nil {
		s.logFailure(err, "assign role", userID, role)
		return nil, err
	}

	s.audit.LogEvent(ctx, assignedBy, auditdomain.ActionRoleAssign, "user:"+userID, audit.Metadata(audit.Fields{"role": role}))
	return a, nil
}

func (s *Service) bootstrapProfile(ctx context.Context, profiles *profilerepo.PostgresRepository, userID string, role roledomain.Role, now time.Time) error {
	switch role {
	case roledomain.RoleArtist:
		return profiles.CreateArtistIfAbsent(ctx, profiledomain.NewArtistProfile(s.newID(), userID, now))
	case roledomain.RoleAgent:
		return profiles.CreateAgentIfAbsent(ctx, profiledomain.NewAgentProfile(s.newID(), userID, s.cfg.DefaultMaxArtists, now))
	default:
		return nil
	}
}

// RevokeRole removes role from userID. A user left with no roles is re-granted buyer;
// revoking buyer when it is the only role fails with errs.ErrLastRole. Profiles are kept.
func (s *Service) RevokeRole(ctx context.Context, userID string, role roledomain.Role, revokedBy string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", errs.ErrInvalidArgument)
	}
	if _, err := roledomain.ParseRole(string(role)); err != nil {
		return err
	}

	ctx, cancel := db.Detached(ctx, s.cfg.Timeout)
	defer cancel()

	var fellBack bool
	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		ledger := s.reader.WithTx(tx)
		ok, err := ledger.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
		}

		held, err := ledger.ListRoles(ctx, userID)
		if err != nil {
			return err
		}
		if !held.Has(role) {
			return fmt.Errorf("%s for user %s: %w", role, userID, domain.ErrAssignmentNotFound)
		}
		if len(held) == 1 && role == roledomain.RoleBuyer {
			return fmt.Errorf("user %s: %w", userID, errs.ErrLastRole)
		}

		if _, err := ledger.Delete(ctx, userID, role); err != nil {
			return err
		}
		if len(held) == 1 {
			fellBack = true
			_, err := ledger.Insert(ctx, &domain.Assignment{
				UserID: userID, Role: roledomain.RoleBuyer, AssignedAt: s.now(), AssignedBy: revokedBy,
			})
			return err
		}
		return nil
	})
	if err != nil {
		s.logFailure(err, "revoke role", userID, role)
		return err
	}

	meta := audit.Metadata(audit.Fields{"role": role, "fallback_buyer": fellBack})
	s.audit.LogEvent(ctx, revokedBy, auditdomain.ActionRoleRevoke, "user:"+userID, meta)
	return nil
}

// ListRoles returns the roles held by userID. A user with no assignments gets an empty set, not an error.
func (s *Service) ListRoles(ctx context.Context, userID string) (roledomain.RoleSet, error) {
	ctx, cancel := db.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.reader.ListRoles(ctx, userID)
}

// ListAssignments returns the user's assignments with who granted them and when.
func (s *Service) ListAssignments(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	ctx, cancel := db.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.reader.List(ctx, userID)
}

func (s *Service) logFailure(err error, op, userID string, role roledomain.Role) {
	entry := s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "role": role})
	if errs.IsClientError(err) {
		entry.Debug(op + " rejected")
		return
	}
	entry.Error(op + " failed")
}
