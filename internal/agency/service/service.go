package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"handicraft-marketplace/backend/internal/agency/domain"
	agencyrepo "handicraft-marketplace/backend/internal/agency/repository"
	"handicraft-marketplace/backend/internal/audit"
	auditdomain "handicraft-marketplace/backend/internal/audit/domain"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	"handicraft-marketplace/backend/internal/platform/logging"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
	profilerepo "handicraft-marketplace/backend/internal/profile/repository"
)

// Service is the agent-artist relationship registry.
type Service struct {
	runner   *db.Runner
	reader   *agencyrepo.PostgresRepository
	profiles *profilerepo.PostgresRepository
	timeout  time.Duration
	audit    audit.AuditLogger
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() string
}

// NewService returns a registry over conn. auditLogger and log may be nil.
func NewService(conn *sql.DB, timeout time.Duration, auditLogger audit.AuditLogger, log logrus.FieldLogger) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{
		runner:   db.NewRunner(conn),
		reader:   agencyrepo.NewPostgresRepository(conn),
		profiles: profilerepo.NewPostgresRepository(conn),
		timeout:  timeout,
		audit:    auditLogger,
		log:      logging.OrDiscard(log),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

// AssignAgent makes agentID the active agent of artistID. Both ids are profile ids.
//
// The agent row is locked before the artist row, so concurrent assignments to one agent
// serialize on the capacity check. Re-assigning the current agent returns the existing relation.
// A different active agent fails with errs.ErrAlreadyAssigned; a full agent fails with
// *domain.CapacityExceededError and nothing is written.
func (s *Service) AssignAgent(ctx context.Context, agentID, artistID, assignedBy string) (*domain.Relation, error) {
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(artistID) == "" {
		return nil, fmt.Errorf("%w: agent and artist ids are required", errs.ErrInvalidArgument)
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	var (
		rel     *domain.Relation
		created bool
	)
	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		var err error
		rel, created, err = s.assignInTx(ctx, tx, agentID, artistID, assignedBy)
		return err
	})
	if err != nil {
		s.logFailure(err, "assign agent", agentID, artistID)
		return nil, err
	}

	if created {
		s.audit.LogEvent(ctx, assignedBy, auditdomain.ActionAgentAssign, "artist:"+artistID, audit.Metadata(audit.Fields{"agent_id": agentID}))
	}
	return rel, nil
}

// assignInTx runs the AssignAgent checks and insert inside tx. created is false when the
// agent already manages the artist.
func (s *Service) assignInTx(ctx context.Context, tx *sql.Tx, agentID, artistID, assignedBy string) (*domain.Relation, bool, error) {
	profiles := s.profiles.WithTx(tx)
	relations := s.reader.WithTx(tx)

	agent, err := profiles.LockAgent(ctx, agentID)
	if err != nil {
		return nil, false, err
	}
	if agent == nil {
		return nil, false, fmt.Errorf("agent profile %s: %w", agentID, errs.ErrNotFound)
	}
	artist, err := profiles.LockArtist(ctx, artistID)
	if err != nil {
		return nil, false, err
	}
	if artist == nil {
		return nil, false, fmt.Errorf("artist profile %s: %w", artistID, errs.ErrNotFound)
	}

	current, err := relations.ActiveForArtist(ctx, artistID)
	if err != nil {
		return nil, false, err
	}
	if current != nil {
		if current.AgentID == agentID {
			return current, false, nil
		}
		return nil, false, fmt.Errorf("artist %s managed by %s: %w", artistID, current.AgentID, errs.ErrAlreadyAssigned)
	}

	active, err := relations.CountActiveForAgent(ctx, agentID)
	if err != nil {
		return nil, false, err
	}
	if active >= agent.MaxArtists {
		return nil, false, &domain.CapacityExceededError{AgentID: agentID, Active: active, Max: agent.MaxArtists}
	}

	rel := &domain.Relation{
		ID:         s.newID(),
		AgentID:    agentID,
		ArtistID:   artistID,
		AssignedBy: assignedBy,
		AssignedAt: s.now(),
		IsActive:   true,
	}
	if err := relations.Insert(ctx, rel); err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

// Deactivate ends the active relation between agentID and artistID. Calling it when no
// relation is active is a no-op, so repeated calls leave the same state as one.
// Unknown agent or artist profiles fail with errs.ErrNotFound.
func (s *Service) Deactivate(ctx context.Context, agentID, artistID, actorID string) error {
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(artistID) == "" {
		return fmt.Errorf("%w: agent and artist ids are required", errs.ErrInvalidArgument)
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	var changed bool
	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		profiles := s.profiles.WithTx(tx)

		agent, err := profiles.LockAgent(ctx, agentID)
		if err != nil {
			return err
		}
		if agent == nil {
			return fmt.Errorf("agent profile %s: %w", agentID, errs.ErrNotFound)
		}
		artist, err := profiles.LockArtist(ctx, artistID)
		if err != nil {
			return err
		}
		if artist == nil {
			return fmt.Errorf("artist profile %s: %w", artistID, errs.ErrNotFound)
		}
		changed, err = s.reader.WithTx(tx).Deactivate(ctx, agentID, artistID, s.now())
		return err
	})
	if err != nil {
		s.logFailure(err, "deactivate agent", agentID, artistID)
		return err
	}

	if changed {
		s.audit.LogEvent(ctx, actorID, auditdomain.ActionAgentDeactivate, "artist:"+artistID, audit.Metadata(audit.Fields{"agent_id": agentID}))
	}
	return nil
}

// IsActiveAgentFor reports whether agentID currently manages artistID.
func (s *Service) IsActiveAgentFor(ctx context.Context, agentID, artistID string) (bool, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.reader.IsActive(ctx, agentID, artistID)
}

// CurrentAgentOf returns the agent actively managing artistID, or nil when there is none.
func (s *Service) CurrentAgentOf(ctx context.Context, artistID string) (*profiledomain.AgentProfile, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.reader.CurrentAgent(ctx, artistID)
}

// ListActiveArtists returns the agent's active relations.
func (s *Service) ListActiveArtists(ctx context.Context, agentID string) ([]*domain.Relation, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.reader.ListActiveByAgent(ctx, agentID)
}

// History returns every relation the artist has had, newest first.
func (s *Service) History(ctx context.Context, artistID string) ([]*domain.Relation, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.reader.ListByArtist(ctx, artistID)
}

func (s *Service) logFailure(err error, op, agentID, artistID string) {
	entry := s.log.WithError(err).WithFields(logrus.Fields{"agent_id": agentID, "artist_id": artistID})
	if errs.IsClientError(err) {
		entry.Debug(op + " rejected")
		return
	}
	entry.Error(op + " failed")
}
