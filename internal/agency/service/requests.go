package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"handicraft-marketplace/backend/internal/agency/domain"
	"handicraft-marketplace/backend/internal/audit"
	auditdomain "handicraft-marketplace/backend/internal/audit/domain"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/errs"
	profiledomain "handicraft-marketplace/backend/internal/profile/domain"
)

// CreateRequest opens a pending request for an agent to represent artistID in location.
func (s *Service) CreateRequest(ctx context.Context, artistID, location, actorID string) (*domain.Request, error) {
	req, err := domain.NewRequest(s.newID(), strings.TrimSpace(artistID), location, actorID, s.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	err = s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		artist, err := s.profiles.WithTx(tx).LockArtist(ctx, req.ArtistID)
		if err != nil {
			return err
		}
		if artist == nil {
			return fmt.Errorf("artist profile %s: %w", req.ArtistID, errs.ErrNotFound)
		}
		return s.reader.WithTx(tx).InsertRequest(ctx, req)
	})
	if err != nil {
		s.logFailure(err, "create agent request", "", req.ArtistID)
		return nil, err
	}

	s.audit.LogEvent(ctx, actorID, auditdomain.ActionAgentRequestCreate, "agent_request:"+req.ID,
		audit.Metadata(audit.Fields{"artist_id": req.ArtistID, "location": req.Location}))
	return req, nil
}

// GetRequest returns the request, or errs.ErrNotFound.
func (s *Service) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.reader.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("agent request %s: %w", id, errs.ErrNotFound)
	}
	return req, nil
}

// ListRequestsByArtist returns every request of artistID, newest first.
func (s *Service) ListRequestsByArtist(ctx context.Context, artistID string) ([]*domain.Request, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.reader.ListRequestsByArtist(ctx, artistID)
}

// ListPendingRequests returns the requests still waiting for an agent, oldest first.
func (s *Service) ListPendingRequests(ctx context.Context) ([]*domain.Request, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.reader.ListPendingRequests(ctx)
}

// AcceptRequest has agentID take a pending request. The request is locked, then the agent is
// assigned to the request's artist exactly as AssignAgent would, and both commit together:
// a full agent or an artist managed by someone else leaves the request pending.
func (s *Service) AcceptRequest(ctx context.Context, requestID, agentID, actorID string) (*domain.Request, *domain.Relation, error) {
	if strings.TrimSpace(requestID) == "" || strings.TrimSpace(agentID) == "" {
		return nil, nil, fmt.Errorf("%w: request and agent ids are required", errs.ErrInvalidArgument)
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	var (
		req     *domain.Request
		rel     *domain.Relation
		created bool
	)
	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		requests := s.reader.WithTx(tx)

		var err error
		if req, err = lockRequest(ctx, requests, requestID); err != nil {
			return err
		}
		if err := req.Transition(domain.RequestAccepted, s.now()); err != nil {
			return err
		}
		if rel, created, err = s.assignInTx(ctx, tx, agentID, req.ArtistID, actorID); err != nil {
			return err
		}
		req.AgentID = agentID
		return requests.UpdateRequest(ctx, req)
	})
	if err != nil {
		s.logRequestFailure(err, "accept agent request", requestID)
		return nil, nil, err
	}

	if created {
		s.audit.LogEvent(ctx, actorID, auditdomain.ActionAgentAssign, "artist:"+req.ArtistID, audit.Metadata(audit.Fields{"agent_id": agentID}))
	}
	s.audit.LogEvent(ctx, actorID, auditdomain.ActionAgentRequestAccept, "agent_request:"+req.ID, audit.Metadata(audit.Fields{"agent_id": agentID}))
	return req, rel, nil
}

// RejectRequest closes a pending request without assigning anyone.
func (s *Service) RejectRequest(ctx context.Context, requestID, actorID string) (*domain.Request, error) {
	return s.transition(ctx, requestID, domain.RequestRejected, actorID, auditdomain.ActionAgentRequestReject)
}

// CompleteRequest marks an accepted request as fulfilled. The agent relation is left as it is.
func (s *Service) CompleteRequest(ctx context.Context, requestID, actorID string) (*domain.Request, error) {
	return s.transition(ctx, requestID, domain.RequestCompleted, actorID, auditdomain.ActionAgentRequestComplete)
}

func (s *Service) transition(ctx context.Context, requestID string, next domain.RequestStatus, actorID, action string) (*domain.Request, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, fmt.Errorf("%w: request id is required", errs.ErrInvalidArgument)
	}

	ctx, cancel := db.Detached(ctx, s.timeout)
	defer cancel()

	var req *domain.Request
	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		requests := s.reader.WithTx(tx)

		var err error
		if req, err = lockRequest(ctx, requests, requestID); err != nil {
			return err
		}
		if err := req.Transition(next, s.now()); err != nil {
			return err
		}
		return requests.UpdateRequest(ctx, req)
	})
	if err != nil {
		s.logRequestFailure(err, "mark agent request "+string(next), requestID)
		return nil, err
	}

	s.audit.LogEvent(ctx, actorID, action, "agent_request:"+req.ID, "")
	return req, nil
}

func (s *Service) logRequestFailure(err error, op, requestID string) {
	entry := s.log.WithError(err).WithField("request_id", requestID)
	if errs.IsClientError(err) {
		entry.Debug(op + " rejected")
		return
	}
	entry.Error(op + " failed")
}

type requestLocker interface {
	LockRequest(ctx context.Context, id string) (*domain.Request, error)
}

func lockRequest(ctx context.Context, requests requestLocker, id string) (*domain.Request, error) {
	req, err := requests.LockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("agent request %s: %w", id, errs.ErrNotFound)
	}
	return req, nil
}

// AgentProfileOf returns the agent profile owned by userID, or nil when the user has none.
func (s *Service) AgentProfileOf(ctx context.Context, userID string) (*profiledomain.AgentProfile, error) {
	if userID == "" {
		return nil, nil
	}
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.profiles.GetAgentByUserID(ctx, userID)
}
