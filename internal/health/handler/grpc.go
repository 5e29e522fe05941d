// Package handler serves the standard gRPC health protocol for the authorization server.
package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"handicraft-marketplace/backend/internal/platform/logging"
)

// ServiceName is the health service name reported for the marketplace API. The empty name means the whole server.
const ServiceName = "marketplace.v1.MarketplaceService"

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks the authorization policy can evaluate (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server implements grpc.health.v1.Health. Readiness requires the database and the policy.
type Server struct {
	healthpb.UnimplementedHealthServer
	pinger  Pinger
	policy  PolicyChecker
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewServer returns a health server. Nil dependencies are skipped.
func NewServer(pinger Pinger, policy PolicyChecker, log logrus.FieldLogger) *Server {
	return &Server{pinger: pinger, policy: policy, timeout: 2 * time.Second, log: logging.OrDiscard(log)}
}

// Check reports SERVING when every dependency answers. Dependency failures are reported as NOT_SERVING, not as RPC errors.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	return &healthpb.HealthCheckResponse{Status: s.probe(ctx)}, nil
}

// List reports the status of every service this server knows.
func (s *Server) List(ctx context.Context, _ *healthpb.HealthListRequest) (*healthpb.HealthListResponse, error) {
	st := &healthpb.HealthCheckResponse{Status: s.probe(ctx)}
	return &healthpb.HealthListResponse{Statuses: map[string]*healthpb.HealthCheckResponse{
		"":          st,
		ServiceName: st,
	}}, nil
}

func (s *Server) probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			s.log.WithError(err).Warn("health: database ping failed")
			return healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			s.log.WithError(err).Warn("health: policy check failed")
			return healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	return healthpb.HealthCheckResponse_SERVING
}
