package server

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "handicraft-marketplace/backend/internal/health/handler"
	"handicraft-marketplace/backend/internal/server/interceptors"
)

// Deps holds the dependencies for the gRPC server.
type Deps struct {
	// Marketplace serves MarketplaceService. Required.
	Marketplace MarketplaceServer
	// Verifier validates Bearer tokens. If nil, every caller is anonymous and only public methods succeed.
	Verifier interceptors.TokenVerifier
	// HealthPinger is used by the health service for readiness (e.g. *sql.DB). If nil, the DB ping is skipped.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (e.g. the OPA evaluator). If nil, the policy check is skipped.
	HealthPolicyChecker healthhandler.PolicyChecker
	// Log receives request and failure logs.
	Log logrus.FieldLogger
}

// PublicMethods accept anonymous callers. Everything else requires a valid access token.
var PublicMethods = map[string]bool{
	FullMethod("ResolvePermissions"):     true,
	FullMethod("CurrentAgent"):           true,
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_List_FullMethodName:  true,
}

// quietMethods are not logged on success.
var quietMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_List_FullMethodName:  true,
}

// NewGRPCServer builds a server with tracing, request logging and token auth, and registers all services.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(deps.Log, quietMethods),
			interceptors.AuthUnary(deps.Verifier, PublicMethods, deps.Log),
		),
	}
	s := grpc.NewServer(append(base, opts...)...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers MarketplaceService and the standard health service.
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	RegisterMarketplaceServer(s, deps.Marketplace)
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker, deps.Log))
}
