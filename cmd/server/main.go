package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	agencyservice "handicraft-marketplace/backend/internal/agency/service"
	assignmentservice "handicraft-marketplace/backend/internal/assignment/service"
	"handicraft-marketplace/backend/internal/audit"
	auditrepo "handicraft-marketplace/backend/internal/audit/repository"
	"handicraft-marketplace/backend/internal/authz"
	"handicraft-marketplace/backend/internal/authz/engine"
	"handicraft-marketplace/backend/internal/config"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/logging"
	productrepo "handicraft-marketplace/backend/internal/product/repository"
	productservice "handicraft-marketplace/backend/internal/product/service"
	profilerepo "handicraft-marketplace/backend/internal/profile/repository"
	profileservice "handicraft-marketplace/backend/internal/profile/service"
	"handicraft-marketplace/backend/internal/security"
	"handicraft-marketplace/backend/internal/server"
	"handicraft-marketplace/backend/internal/server/interceptors"
	supportrepo "handicraft-marketplace/backend/internal/support/repository"
	supportservice "handicraft-marketplace/backend/internal/support/service"
	"handicraft-marketplace/backend/internal/telemetry"
	telemetryotel "handicraft-marketplace/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "json").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("telemetry")
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	conn, err := db.OpenWithOptions(cfg.DatabaseURL, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer conn.Close()

	var evaluator *engine.OPAEvaluator
	if cfg.AuthzPolicyFile != "" {
		evaluator, err = engine.NewOPAEvaluatorFromFile(ctx, cfg.AuthzPolicyFile)
	} else {
		evaluator, err = engine.NewOPAEvaluator(ctx, engine.DefaultPolicy())
	}
	if err != nil {
		log.WithError(err).Fatal("authorization policy")
	}

	timeout := cfg.Timeout()
	background := telemetry.NewDispatcher(timeout, log)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), interceptors.ClientIP, log).
		WithRecords(providers.LoggerProvider.Logger("marketplace/audit")).
		WithDispatcher(background)

	decisionMetrics, err := telemetry.NewDecisionMetrics(providers.MeterProvider.Meter("marketplace/authz"))
	if err != nil {
		log.WithError(err).Fatal("metrics")
	}
	resolver := authz.NewResolver(authz.PostgresStores(conn), evaluator, timeout, log).WithMetrics(decisionMetrics)
	profiles := profilerepo.NewPostgresRepository(conn)

	market := server.NewMarketplace(server.MarketplaceDeps{
		Resolver: resolver,
		Ledger: assignmentservice.NewService(conn, assignmentservice.Config{
			DefaultMaxArtists: cfg.DefaultMaxArtists,
			Timeout:           timeout,
		}, auditLogger, log),
		Registry: agencyservice.NewService(conn, timeout, auditLogger, log),
		Profiles: profileservice.NewService(profiles, resolver, auditLogger, log, timeout),
		Support:  supportservice.NewService(supportrepo.NewPostgresRepository(conn), profiles, auditLogger, log, timeout),
		Products: productservice.NewService(productrepo.NewPostgresRepository(conn), resolver, auditLogger, log, timeout),
	}, log)

	deps := server.Deps{
		Marketplace:         market,
		HealthPinger:        conn,
		HealthPolicyChecker: evaluator,
		Log:                 log,
	}
	if cfg.AuthEnabled() {
		verifier, err := security.NewVerifierFromPEM(cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience)
		if err != nil {
			log.WithError(err).Fatal("jwt public key")
		}
		deps.Verifier = verifier
	} else {
		log.Warn("JWT_PUBLIC_KEY not set: all callers are anonymous and only public methods are served")
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	defer lis.Close()

	s := server.NewGRPCServer(deps)

	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		if err := s.Serve(lis); err != nil {
			log.WithError(err).Fatal("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gRPC server...")
	s.GracefulStop()
	drainCtx, cancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	defer cancel()
	if err := background.Drain(drainCtx); err != nil {
		log.WithError(err).Warn("background tasks still running at shutdown")
	}
	log.Info("gRPC server stopped")
}
