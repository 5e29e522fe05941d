// seed inserts development sample data for local testing: the demo artists, agents, buyers and an
// admin, their roles and profiles, a few listings, the agent relations and
// sample agent requests in each state but rejected.
// Idempotent: skips everything if the admin user (admin@artplatform.com) already exists.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	agencydomain "handicraft-marketplace/backend/internal/agency/domain"
	agencyservice "handicraft-marketplace/backend/internal/agency/service"
	assignmentservice "handicraft-marketplace/backend/internal/assignment/service"
	"handicraft-marketplace/backend/internal/config"
	"handicraft-marketplace/backend/internal/db"
	"handicraft-marketplace/backend/internal/platform/logging"
	productdomain "handicraft-marketplace/backend/internal/product/domain"
	productrepo "handicraft-marketplace/backend/internal/product/repository"
	profilerepo "handicraft-marketplace/backend/internal/profile/repository"
	roledomain "handicraft-marketplace/backend/internal/role/domain"
	userdomain "handicraft-marketplace/backend/internal/user/domain"
	userrepo "handicraft-marketplace/backend/internal/user/repository"
)

const (
	seedActor  = "seed"
	adminEmail = "admin@artplatform.com"
)

type seedUser struct {
	id    string
	name  string
	email string
	role  roledomain.Role
}

var users = []seedUser{
	{"usr-emma", "Emma Thompson", "emma.thompson@artist.com", roledomain.RoleArtist},
	{"usr-james", "James Wilson", "james.wilson@artist.com", roledomain.RoleArtist},
	{"usr-sophia", "Sophia Chen", "sophia.chen@artist.com", roledomain.RoleArtist},
	{"usr-michael", "Michael Rodriguez", "michael.rodriguez@agent.com", roledomain.RoleAgent},
	{"usr-sarah", "Sarah Johnson", "sarah.johnson@agent.com", roledomain.RoleAgent},
	{"usr-david", "David Kim", "david.kim@buyer.com", roledomain.RoleBuyer},
	{"usr-lisa", "Lisa Anderson", "lisa.anderson@buyer.com", roledomain.RoleBuyer},
	{"usr-admin", "Admin User", adminEmail, roledomain.RoleAdmin},
}

type seedProduct struct {
	id         string
	artistUser string
	name       string
	priceCents int64
}

var products = []seedProduct{
	{"prd-ocean-waves", "usr-emma", "Ocean Waves", 120000},
	{"prd-mountain-sunrise", "usr-emma", "Mountain Sunrise", 180000},
	{"prd-urban-dreams", "usr-james", "Urban Dreams", 250000},
	{"prd-desert-soul", "usr-james", "Desert Soul", 95000},
	{"prd-digital-harmony", "usr-sophia", "Digital Harmony", 75000},
}

// agent user -> artist users
var relations = map[string][]string{
	"usr-michael": {"usr-emma", "usr-james"},
	"usr-sarah":   {"usr-sophia"},
}

type seedRequest struct {
	artistUser string
	location   string
	agentUser  string
	status     agencydomain.RequestStatus
}

var agentRequests = []seedRequest{
	{"usr-emma", "New York, NY", "usr-michael", agencydomain.RequestAccepted},
	{"usr-james", "Los Angeles, CA", "", agencydomain.RequestPending},
	{"usr-sophia", "San Francisco, CA", "usr-sarah", agencydomain.RequestCompleted},
	{"usr-emma", "Miami, FL", "", agencydomain.RequestPending},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, "text")
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	defer conn.Close()

	ctx := context.Background()
	usersRepo := userrepo.NewPostgresRepository(conn)

	existing, err := usersRepo.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.WithError(err).Fatal("seed check")
	}
	if existing != nil {
		log.Info("Seed already applied (admin@artplatform.com exists). Skipping.")
		return
	}

	if err := seed(ctx, conn, cfg, log); err != nil {
		log.WithError(err).Fatal("seed")
	}
	log.Info("Seed completed successfully.")
	for _, u := range users {
		fmt.Printf("%-10s %-20s %s\n", u.role, u.name, u.id)
	}
}

func seed(ctx context.Context, conn *sql.DB, cfg *config.Config, log logrus.FieldLogger) error {
	now := time.Now().UTC()
	usersRepo := userrepo.NewPostgresRepository(conn)
	profiles := profilerepo.NewPostgresRepository(conn)
	catalog := productrepo.NewPostgresRepository(conn)
	ledger := assignmentservice.NewService(conn, assignmentservice.Config{
		DefaultMaxArtists: cfg.DefaultMaxArtists,
		Timeout:           cfg.Timeout(),
	}, nil, log)
	registry := agencyservice.NewService(conn, cfg.Timeout(), nil, log)

	for _, u := range users {
		if err := usersRepo.Create(ctx, &userdomain.User{ID: u.id, Email: u.email, Name: u.name, CreatedAt: now}); err != nil {
			return fmt.Errorf("create user %s: %w", u.email, err)
		}
		if _, err := ledger.AssignRole(ctx, u.id, u.role, seedActor); err != nil {
			return fmt.Errorf("assign %s to %s: %w", u.role, u.email, err)
		}
	}

	artistIDs := make(map[string]string)
	for _, u := range users {
		if u.role != roledomain.RoleArtist {
			continue
		}
		p, err := profiles.GetArtistByUserID(ctx, u.id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("artist profile for %s was not created", u.email)
		}
		artistIDs[u.id] = p.ID
	}

	for _, p := range products {
		if err := catalog.Create(ctx, &productdomain.Product{
			ID:         p.id,
			ArtistID:   artistIDs[p.artistUser],
			Name:       p.name,
			PriceCents: p.priceCents,
			IsActive:   true,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("create product %q: %w", p.name, err)
		}
	}

	agentIDs := make(map[string]string)
	for _, u := range users {
		if u.role != roledomain.RoleAgent {
			continue
		}
		agent, err := profiles.GetAgentByUserID(ctx, u.id)
		if err != nil {
			return err
		}
		if agent == nil {
			return fmt.Errorf("agent profile for %s was not created", u.email)
		}
		agentIDs[u.id] = agent.ID
	}

	for agentUser, artistUsers := range relations {
		for _, artistUser := range artistUsers {
			if _, err := registry.AssignAgent(ctx, agentIDs[agentUser], artistIDs[artistUser], seedActor); err != nil {
				return fmt.Errorf("assign agent %s to %s: %w", agentUser, artistUser, err)
			}
		}
	}

	for _, r := range agentRequests {
		req, err := registry.CreateRequest(ctx, artistIDs[r.artistUser], r.location, r.artistUser)
		if err != nil {
			return fmt.Errorf("agent request for %s: %w", r.artistUser, err)
		}
		if r.status == agencydomain.RequestPending {
			continue
		}
		if _, _, err := registry.AcceptRequest(ctx, req.ID, agentIDs[r.agentUser], r.agentUser); err != nil {
			return fmt.Errorf("accept agent request %s: %w", req.ID, err)
		}
		if r.status == agencydomain.RequestCompleted {
			if _, err := registry.CompleteRequest(ctx, req.ID, r.agentUser); err != nil {
				return fmt.Errorf("complete agent request %s: %w", req.ID, err)
			}
		}
	}
	return nil
}
