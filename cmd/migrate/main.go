// migrate runs DB migrations from embedded SQL. Usage: go run ./cmd/migrate -direction up
package main

import (
	"flag"

	"handicraft-marketplace/backend/internal/config"
	"handicraft-marketplace/backend/internal/db/migrate"
	"handicraft-marketplace/backend/internal/platform/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, "text")

	if _, err := migrate.ParseDirection(*direction); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	log.WithField("direction", *direction).Info("migrations applied")
}
