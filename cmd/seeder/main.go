package main

import (
	"os"

	"github.com/floracrm/flowershop-backend/internal/config"
	"github.com/floracrm/flowershop-backend/internal/db"
	"github.com/floracrm/flowershop-backend/internal/logger"
)

func main() {
	log := logger.New("seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	seedFiles := []string{
		"seed/schema.sql",
		"seed/shops.sql",
		"seed/customers.sql",
		"seed/products.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}
		if _, err := conn.Exec(string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		log.Info().Str("file", file).Msg("seeded")
	}

	log.Info().Msg("database seeding completed")
}
