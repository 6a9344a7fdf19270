// Command migrate applies or rolls back the embedded schema migrations.
package main

import (
	"flag"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/config"
	"github.com/fitforxe/gym-backend/internal/database"
	"github.com/fitforxe/gym-backend/internal/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logger.Init("dev", "info")
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.Env, cfg.LogLevel)

	if err := database.Migrate(cfg.MigrateURL(), *direction); err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("migrate")
	}
	log.Info().Str("direction", *direction).Msg("migrations complete")
}
