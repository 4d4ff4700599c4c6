package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/logger"
	"github.com/Rrens/pdf-chat/internal/repository/postgres"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to roll back with down (0 = all)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-steps n] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if _, err := logger.Setup(cfg.Logging, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	dsn := cfg.Database.DSN()
	source := cfg.Database.MigrationsURL()

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("source", source).
		Msg("Connecting to database")

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	switch command {
	case "up":
		err = postgres.RunMigrations(dsn, source)
	case "down":
		err = postgres.RollbackMigrations(dsn, source, *steps)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = postgres.MigrationVersion(dsn, source)
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current schema version")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Migration failed")
	}
}
