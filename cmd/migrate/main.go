// Package main applies the save-game schema migrations.
package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/config"
	"github.com/cory-johannsen/makavia/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	source := flag.String("migrations", "file://migrations", "migration source URL")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "migrate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	m, err := migrate.New(*source, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("creating migrator", zap.Error(err))
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	default:
		logger.Fatal("invalid direction: must be 'up' or 'down'", zap.String("direction", *direction))
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		logger.Fatal("migration failed", zap.Error(err))
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations complete",
		zap.String("direction", *direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("no_change", noChange),
		zap.Duration("elapsed", time.Since(start)),
	)
}
