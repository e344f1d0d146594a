// Package main provides the game server binary. It loads the story content,
// wires the combat and story engines into per-connection sessions, and serves
// them over Telnet.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/config"
	"github.com/cory-johannsen/makavia/internal/content"
	"github.com/cory-johannsen/makavia/internal/frontend/handlers"
	"github.com/cory-johannsen/makavia/internal/frontend/telnet"
	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/npc"
	"github.com/cory-johannsen/makavia/internal/game/session"
	"github.com/cory-johannsen/makavia/internal/game/world"
	"github.com/cory-johannsen/makavia/internal/observability"
	"github.com/cory-johannsen/makavia/internal/save"
	"github.com/cory-johannsen/makavia/internal/server"
	"github.com/cory-johannsen/makavia/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "content directory; overrides game.content_dir")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *contentDir != "" {
		cfg.Game.ContentDir = *contentDir
	}

	logger, err := observability.NewLogger(cfg.Logging, "gameserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("content_dir", cfg.Game.ContentDir),
		zap.String("save_backend", cfg.Game.SaveBackend),
	)

	tier, err := world.Parse(cfg.Game.WorldTier)
	if err != nil {
		logger.Fatal("parsing world tier", zap.Error(err))
	}

	bundle, err := content.Load(cfg.Game.ContentDir, cfg.Game.ScriptInstructionLimit, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	if report := bundle.Validate(); !report.OK() {
		for _, f := range report.Findings {
			logger.Warn("content finding", zap.String("finding", f.String()))
		}
	}

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	opponents := npc.NewGenerator(bundle.Templates, inventory.NewGenerator(roller), roller, logger)

	lifecycle := server.NewLifecycle(logger)

	var store save.Store
	switch cfg.Game.SaveBackend {
	case "postgres":
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		if err := pool.CheckSchema(ctx); err != nil {
			pool.Close()
			logger.Fatal("checking save schema", zap.Error(err))
		}
		store = pool.Saves()

		lifecycle.Add("postgres", &server.Periodic{
			Interval: 30 * time.Second,
			Tick:     pool.HealthCheck(logger, 5*time.Second),
			OnStop:   pool.Close,
		})
	default:
		fs, err := save.NewFileStore(cfg.Game.SaveDir)
		if err != nil {
			logger.Fatal("opening save directory", zap.String("dir", cfg.Game.SaveDir), zap.Error(err))
		}
		store = fs
	}

	sessions := session.NewManager()
	gameHandler := handlers.NewGameHandler(handlers.GameConfig{
		Content:      bundle.Session(opponents),
		Players:      func() (*character.Player, error) { return bundle.NewPlayer(tier) },
		StartChapter: cfg.Game.StartChapter,
		Sessions:     sessions,
		Store:        store,
		SessionOptions: []session.Option{
			session.WithRiposteDelay(cfg.Game.RiposteDelay),
		},
		Logger: logger,
	})
	telnetAcceptor := telnet.NewAcceptor(cfg.Telnet, gameHandler, logger)

	lifecycle.Add("telnet", &server.FuncService{
		StartFn: telnetAcceptor.ListenAndServe,
		StopFn: func() {
			telnetAcceptor.Stop()
			sessions.CloseAll()
		},
	})
	lifecycle.Add("sessions", &server.Periodic{
		Interval: time.Minute,
		Tick: func(context.Context) {
			logger.Info("players online",
				zap.Int("sessions", sessions.Count()),
				zap.Int64("games_served", telnetAcceptor.Served()),
			)
		},
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("world_tier", tier.String()),
		zap.String("start_chapter", cfg.Game.StartChapter),
		zap.Int("chapters", len(bundle.Chapters)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
