package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/duskhall/duskhall/internal/config"
	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/db"
	"github.com/duskhall/duskhall/internal/game/combat"
	"github.com/duskhall/duskhall/internal/game/session"
	"github.com/duskhall/duskhall/internal/game/tick"
)

const GameConfigPath = "config/gameserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfgPath := GameConfigPath
	if p := os.Getenv("DUSKHALL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadGameServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("duskhall combat core starting",
		"log_level", cfg.LogLevel,
		"tick_interval", cfg.TickInterval())

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	store, err := session.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to session cache: %w", err)
	}
	slog.Info("session cache connected", "addr", cfg.Redis.Addr)

	registry := data.Default()
	sessions := session.NewManager(store, cfg.SessionTTL())
	characters := db.NewCharacterRepository(database.Pool())

	orchestrator := tick.New(registry, sessions, characters, tick.Options{
		Interval:   cfg.TickInterval(),
		ChainDepth: cfg.ChainEventMaxDepth,
		Caps: combat.Caps{
			Resistance: cfg.ResistanceCap,
			Dodge:      cfg.DodgeCap,
			Block:      cfg.BlockCap,
			Parry:      cfg.ParryCap,
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := orchestrator.Run(gctx); err != nil {
			return fmt.Errorf("tick orchestrator: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
