// Package main runs the worktrack background scheduler: recurring task
// generation, due-date reminders, data retention and weekly reports, plus
// the websocket endpoint that carries realtime notifications.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/worktrack/internal/config"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/platform/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("scheduler failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	appLogger.Info("scheduler configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("redis_enabled", cfg.Redis.URL != ""),
		slog.Bool("smtp_enabled", cfg.SMTP.Host != ""))

	db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, appLogger); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
