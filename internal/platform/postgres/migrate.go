package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

// MigrationTableName is the name of the table used by goose to track migrations.
const MigrationTableName = "schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level. It does not exit; the error is returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func configureGoose(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{logger: logger.With(slog.String("component", "migrations"))})
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Migrate applies all pending embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(logger); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// ResetMigrations rolls back every migration. Used by integration tests.
func ResetMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(logger); err != nil {
		return err
	}
	if err := goose.ResetContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the currently applied migration version.
func MigrationVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := configureGoose(nil); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
