package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/platform/postgres"
	"github.com/phrazzld/worktrack/internal/redact"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

var migrateOnce sync.Once

// IsIntegrationTestEnvironment returns true if a test database URL is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDatabaseURL returns DATABASE_URL, falling back to WORKTRACK_TEST_DB_URL.
func GetTestDatabaseURL() string {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}
	return os.Getenv("WORKTRACK_TEST_DB_URL")
}

// GetTestDBWithT opens the test database and applies migrations once per
// test binary. It skips the test when no database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL or WORKTRACK_TEST_DB_URL not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, dbURL, 10)
	require.NoError(t, err, "failed to open test database %s", redact.URL(dbURL))

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(context.Background(), db, logger.Discard())
	})
	require.NoError(t, migrateErr, "failed to run migrations")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// Truncate empties every application table. Tests that go through a
// SessionFactory commit their writes and use this for cleanup instead of WithTx.
func Truncate(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`
		TRUNCATE reminder_ledger, notifications, number_sequences, attachments,
			tasks, projects, clients, users, companies CASCADE
	`)
	require.NoError(t, err, "failed to truncate tables")
}
