package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/store"
)

// PostgresReminderLedger implements store.ReminderLedger with one row per
// key. A claim succeeds when the key is new or its previous claim expired.
type PostgresReminderLedger struct {
	db    store.DBTX
	clock clock.Clock
}

// NewPostgresReminderLedger creates a ledger over db.
func NewPostgresReminderLedger(db store.DBTX, c clock.Clock) *PostgresReminderLedger {
	if c == nil {
		c = clock.System{}
	}
	return &PostgresReminderLedger{db: db, clock: c}
}

var _ store.ReminderLedger = (*PostgresReminderLedger)(nil)

// Claim implements store.ReminderLedger.Claim
func (l *PostgresReminderLedger) Claim(ctx context.Context, key string, window time.Duration) (bool, error) {
	now := l.clock.Now()

	query := `
		INSERT INTO reminder_ledger (key, claimed_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
			SET claimed_at = EXCLUDED.claimed_at, expires_at = EXCLUDED.expires_at
			WHERE reminder_ledger.expires_at <= EXCLUDED.claimed_at
		RETURNING key
	`

	var claimed string
	err := l.db.QueryRowContext(ctx, query, key, now, now.Add(window)).Scan(&claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder %q: %w", key, MapError(err))
	}
	return true, nil
}

// PurgeExpired removes claims that expired before now.
func (l *PostgresReminderLedger) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := l.db.ExecContext(ctx, `DELETE FROM reminder_ledger WHERE expires_at <= $1`, l.clock.Now())
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}
