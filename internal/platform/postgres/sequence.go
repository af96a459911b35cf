package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
)

// PostgresNumberAllocator implements store.NumberAllocator with a counter
// row per (company, year). The first allocation of a year seeds the counter
// from the highest task number already issued, so counters can be
// introduced on a database that already holds numbered tasks.
type PostgresNumberAllocator struct {
	db store.DBTX
}

// NewPostgresNumberAllocator creates an allocator over db. Run it outside
// the transaction that inserts the task so that a failed insert does not
// roll back the increment and hand the same number out again.
func NewPostgresNumberAllocator(db store.DBTX) *PostgresNumberAllocator {
	return &PostgresNumberAllocator{db: db}
}

var _ store.NumberAllocator = (*PostgresNumberAllocator)(nil)

// Next implements store.NumberAllocator.Next
func (a *PostgresNumberAllocator) Next(ctx context.Context, companyID uuid.UUID, year int) (int, error) {
	query := `
		INSERT INTO number_sequences (company_id, year, value)
		VALUES ($1, $2, (
			SELECT COALESCE(MAX(CAST(substring(task_number FROM '[0-9]+$') AS INTEGER)), 0) + 1
			FROM tasks
			WHERE company_id = $1 AND task_number LIKE $3
		))
		ON CONFLICT (company_id, year)
		DO UPDATE SET value = number_sequences.value + 1, updated_at = NOW()
		RETURNING value
	`

	var value int
	err := a.db.QueryRowContext(ctx, query, companyID, year, domain.TaskNumberPattern(year)).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate task number: %w", MapError(err))
	}
	return value, nil
}

// Highest returns the largest sequence number already used by a task of the
// company in year, or 0. Other allocators use it to seed their counters.
func (a *PostgresNumberAllocator) Highest(ctx context.Context, companyID uuid.UUID, year int) (int, error) {
	query := `
		SELECT COALESCE(MAX(CAST(substring(task_number FROM '[0-9]+$') AS INTEGER)), 0)
		FROM tasks
		WHERE company_id = $1 AND task_number LIKE $2
	`

	var highest int
	if err := a.db.QueryRowContext(ctx, query, companyID, domain.TaskNumberPattern(year)).Scan(&highest); err != nil {
		return 0, fmt.Errorf("failed to read highest task number: %w", MapError(err))
	}
	return highest, nil
}
