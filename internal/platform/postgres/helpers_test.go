package postgres

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/stretchr/testify/require"
)

// arrayConverter lets []string arguments through to sqlmock the way the pgx
// driver accepts them.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleTask() *domain.Task {
	due := testNow.Add(48 * time.Hour)
	assignee := uuid.New()
	return &domain.Task{
		ID:         uuid.New(),
		CompanyID:  uuid.New(),
		TaskNumber: "TSK-2025-0001",
		Title:      "Prepare invoice",
		Status:     domain.TaskStatusTodo,
		Priority:   domain.TaskPriorityMedium,
		AssignedTo: &assignee,
		CreatedBy:  uuid.New(),
		DueDate:    &due,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
}

var taskColumnNames = []string{
	"id", "company_id", "project_id", "task_number", "title", "description", "status", "priority",
	"category", "estimated_minutes", "assigned_to", "created_by", "start_date", "due_date", "completed_at",
	"is_recurring", "recurrence_pattern", "parent_task_id", "last_generated_at", "occurrence_count",
	"is_archived", "archived_at", "deleted_at", "created_at", "updated_at",
}

func taskRow(rows *sqlmock.Rows, t *domain.Task) *sqlmock.Rows {
	var assigned, pattern any
	if t.AssignedTo != nil {
		assigned = t.AssignedTo.String()
	}
	if t.RecurrencePattern != "" {
		pattern = t.RecurrencePattern
	}
	var due, lastGen any
	if t.DueDate != nil {
		due = *t.DueDate
	}
	if t.LastGeneratedAt != nil {
		lastGen = *t.LastGeneratedAt
	}
	return rows.AddRow(
		t.ID.String(), t.CompanyID.String(), nil, t.TaskNumber, t.Title, t.Description,
		string(t.Status), string(t.Priority), t.Category, nil, assigned, t.CreatedBy.String(),
		nil, due, nil, t.IsRecurring, pattern, nil, lastGen, t.OccurrenceCount,
		t.IsArchived, nil, nil, t.CreatedAt, t.UpdatedAt,
	)
}

func newPgErr(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint, Message: "mock"}
}
