package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/store"
)

const taskColumns = `id, company_id, project_id, task_number, title, description, status, priority,
	category, estimated_minutes, assigned_to, created_by, start_date, due_date, completed_at,
	is_recurring, recurrence_pattern, parent_task_id, last_generated_at, occurrence_count,
	is_archived, archived_at, deleted_at, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a pool, connection or transaction managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.CompanyID,
		nullUUID(task.ProjectID),
		task.TaskNumber,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.Category,
		nullInt(task.EstimatedMinutes),
		nullUUID(task.AssignedTo),
		task.CreatedBy,
		nullTime(task.StartDate),
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		task.IsRecurring,
		nullString(task.RecurrencePattern),
		nullUUID(task.ParentTaskID),
		nullTime(task.LastGeneratedAt),
		task.OccurrenceCount,
		task.IsArchived,
		nullTime(task.ArchivedAt),
		nullTime(task.DeletedAt),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("task_id", task.ID.String()),
			slog.String("task_number", task.TaskNumber),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}
	return task, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, category = $6,
			estimated_minutes = $7, assigned_to = $8, start_date = $9, due_date = $10,
			completed_at = $11, recurrence_pattern = $12, is_archived = $13,
			archived_at = $14, updated_at = $15
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.Category,
		nullInt(task.EstimatedMinutes),
		nullUUID(task.AssignedTo),
		nullTime(task.StartDate),
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		nullString(task.RecurrencePattern),
		task.IsArchived,
		nullTime(task.ArchivedAt),
		task.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Find implements store.TaskStore.Find
func (s *PostgresTaskStore) Find(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	where, args := buildTaskFilter(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY due_date ASC NULLS LAST, created_at ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return s.queryTasks(ctx, query, args...)
}

// Count implements store.TaskStore.Count
func (s *PostgresTaskStore) Count(ctx context.Context, filter store.TaskFilter) (int, error) {
	where, args := buildTaskFilter(filter)

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// ListRecurringDefinitions implements store.TaskStore.ListRecurringDefinitions
func (s *PostgresTaskStore) ListRecurringDefinitions(ctx context.Context) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE is_recurring = TRUE
			AND is_archived = FALSE
			AND deleted_at IS NULL
			AND status <> 'cancelled'
		ORDER BY company_id, created_at
	`
	return s.queryTasks(ctx, query)
}

// MarkGenerated implements store.TaskStore.MarkGenerated
func (s *PostgresTaskStore) MarkGenerated(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE tasks
		SET last_generated_at = $2, occurrence_count = occurrence_count + 1
		WHERE id = $1 AND is_recurring = TRUE
	`

	result, err := s.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// ArchiveCompletedBefore implements store.TaskStore.ArchiveCompletedBefore
func (s *PostgresTaskStore) ArchiveCompletedBefore(ctx context.Context, cutoff, now time.Time) (int64, error) {
	query := `
		UPDATE tasks
		SET is_archived = TRUE, archived_at = $2, updated_at = $2
		WHERE status = 'completed'
			AND is_archived = FALSE
			AND deleted_at IS NULL
			AND completed_at < $1
	`

	result, err := s.db.ExecContext(ctx, query, cutoff, now)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// buildTaskFilter renders filter as a WHERE clause with positional arguments.
func buildTaskFilter(f store.TaskFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if f.CompanyID != nil {
		add("company_id = $%d", *f.CompanyID)
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", statusStrings(f.Statuses))
	}
	if len(f.ExcludeStatuses) > 0 {
		add("status <> ALL($%d)", statusStrings(f.ExcludeStatuses))
	}
	if f.DueAfter != nil {
		add("due_date > $%d", *f.DueAfter)
	}
	if f.DueBefore != nil {
		add("due_date <= $%d", *f.DueBefore)
	}
	if f.IsRecurring != nil {
		add("is_recurring = $%d", *f.IsRecurring)
	}
	if f.IsArchived != nil {
		add("is_archived = $%d", *f.IsArchived)
	}
	if f.AssignedOnly {
		conds = append(conds, "assigned_to IS NOT NULL")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func statusStrings(statuses []domain.TaskStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t                                        domain.Task
		status, priority                         string
		projectID, assignedTo, parentTaskID      uuid.NullUUID
		estimated                                sql.NullInt32
		pattern                                  sql.NullString
		startDate, dueDate, completedAt, lastGen sql.NullTime
		archivedAt, deletedAt                    sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.CompanyID, &projectID, &t.TaskNumber, &t.Title, &t.Description, &status, &priority,
		&t.Category, &estimated, &assignedTo, &t.CreatedBy, &startDate, &dueDate, &completedAt,
		&t.IsRecurring, &pattern, &parentTaskID, &lastGen, &t.OccurrenceCount,
		&t.IsArchived, &archivedAt, &deletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.ProjectID = uuidPtr(projectID)
	t.AssignedTo = uuidPtr(assignedTo)
	t.ParentTaskID = uuidPtr(parentTaskID)
	if estimated.Valid {
		v := int(estimated.Int32)
		t.EstimatedMinutes = &v
	}
	t.RecurrencePattern = pattern.String
	t.StartDate = timePtr(startDate)
	t.DueDate = timePtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	t.LastGeneratedAt = timePtr(lastGen)
	t.ArchivedAt = timePtr(archivedAt)
	t.DeletedAt = timePtr(deletedAt)

	return &t, nil
}
