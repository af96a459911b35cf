package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
)

// TaskFilter narrows a task query. Zero-valued fields are ignored.
// DueAfter is exclusive and DueBefore is inclusive, so consecutive windows
// never share a task.
type TaskFilter struct {
	CompanyID       *uuid.UUID
	Statuses        []domain.TaskStatus
	ExcludeStatuses []domain.TaskStatus
	DueAfter        *time.Time
	DueBefore       *time.Time
	IsRecurring     *bool
	IsArchived      *bool
	IncludeDeleted  bool
	AssignedOnly    bool
	Limit           int
}

// OpenStatuses lists every status a reminder may still be sent for.
func OpenStatuses() []domain.TaskStatus {
	return []domain.TaskStatus{
		domain.TaskStatusTodo,
		domain.TaskStatusInProgress,
		domain.TaskStatusInReview,
	}
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create inserts a new task. A task number already used within the
	// company yields ErrTaskNumberTaken.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns ErrTaskNotFound when the task does not exist or is soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update saves status, assignment, schedule and archive fields of an existing task.
	Update(ctx context.Context, task *domain.Task) error

	Find(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)

	// ListRecurringDefinitions returns recurring tasks that are not archived,
	// cancelled or soft-deleted, across all tenants.
	ListRecurringDefinitions(ctx context.Context) ([]*domain.Task, error)

	// MarkGenerated records that an occurrence of definition id was created at
	// the given instant and increments its occurrence counter.
	MarkGenerated(ctx context.Context, id uuid.UUID, at time.Time) error

	// ArchiveCompletedBefore archives completed, unarchived tasks whose
	// completion precedes cutoff and returns the number archived.
	ArchiveCompletedBefore(ctx context.Context, cutoff, now time.Time) (int64, error)
}
