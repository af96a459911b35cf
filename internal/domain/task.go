package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusInReview   TaskStatus = "in_review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsOpen reports whether work on a task in this status is still expected.
func (s TaskStatus) IsOpen() bool {
	return s != TaskStatusCompleted && s != TaskStatusCancelled
}

// TaskPriority ranks how urgent a task is.
type TaskPriority string

// Possible task priorities
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// TaskNumberPrefix prefixes every human-readable task number.
const TaskNumberPrefix = "TSK"

// Task is a unit of tracked work owned by a company.
//
// A task is either a recurring definition (IsRecurring with a
// RecurrencePattern) or an ordinary task; ordinary tasks generated from a
// definition carry ParentTaskID.
type Task struct {
	ID               uuid.UUID    `json:"id"`
	CompanyID        uuid.UUID    `json:"company_id"`
	ProjectID        *uuid.UUID   `json:"project_id,omitempty"`
	TaskNumber       string       `json:"task_number"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Status           TaskStatus   `json:"status"`
	Priority         TaskPriority `json:"priority"`
	Category         string       `json:"category"`
	EstimatedMinutes *int         `json:"estimated_minutes,omitempty"`
	AssignedTo       *uuid.UUID   `json:"assigned_to,omitempty"`
	CreatedBy        uuid.UUID    `json:"created_by"`
	StartDate        *time.Time   `json:"start_date,omitempty"`
	DueDate          *time.Time   `json:"due_date,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`

	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
	ParentTaskID      *uuid.UUID `json:"parent_task_id,omitempty"`
	LastGeneratedAt   *time.Time `json:"last_generated_at,omitempty"`
	OccurrenceCount   int        `json:"occurrence_count"`

	IsArchived bool       `json:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Validate checks the task's invariants.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil || t.CompanyID == uuid.Nil {
		return ErrInvalidID
	}
	if t.Title == "" {
		return fmt.Errorf("%w: title", ErrEmptyContent)
	}
	if !isValidTaskStatus(t.Status) {
		return ErrInvalidStatus
	}
	if !isValidTaskPriority(t.Priority) {
		return ErrInvalidPriority
	}
	if t.IsRecurring && t.ParentTaskID != nil {
		return ErrRecurringOccurrence
	}
	return nil
}

// IsOpen reports whether the task still needs attention: not completed,
// cancelled, archived or soft-deleted.
func (t *Task) IsOpen() bool {
	return t.Status.IsOpen() && !t.IsArchived && t.DeletedAt == nil
}

// FormatTaskNumber renders a tenant-scoped task number, e.g. TSK-2025-0042.
func FormatTaskNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", TaskNumberPrefix, year, seq)
}

// TaskNumberPattern is the SQL LIKE pattern matching every task number issued in year.
func TaskNumberPattern(year int) string {
	return fmt.Sprintf("%s-%d-%%", TaskNumberPrefix, year)
}

func isValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview,
		TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

func isValidTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}
