package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company is a tenant. Every task, user and project belongs to exactly one.
type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// PerformerStat is one row of a report's top-performer table.
type PerformerStat struct {
	UserID         uuid.UUID `json:"user_id"`
	FullName       string    `json:"full_name"`
	CompletedCount int       `json:"completed_count"`
}

// DeadlineItem is an upcoming task deadline shown in a report.
type DeadlineItem struct {
	TaskID       uuid.UUID `json:"task_id"`
	TaskNumber   string    `json:"task_number"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"due_date"`
	AssigneeName string    `json:"assignee_name,omitempty"`
}

// CompanyMetrics aggregates one company's activity over a reporting period.
type CompanyMetrics struct {
	CompanyID         uuid.UUID       `json:"company_id"`
	CompanyName       string          `json:"company_name"`
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	TasksCreated      int             `json:"tasks_created"`
	TasksCompleted    int             `json:"tasks_completed"`
	TasksOverdue      int             `json:"tasks_overdue"`
	ActiveProjects    int             `json:"active_projects"`
	ActiveUsers       int             `json:"active_users"`
	TopPerformers     []PerformerStat `json:"top_performers"`
	UpcomingDeadlines []DeadlineItem  `json:"upcoming_deadlines"`
}

// CompletionRate returns completed/created as a percentage, 0 when nothing was created.
func (m *CompanyMetrics) CompletionRate() float64 {
	if m.TasksCreated == 0 {
		return 0
	}
	return float64(m.TasksCompleted) / float64(m.TasksCreated) * 100
}
