package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
)

const (
	topPerformerLimit = 5
	deadlineLimit     = 20
	deadlineHorizon   = 7 * 24 * time.Hour
)

// PostgresReportStore implements store.ReportStore.
type PostgresReportStore struct {
	db store.DBTX
}

// NewPostgresReportStore creates a report store over db.
func NewPostgresReportStore(db store.DBTX) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

var _ store.ReportStore = (*PostgresReportStore)(nil)

// CompanyMetrics implements store.ReportStore.CompanyMetrics
func (s *PostgresReportStore) CompanyMetrics(
	ctx context.Context,
	company *domain.Company,
	from, to time.Time,
) (*domain.CompanyMetrics, error) {
	m := &domain.CompanyMetrics{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		PeriodStart: from,
		PeriodEnd:   to,
	}

	counts := `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $3),
			COUNT(*) FILTER (WHERE completed_at >= $2 AND completed_at < $3),
			COUNT(*) FILTER (WHERE due_date >= $2 AND due_date < $3
				AND status IN ('todo', 'in_progress', 'in_review') AND is_archived = FALSE)
		FROM tasks
		WHERE company_id = $1 AND deleted_at IS NULL
	`
	err := s.db.QueryRowContext(ctx, counts, company.ID, from, to).
		Scan(&m.TasksCreated, &m.TasksCompleted, &m.TasksOverdue)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", MapError(err))
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM projects
				WHERE company_id = $1 AND status = 'active' AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM users
				WHERE company_id = $1 AND is_active = TRUE AND deleted_at IS NULL)
	`, company.ID).Scan(&m.ActiveProjects, &m.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects and users: %w", MapError(err))
	}

	if m.TopPerformers, err = s.topPerformers(ctx, company, from, to); err != nil {
		return nil, err
	}
	if m.UpcomingDeadlines, err = s.upcomingDeadlines(ctx, company, to); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *PostgresReportStore) topPerformers(
	ctx context.Context,
	company *domain.Company,
	from, to time.Time,
) ([]domain.PerformerStat, error) {
	query := `
		SELECT u.id, u.full_name, COUNT(t.id) AS completed
		FROM tasks t
		JOIN users u ON u.id = t.assigned_to
		WHERE t.company_id = $1 AND t.deleted_at IS NULL
			AND t.completed_at >= $2 AND t.completed_at < $3
		GROUP BY u.id, u.full_name
		ORDER BY completed DESC, u.full_name ASC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, company.ID, from, to, topPerformerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top performers: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var stats []domain.PerformerStat
	for rows.Next() {
		var p domain.PerformerStat
		if err := rows.Scan(&p.UserID, &p.FullName, &p.CompletedCount); err != nil {
			return nil, fmt.Errorf("failed to scan performer row: %w", err)
		}
		stats = append(stats, p)
	}
	return stats, rows.Err()
}

func (s *PostgresReportStore) upcomingDeadlines(
	ctx context.Context,
	company *domain.Company,
	from time.Time,
) ([]domain.DeadlineItem, error) {
	query := `
		SELECT t.id, t.task_number, t.title, t.due_date, u.full_name
		FROM tasks t
		LEFT JOIN users u ON u.id = t.assigned_to
		WHERE t.company_id = $1 AND t.deleted_at IS NULL AND t.is_archived = FALSE
			AND t.status IN ('todo', 'in_progress', 'in_review')
			AND t.due_date >= $2 AND t.due_date < $3
		ORDER BY t.due_date ASC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, company.ID, from, from.Add(deadlineHorizon), deadlineLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming deadlines: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var items []domain.DeadlineItem
	for rows.Next() {
		var (
			d        domain.DeadlineItem
			assignee sql.NullString
		)
		if err := rows.Scan(&d.TaskID, &d.TaskNumber, &d.Title, &d.DueDate, &assignee); err != nil {
			return nil, fmt.Errorf("failed to scan deadline row: %w", err)
		}
		d.AssigneeName = assignee.String
		items = append(items, d)
	}
	return items, rows.Err()
}
