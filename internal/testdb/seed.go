package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/platform/postgres"
	"github.com/phrazzld/worktrack/internal/store"
	"github.com/stretchr/testify/require"
)

// InsertCompany creates an active company.
func InsertCompany(t *testing.T, db store.DBTX, name string) *domain.Company {
	t.Helper()

	c := &domain.Company{ID: uuid.New(), Name: name, IsActive: true, CreatedAt: time.Now().UTC()}
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO companies (id, name, is_active, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.IsActive, c.CreatedAt)
	require.NoError(t, err, "failed to insert company")
	return c
}

// InsertUser creates an active user with a verified address.
func InsertUser(t *testing.T, db store.DBTX, companyID uuid.UUID, role domain.UserRole) *domain.User {
	t.Helper()

	now := time.Now().UTC()
	id := uuid.New()
	u := &domain.User{
		ID:            id,
		CompanyID:     companyID,
		FullName:      "User " + id.String()[:8],
		Email:         id.String()[:8] + "@example.com",
		EmailVerified: true,
		Role:          role,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, company_id, full_name, email, email_verified, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.CompanyID, u.FullName, u.Email, u.EmailVerified, string(u.Role), u.IsActive, u.CreatedAt, u.UpdatedAt)
	require.NoError(t, err, "failed to insert user")
	return u
}

// InsertTask stores task through the task store, filling ID, number and
// timestamps when they are unset.
func InsertTask(t *testing.T, db store.DBTX, task *domain.Task) *domain.Task {
	t.Helper()

	now := time.Now().UTC()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.TaskNumber == "" {
		task.TaskNumber = "TSK-SEED-" + task.ID.String()[:8]
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}

	err := postgres.NewPostgresTaskStore(db, nil).Create(context.Background(), task)
	require.NoError(t, err, "failed to insert task")
	return task
}
