package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
)

const userColumns = `id, company_id, full_name, email, email_verified, role, is_active,
	deleted_at, created_at, updated_at`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}
	return u, nil
}

// ListAdmins implements store.UserStore.ListAdmins
func (s *PostgresUserStore) ListAdmins(ctx context.Context, companyID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE company_id = $1 AND role = 'admin' AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.CompanyID, &u.FullName, &u.Email, &u.EmailVerified, &role,
		&u.IsActive, &deletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	u.DeletedAt = timePtr(deletedAt)
	return &u, nil
}

// PostgresCompanyStore implements store.CompanyStore.
type PostgresCompanyStore struct {
	db store.DBTX
}

// NewPostgresCompanyStore creates a company store over db.
func NewPostgresCompanyStore(db store.DBTX) *PostgresCompanyStore {
	return &PostgresCompanyStore{db: db}
}

var _ store.CompanyStore = (*PostgresCompanyStore)(nil)

// ListActive implements store.CompanyStore.ListActive
func (s *PostgresCompanyStore) ListActive(ctx context.Context) ([]*domain.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, is_active, created_at FROM companies WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var companies []*domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		companies = append(companies, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", err)
	}
	return companies, nil
}
