package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
)

// UserStore provides read access to users for notification and report delivery.
type UserStore interface {
	// GetByID returns ErrUserNotFound for missing or soft-deleted users.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ListAdmins returns the active, non-deleted admins of a company.
	ListAdmins(ctx context.Context, companyID uuid.UUID) ([]*domain.User, error)
}

// CompanyStore lists tenants.
type CompanyStore interface {
	ListActive(ctx context.Context) ([]*domain.Company, error)
}
