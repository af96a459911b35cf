package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
)

// UserStore is an in-memory store.UserStore.
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	GetByIDErr    error
	ListAdminsErr func(companyID uuid.UUID) error
}

// NewUserStore creates a UserStore holding users.
func NewUserStore(users ...*domain.User) *UserStore {
	s := &UserStore{users: make(map[uuid.UUID]*domain.User)}
	s.Seed(users...)
	return s
}

var _ store.UserStore = (*UserStore)(nil)

// Seed adds or replaces users.
func (s *UserStore) Seed(users ...*domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		c := *u
		s.users[u.ID] = &c
	}
}

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if s.GetByIDErr != nil {
		return nil, s.GetByIDErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, store.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// ListAdmins implements store.UserStore.
func (s *UserStore) ListAdmins(_ context.Context, companyID uuid.UUID) ([]*domain.User, error) {
	if s.ListAdminsErr != nil {
		if err := s.ListAdminsErr(companyID); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.User
	for _, u := range s.users {
		if u.CompanyID == companyID && u.Role == domain.UserRoleAdmin && u.IsActive && u.DeletedAt == nil {
			c := *u
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CompanyStore is an in-memory store.CompanyStore.
type CompanyStore struct {
	Companies []*domain.Company
	Err       error
}

var _ store.CompanyStore = (*CompanyStore)(nil)

// ListActive implements store.CompanyStore.
func (s *CompanyStore) ListActive(context.Context) ([]*domain.Company, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*domain.Company
	for _, c := range s.Companies {
		if c.IsActive {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}
