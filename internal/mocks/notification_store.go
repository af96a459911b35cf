package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
)

// NotificationStore is an in-memory store.NotificationStore.
type NotificationStore struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*domain.Notification

	CreateErr     error
	DeleteReadErr error
}

// NewNotificationStore creates an empty NotificationStore.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notifications: make(map[uuid.UUID]*domain.Notification)}
}

var _ store.NotificationStore = (*NotificationStore)(nil)

func copyNotification(n *domain.Notification) *domain.Notification {
	c := *n
	return &c
}

// Seed stores notifications as given.
func (s *NotificationStore) Seed(ns ...*domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range ns {
		s.notifications[n.ID] = copyNotification(n)
	}
}

// All returns every stored notification, oldest first.
func (s *NotificationStore) All() []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, copyNotification(n))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ForUser returns every notification owned by userID, oldest first.
func (s *NotificationStore) ForUser(userID uuid.UUID) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range s.All() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// Create implements store.NotificationStore.
func (s *NotificationStore) Create(_ context.Context, n *domain.Notification) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.notifications[n.ID]; exists {
		return fmt.Errorf("%w: notification id", store.ErrDuplicate)
	}
	s.notifications[n.ID] = copyNotification(n)
	return nil
}

// ListByUser implements store.NotificationStore.
func (s *NotificationStore) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, copyNotification(n))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRead implements store.NotificationStore.
func (s *NotificationStore) MarkRead(_ context.Context, id, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotificationNotFound
	}
	n.MarkRead(at)
	return nil
}

// MarkAllRead implements store.NotificationStore.
func (s *NotificationStore) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.MarkRead(at)
			changed++
		}
	}
	return changed, nil
}

// Delete implements store.NotificationStore.
func (s *NotificationStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotificationNotFound
	}
	delete(s.notifications, id)
	return nil
}

// CountUnread implements store.NotificationStore.
func (s *NotificationStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// DeleteReadBefore implements store.NotificationStore.
func (s *NotificationStore) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if s.DeleteReadErr != nil {
		return 0, s.DeleteReadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, notif := range s.notifications {
		if notif.IsRead && notif.CreatedAt.Before(cutoff) {
			delete(s.notifications, id)
			n++
		}
	}
	return n, nil
}
