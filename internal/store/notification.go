package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
// Every operation that takes a userID is scoped to that owner: a notification
// belonging to someone else behaves exactly like a missing one.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser returns the user's notifications, newest first.
	// A non-positive limit means no limit.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error)

	// MarkRead returns ErrNotificationNotFound when no notification with id is owned by userID.
	// Marking an already read notification succeeds without changing ReadAt.
	MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error

	// MarkAllRead returns the number of notifications that changed state.
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)

	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteReadBefore removes read notifications created before cutoff.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
