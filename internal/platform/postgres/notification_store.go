package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/store"
)

const notificationColumns = `id, user_id, title, message, type, priority,
	related_entity_type, related_entity_id, is_read, read_at, created_at`

// PostgresNotificationStore implements the store.NotificationStore interface.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a notification store over db.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Message,
		string(n.Type),
		string(n.Priority),
		nullString(n.RelatedEntityType),
		nullUUID(n.RelatedEntityID),
		n.IsRead,
		nullTime(n.ReadAt),
		n.CreatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create notification",
			slog.String("notification_id", n.ID.String()),
			slog.String("user_id", n.UserID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// ListByUser implements store.NotificationStore.ListByUser
func (s *PostgresNotificationStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $2`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return out, nil
}

// MarkRead implements store.NotificationStore.MarkRead
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, userID, at)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	query := `UPDATE notifications SET is_read = TRUE, read_at = $2 WHERE user_id = $1 AND is_read = FALSE`

	result, err := s.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

// Delete implements store.NotificationStore.Delete
func (s *PostgresNotificationStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// CountUnread implements store.NotificationStore.CountUnread
func (s *PostgresNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// DeleteReadBefore implements store.NotificationStore.DeleteReadBefore
func (s *PostgresNotificationStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n             domain.Notification
		typ, priority string
		entityType    sql.NullString
		entityID      uuid.NullUUID
		readAt        sql.NullTime
	)

	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &priority,
		&entityType, &entityID, &n.IsRead, &readAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	n.Type = domain.NotificationType(typ)
	n.Priority = domain.NotificationPriority(priority)
	n.RelatedEntityType = entityType.String
	n.RelatedEntityID = uuidPtr(entityID)
	n.ReadAt = timePtr(readAt)
	return &n, nil
}
