package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationColumnNames = []string{
	"id", "user_id", "title", "message", "type", "priority",
	"related_entity_type", "related_entity_id", "is_read", "read_at", "created_at",
}

func TestPostgresNotificationStore_Create(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresNotificationStore(db, nil)

	n, err := domain.NewNotification(uuid.New(), "Task assigned", "TSK-2025-0001",
		domain.NotificationTaskAssigned, "", testNow)
	require.NoError(t, err)
	taskID := uuid.New()
	n.RelatedEntityType = "task"
	n.RelatedEntityID = &taskID

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(n.ID, n.UserID, n.Title, n.Message, "task_assigned", "normal",
			"task", taskID, false, nil, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), n))
}

func TestPostgresNotificationStore_ListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresNotificationStore(db, nil)
	userID := uuid.New()

	rows := sqlmock.NewRows(notificationColumnNames).
		AddRow(uuid.NewString(), userID.String(), "Overdue", "TSK-2025-0002", "task_overdue", "high",
			"task", uuid.NewString(), false, nil, testNow)

	mock.ExpectQuery("FROM notifications WHERE user_id = \\$1 AND is_read = FALSE ORDER BY created_at DESC LIMIT \\$2").
		WithArgs(userID, 20).
		WillReturnRows(rows)

	list, err := s.ListByUser(context.Background(), userID, true, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationTaskOverdue, list[0].Type)
	assert.Equal(t, domain.NotificationPriorityHigh, list[0].Priority)
	assert.NotNil(t, list[0].RelatedEntityID)
	assert.Nil(t, list[0].ReadAt)
}

func TestPostgresNotificationStore_MarkRead_ForeignOwner(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresNotificationStore(db, nil)
	id, stranger := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE notifications\\s+SET is_read = TRUE, read_at = COALESCE\\(read_at, \\$3\\)\\s+WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(id, stranger, testNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MarkRead(context.Background(), id, stranger, testNow)
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)
}

func TestPostgresNotificationStore_MarkAllRead(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresNotificationStore(db, nil)
	userID := uuid.New()

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE, read_at = \\$2 WHERE user_id = \\$1 AND is_read = FALSE").
		WithArgs(userID, testNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.MarkAllRead(context.Background(), userID, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPostgresNotificationStore_DeleteAndCount(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresNotificationStore(db, nil)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM notifications WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(id, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Delete(context.Background(), id, userID), store.ErrNotificationNotFound)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM notifications WHERE user_id = \\$1 AND is_read = FALSE").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	count, err := s.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	cutoff := testNow.AddDate(0, 0, -30)
	mock.ExpectExec("DELETE FROM notifications WHERE is_read = TRUE AND created_at < \\$1").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))
	deleted, err := s.DeleteReadBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
}
