package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresTaskStore_Create(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	task := sampleTask()

	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(task.ID, task.CompanyID, sqlmock.AnyArg(), task.TaskNumber, task.Title,
			sqlmock.AnyArg(), "todo", "medium", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			task.CreatedBy, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 0, false, sqlmock.AnyArg(),
			sqlmock.AnyArg(), task.CreatedAt, task.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), task))
}

func TestPostgresTaskStore_Create_InvalidTask(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	task := sampleTask()
	task.Title = ""

	err := s.Create(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestPostgresTaskStore_Create_NumberTaken(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)

	mock.ExpectExec("INSERT INTO tasks").
		WillReturnError(newPgErr("23505", "tasks_company_number_key"))

	err := s.Create(context.Background(), sampleTask())
	assert.ErrorIs(t, err, store.ErrTaskNumberTaken)
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	task := sampleTask()

	mock.ExpectQuery("SELECT .+ FROM tasks WHERE id = \\$1 AND deleted_at IS NULL").
		WithArgs(task.ID).
		WillReturnRows(taskRow(sqlmock.NewRows(taskColumnNames), task))

	got, err := s.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.TaskNumber, got.TaskNumber)
	assert.Equal(t, domain.TaskStatusTodo, got.Status)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, *task.AssignedTo, *got.AssignedTo)
	require.NotNil(t, got.DueDate)
	assert.True(t, task.DueDate.Equal(*got.DueDate))
	assert.Nil(t, got.ProjectID)
	assert.Nil(t, got.EstimatedMinutes)
}

func TestPostgresTaskStore_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)

	mock.ExpectQuery("SELECT .+ FROM tasks").
		WillReturnRows(sqlmock.NewRows(taskColumnNames))

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestPostgresTaskStore_ListRecurringDefinitions(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)

	def := sampleTask()
	def.IsRecurring = true
	def.RecurrencePattern = `{"type":"weekly","interval":1}`
	def.OccurrenceCount = 2
	lastGen := testNow.Add(-8 * 24 * time.Hour)
	def.LastGeneratedAt = &lastGen

	mock.ExpectQuery("WHERE is_recurring = TRUE\\s+AND is_archived = FALSE\\s+AND deleted_at IS NULL\\s+AND status <> 'cancelled'").
		WillReturnRows(taskRow(sqlmock.NewRows(taskColumnNames), def))

	defs, err := s.ListRecurringDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.True(t, defs[0].IsRecurring)
	assert.Equal(t, def.RecurrencePattern, defs[0].RecurrencePattern)
	assert.Equal(t, 2, defs[0].OccurrenceCount)
	require.NotNil(t, defs[0].LastGeneratedAt)
	assert.True(t, lastGen.Equal(*defs[0].LastGeneratedAt))
}

func TestPostgresTaskStore_MarkGenerated(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	id := uuid.New()

	mock.ExpectExec("UPDATE tasks\\s+SET last_generated_at = \\$2, occurrence_count = occurrence_count \\+ 1").
		WithArgs(id, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.MarkGenerated(context.Background(), id, testNow))

	mock.ExpectExec("UPDATE tasks").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.MarkGenerated(context.Background(), uuid.New(), testNow)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestPostgresTaskStore_ArchiveCompletedBefore(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	cutoff := testNow.AddDate(0, -6, 0)

	mock.ExpectExec("UPDATE tasks\\s+SET is_archived = TRUE").
		WithArgs(cutoff, testNow).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := s.ArchiveCompletedBefore(context.Background(), cutoff, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestPostgresTaskStore_Find(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	after, before := testNow, testNow.Add(24*time.Hour)
	archived := false

	mock.ExpectQuery(
		"FROM tasks WHERE deleted_at IS NULL AND status = ANY\\(\\$1\\) AND due_date > \\$2 "+
			"AND due_date <= \\$3 AND is_archived = \\$4 AND assigned_to IS NOT NULL "+
			"ORDER BY due_date ASC NULLS LAST, created_at ASC LIMIT \\$5").
		WithArgs([]string{"todo", "in_progress", "in_review"}, after, before, false, 50).
		WillReturnRows(taskRow(sqlmock.NewRows(taskColumnNames), sampleTask()))

	tasks, err := s.Find(context.Background(), store.TaskFilter{
		Statuses:     store.OpenStatuses(),
		DueAfter:     &after,
		DueBefore:    &before,
		IsArchived:   &archived,
		AssignedOnly: true,
		Limit:        50,
	})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestPostgresTaskStore_Count_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	company := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tasks WHERE deleted_at IS NULL AND company_id = \\$1").
		WithArgs(company).
		WillReturnError(errors.New("connection reset"))

	_, err := s.Count(context.Background(), store.TaskFilter{CompanyID: &company})
	assert.Error(t, err)
}

func TestBuildTaskFilter_Empty(t *testing.T) {
	where, args := buildTaskFilter(store.TaskFilter{IncludeDeleted: true})
	assert.Empty(t, where)
	assert.Empty(t, args)

	recurring := true
	where, args = buildTaskFilter(store.TaskFilter{
		IsRecurring:     &recurring,
		ExcludeStatuses: []domain.TaskStatus{domain.TaskStatusCancelled},
	})
	assert.Equal(t, " WHERE deleted_at IS NULL AND status <> ALL($1) AND is_recurring = $2", where)
	assert.Equal(t, []any{[]string{"cancelled"}, true}, args)
}
