package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func occurrencesOf(e *testEnv, defID uuid.UUID) []*domain.Task {
	var out []*domain.Task
	for _, task := range e.stores.Tasks.All() {
		if task.ParentTaskID != nil && *task.ParentTaskID == defID {
			out = append(out, task)
		}
	}
	return out
}

// A weekly definition last generated eight days ago fires now, and the
// new occurrence starts now.
func TestRecurringGeneration_WeeklyDefinitionFires(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)
	assignee := e.addUser("assignee", domain.UserRoleMember, true)

	def := e.newDefinition("Weekly sync notes", `{"type":"weekly","interval":1}`, owner.ID)
	def.AssignedTo = ptrUUID(assignee.ID)
	def.OccurrenceCount = 1
	def.LastGeneratedAt = ptrTime(testNow.AddDate(0, 0, -8))
	def.StartDate = ptrTime(testNow.AddDate(0, 0, -15))
	def.DueDate = ptrTime(testNow.AddDate(0, 0, -13))
	e.stores.Tasks.Seed(def)
	e.stores.Numbers.Set(e.company.ID, 2025, 6)

	job := NewRecurringGeneration(e.notifier, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))

	occs := occurrencesOf(e, def.ID)
	require.Len(t, occs, 1)
	occ := occs[0]
	assert.Equal(t, "TSK-2025-0007", occ.TaskNumber)
	assert.Equal(t, testNow, *occ.StartDate)
	assert.Equal(t, testNow.Add(48*time.Hour), *occ.DueDate)
	assert.Equal(t, domain.TaskStatusTodo, occ.Status)
	assert.False(t, occ.IsRecurring)
	assert.Equal(t, assignee.ID, *occ.AssignedTo)

	updated, ok := e.stores.Tasks.Get(def.ID)
	require.True(t, ok)
	assert.Equal(t, 2, updated.OccurrenceCount)
	assert.Equal(t, testNow, *updated.LastGeneratedAt)
	assert.Equal(t, 1, e.sess.TxCalls())

	notes := e.stores.Notifications.ForUser(assignee.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationTaskAssigned, notes[0].Type)
	assert.Equal(t, occ.ID, *notes[0].RelatedEntityID)

	mails := e.mailer.Sent()
	require.Len(t, mails, 1)
	assert.Equal(t, "assignee@example.com", mails[0].To)
	assert.Len(t, e.pusher.Pushed(), 1)
}

// A daily definition that already produced its maximum number of
// occurrences never fires again.
func TestRecurringGeneration_StopsAtMaxOccurrences(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)

	def := e.newDefinition("Daily standup", `{"type":"daily","interval":1,"maxOccurrences":3}`, owner.ID)
	def.OccurrenceCount = 3
	def.LastGeneratedAt = ptrTime(testNow.AddDate(0, 0, -40))
	e.stores.Tasks.Seed(def)

	job := NewRecurringGeneration(e.notifier, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))

	assert.Empty(t, occurrencesOf(e, def.ID))
	assert.Zero(t, e.stores.Tasks.CreateCalls)
}

func TestRecurringGeneration_NotYetDue(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)

	def := e.newDefinition("Weekly report", `{"type":"weekly","interval":1}`, owner.ID)
	def.OccurrenceCount = 4
	def.LastGeneratedAt = ptrTime(testNow.AddDate(0, 0, -2))
	e.stores.Tasks.Seed(def)

	job := NewRecurringGeneration(nil, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))
	assert.Empty(t, occurrencesOf(e, def.ID))

	entries := e.logs.EntriesWithMessage("definition not due")
	require.Len(t, entries, 1)
	assert.Equal(t, def.ID.String(), entries[0]["task_id"])
	assert.Equal(t, "2025-03-15T09:00:00Z", entries[0]["next_due"])
}

func TestRecurringGeneration_BadPatternDoesNotAbortBatch(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)

	bad := e.newDefinition("Hourly thing", `{"type":"hourly","interval":1}`, owner.ID)
	broken := e.newDefinition("Broken JSON", `{"type":`, owner.ID)
	good := e.newDefinition("Daily check", `{"type":"daily","interval":1}`, owner.ID)
	good.CreatedAt = good.CreatedAt.Add(time.Minute)
	e.stores.Tasks.Seed(bad, broken, good)

	job := NewRecurringGeneration(nil, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))

	assert.Empty(t, occurrencesOf(e, bad.ID))
	assert.Empty(t, occurrencesOf(e, broken.ID))
	assert.Len(t, occurrencesOf(e, good.ID), 1)

	assert.Len(t, e.logs.EntriesWithMessage("failed to generate occurrence"), 2)
	finished := e.logs.EntriesWithMessage("recurring generation finished")
	require.Len(t, finished, 1)
	assert.EqualValues(t, 1, finished[0]["generated"])
	assert.EqualValues(t, 2, finished[0]["failed"])
}

func TestRecurringGeneration_RetriesTakenNumber(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)
	def := e.newDefinition("Daily check", `{"type":"daily","interval":1}`, owner.ID)
	e.stores.Tasks.Seed(def)

	attempts := 0
	e.stores.Tasks.CreateErr = func(*domain.Task) error {
		attempts++
		if attempts < 3 {
			return store.ErrTaskNumberTaken
		}
		return nil
	}

	job := NewRecurringGeneration(nil, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))

	occs := occurrencesOf(e, def.ID)
	require.Len(t, occs, 1)
	assert.Equal(t, "TSK-2025-0003", occs[0].TaskNumber)
	assert.Equal(t, 3, e.stores.Tasks.CreateCalls)
}

func TestRecurringGeneration_GivesUpAfterThreeConflicts(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)
	def := e.newDefinition("Daily check", `{"type":"daily","interval":1}`, owner.ID)
	e.stores.Tasks.Seed(def)
	e.stores.Tasks.CreateErr = func(*domain.Task) error { return store.ErrTaskNumberTaken }

	job := NewRecurringGeneration(nil, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))

	assert.Equal(t, maxNumberAttempts, e.stores.Tasks.CreateCalls)
	assert.Empty(t, occurrencesOf(e, def.ID))
	stored, _ := e.stores.Tasks.Get(def.ID)
	assert.Zero(t, stored.OccurrenceCount)
}

func TestRecurringGeneration_AllocationFailureIsPerItem(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)
	e.stores.Tasks.Seed(e.newDefinition("Daily check", `{"type":"daily","interval":1}`, owner.ID))
	e.stores.Numbers.Err = errors.New("redis: connection refused")

	job := NewRecurringGeneration(nil, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))
	assert.Zero(t, e.stores.Tasks.CreateCalls)
	assert.Contains(t, e.logs.String(), "failed to allocate task number")
}

func TestRecurringGeneration_ListFailureFailsTick(t *testing.T) {
	e := newTestEnv(t)
	e.stores.Tasks.ListRecurringErr = errors.New("connection reset")

	job := NewRecurringGeneration(nil, e.clock, e.log)
	err := job.Run(context.Background(), e.sess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list recurring definitions")
}

func TestRecurringGeneration_StartDateInFuture(t *testing.T) {
	e := newTestEnv(t)
	owner := e.addUser("owner", domain.UserRoleManager, true)
	def := e.newDefinition("Starts next week", `{"type":"weekly","interval":1}`, owner.ID)
	def.StartDate = ptrTime(testNow.AddDate(0, 0, 7))
	e.stores.Tasks.Seed(def)

	job := NewRecurringGeneration(nil, e.clock, e.log)
	require.NoError(t, job.Run(context.Background(), e.sess))
	assert.Empty(t, occurrencesOf(e, def.ID))

	e.clock.Advance(7 * 24 * time.Hour)
	require.NoError(t, job.Run(context.Background(), e.sess))
	assert.Len(t, occurrencesOf(e, def.ID), 1)
}
