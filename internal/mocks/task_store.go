package mocks

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
)

// TaskStore is an in-memory store.TaskStore. Tasks are copied on the way in
// and out so callers cannot mutate stored state.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	// CreateErr, when set, is consulted before every insert.
	CreateErr           func(task *domain.Task) error
	FindErr             error
	ListRecurringErr    error
	MarkGeneratedErr    error
	ArchiveCompletedErr error

	// CreateCalls counts insert attempts, including failed ones.
	CreateCalls int
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

var _ store.TaskStore = (*TaskStore)(nil)

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	return &c
}

// Seed stores tasks without validation or number checks.
func (s *TaskStore) Seed(tasks ...*domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		s.tasks[t.ID] = copyTask(t)
	}
}

// All returns every stored task, including soft-deleted ones, ordered by creation.
func (s *TaskStore) All() []*domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, copyTask(t))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Get returns a stored task by ID regardless of its state.
func (s *TaskStore) Get(id uuid.UUID) (*domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return copyTask(t), true
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++

	if s.CreateErr != nil {
		if err := s.CreateErr(task); err != nil {
			return err
		}
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("%w: task id", store.ErrDuplicate)
	}
	for _, t := range s.tasks {
		if t.CompanyID == task.CompanyID && t.TaskNumber == task.TaskNumber {
			return store.ErrTaskNumberTaken
		}
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.DeletedAt != nil {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(t), nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[task.ID]
	if !ok || t.DeletedAt != nil {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func matches(t *domain.Task, f store.TaskFilter) bool {
	if f.CompanyID != nil && t.CompanyID != *f.CompanyID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if slices.Contains(f.ExcludeStatuses, t.Status) {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || !t.DueDate.After(*f.DueAfter)) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*f.DueBefore)) {
		return false
	}
	if f.IsRecurring != nil && t.IsRecurring != *f.IsRecurring {
		return false
	}
	if f.IsArchived != nil && t.IsArchived != *f.IsArchived {
		return false
	}
	if !f.IncludeDeleted && t.DeletedAt != nil {
		return false
	}
	if f.AssignedOnly && t.AssignedTo == nil {
		return false
	}
	return true
}

// Find implements store.TaskStore, ordering by due date (nulls last) then creation.
func (s *TaskStore) Find(_ context.Context, f store.TaskFilter) ([]*domain.Task, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Task
	for _, t := range s.tasks {
		if matches(t, f) {
			out = append(out, copyTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Count implements store.TaskStore.
func (s *TaskStore) Count(ctx context.Context, f store.TaskFilter) (int, error) {
	f.Limit = 0
	tasks, err := s.Find(ctx, f)
	return len(tasks), err
}

// ListRecurringDefinitions implements store.TaskStore.
func (s *TaskStore) ListRecurringDefinitions(_ context.Context) ([]*domain.Task, error) {
	if s.ListRecurringErr != nil {
		return nil, s.ListRecurringErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Task
	for _, t := range s.tasks {
		if t.IsRecurring && !t.IsArchived && t.Status != domain.TaskStatusCancelled && t.DeletedAt == nil {
			out = append(out, copyTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MarkGenerated implements store.TaskStore.
func (s *TaskStore) MarkGenerated(_ context.Context, id uuid.UUID, at time.Time) error {
	if s.MarkGeneratedErr != nil {
		return s.MarkGeneratedErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || !t.IsRecurring || t.DeletedAt != nil {
		return store.ErrTaskNotFound
	}
	generated := at
	t.LastGeneratedAt = &generated
	t.OccurrenceCount++
	t.UpdatedAt = at
	return nil
}

// ArchiveCompletedBefore implements store.TaskStore.
func (s *TaskStore) ArchiveCompletedBefore(_ context.Context, cutoff, now time.Time) (int64, error) {
	if s.ArchiveCompletedErr != nil {
		return 0, s.ArchiveCompletedErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tasks {
		if t.Status == domain.TaskStatusCompleted && !t.IsArchived && t.DeletedAt == nil &&
			t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			archivedAt := now
			t.IsArchived = true
			t.ArchivedAt = &archivedAt
			t.UpdatedAt = now
			n++
		}
	}
	return n, nil
}
