package jobs

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/mocks"
	"github.com/phrazzld/worktrack/internal/notification"
	"github.com/phrazzld/worktrack/internal/platform/email"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

// testNow is a Monday morning.
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	stores   *mocks.Stores
	sess     *mocks.Session
	pusher   *mocks.Pusher
	mailer   *mocks.Mailer
	renderer *email.Renderer
	notifier *notification.Service
	clock    *clock.Mock
	log      *slog.Logger
	logs     *logger.TestLogBuffer
	company  *domain.Company
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := email.NewRenderer("https://app.worktrack.dev")
	require.NoError(t, err)

	e := &testEnv{
		stores:   mocks.NewStores(),
		pusher:   &mocks.Pusher{},
		mailer:   &mocks.Mailer{},
		renderer: renderer,
		clock:    clock.NewMock(testNow),
		company:  &domain.Company{ID: uuid.New(), Name: "Acme", IsActive: true},
	}
	e.sess = mocks.NewSession(e.stores)
	e.log, e.logs = logger.GetTestLogger(t)
	e.stores.Companies.Companies = []*domain.Company{e.company}

	e.notifier, err = notification.NewService(e.stores.Notifications, e.stores.Users, notification.Channels{
		Pusher:   e.pusher,
		Mailer:   e.mailer,
		Renderer: renderer,
	}, e.clock, e.log)
	require.NoError(t, err)
	return e
}

func (e *testEnv) addUser(name string, role domain.UserRole, verified bool) *domain.User {
	u := &domain.User{
		ID:            uuid.New(),
		CompanyID:     e.company.ID,
		FullName:      name,
		Email:         name + "@example.com",
		EmailVerified: verified,
		Role:          role,
		IsActive:      true,
		CreatedAt:     testNow.AddDate(-1, 0, 0),
	}
	e.stores.Users.Seed(u)
	return u
}

func (e *testEnv) newTask(title string, createdBy uuid.UUID) *domain.Task {
	created := testNow.AddDate(0, 0, -30)
	return &domain.Task{
		ID:         uuid.New(),
		CompanyID:  e.company.ID,
		TaskNumber: domain.FormatTaskNumber(2025, 900+len(e.stores.Tasks.All())),
		Title:      title,
		Status:     domain.TaskStatusTodo,
		Priority:   domain.TaskPriorityMedium,
		CreatedBy:  createdBy,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func (e *testEnv) newDefinition(title, pattern string, createdBy uuid.UUID) *domain.Task {
	def := e.newTask(title, createdBy)
	def.IsRecurring = true
	def.RecurrencePattern = pattern
	return def
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
