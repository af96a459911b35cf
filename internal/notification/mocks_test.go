package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockPusher mocks the Pusher interface
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) PushToUser(ctx context.Context, userID uuid.UUID, payload any) error {
	args := m.Called(ctx, userID, payload)
	return args.Error(0)
}

// MockMailer mocks the Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// MockRenderer mocks the Renderer interface
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderNotification(n *domain.Notification, recipient *domain.User) (string, string, error) {
	args := m.Called(n, recipient)
	return args.String(0), args.String(1), args.Error(2)
}
