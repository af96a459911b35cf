package notification

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/redact"
	"github.com/phrazzld/worktrack/internal/store"
)

// DefaultListLimit caps ListForUser when the caller passes no limit.
const DefaultListLimit = 50

// PushEventName tags notification payloads on the realtime channel.
const PushEventName = "notification"

// Pusher delivers a payload to every live connection of a user.
type Pusher interface {
	PushToUser(ctx context.Context, userID uuid.UUID, payload any) error
}

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Renderer produces the subject and HTML body of a notification email.
type Renderer interface {
	RenderNotification(n *domain.Notification, recipient *domain.User) (subject, body string, err error)
}

// DeliveryObserver is told the outcome of every channel delivery attempt.
type DeliveryObserver interface {
	ObserveDelivery(channel string, err error)
}

// Channels are the optional delivery channels. A nil Pusher disables push;
// a nil Mailer or Renderer disables email.
type Channels struct {
	Pusher   Pusher
	Mailer   Mailer
	Renderer Renderer
	Observer DeliveryObserver
}

// PushEvent is the realtime payload carrying a notification.
type PushEvent struct {
	Event        string               `json:"event"`
	Notification *domain.Notification `json:"notification"`
}

// Request describes a notification to deliver.
type Request struct {
	UserID            uuid.UUID
	Title             string
	Message           string
	Type              domain.NotificationType
	Priority          domain.NotificationPriority
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
}

// Service fans notifications out and manages their read state.
type Service struct {
	notifications store.NotificationStore
	users         store.UserStore
	channels      Channels
	clock         clock.Clock
	logger        *slog.Logger
}

// NewService creates a Service. notifications and users are required.
func NewService(
	notifications store.NotificationStore,
	users store.UserStore,
	channels Channels,
	clk clock.Clock,
	logger *slog.Logger,
) (*Service, error) {
	if notifications == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "notification store cannot be nil"}
	}
	if users == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "user store cannot be nil"}
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		notifications: notifications,
		users:         users,
		channels:      channels,
		clock:         clk,
		logger:        logger.With(slog.String("component", "notification_service")),
	}, nil
}

// WithStores returns a copy of the service bound to other stores, typically
// those of a job tick's session. Channels, clock and logger are shared.
func (s *Service) WithStores(notifications store.NotificationStore, users store.UserStore) *Service {
	c := *s
	c.notifications = notifications
	c.users = users
	return &c
}

// Notify persists the notification and then delivers it by push and, when
// its type calls for it, by email. The returned error only ever concerns
// persistence.
func (s *Service) Notify(ctx context.Context, req Request) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	n, err := domain.NewNotification(req.UserID, req.Title, req.Message, req.Type, req.Priority, s.clock.Now())
	if err != nil {
		return nil, NewServiceError("notify", "invalid notification", err)
	}
	n.RelatedEntityType = req.RelatedEntityType
	if req.RelatedEntityID != nil {
		id := *req.RelatedEntityID
		n.RelatedEntityID = &id
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		log.ErrorContext(ctx, "failed to persist notification",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", n.UserID.String()),
			slog.String("type", string(n.Type)))
		return nil, NewServiceError("notify", "failed to save notification", err)
	}

	s.guard(ctx, log, "push", n, s.push)
	if n.Type.ImpliesEmail() {
		s.guard(ctx, log, "email", n, s.email)
	}

	log.DebugContext(ctx, "notification delivered",
		slog.String("notification_id", n.ID.String()),
		slog.String("user_id", n.UserID.String()),
		slog.String("type", string(n.Type)))
	return n, nil
}

// guard runs one delivery channel, logging its error or panic.
func (s *Service) guard(
	ctx context.Context,
	log *slog.Logger,
	channel string,
	n *domain.Notification,
	deliver func(context.Context, *domain.Notification) error,
) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.ErrorContext(ctx, "notification channel panicked",
				slog.String("channel", channel),
				slog.String("notification_id", n.ID.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
		if s.channels.Observer != nil {
			s.channels.Observer.ObserveDelivery(channel, err)
		}
	}()

	if err = deliver(ctx, n); err != nil {
		log.WarnContext(ctx, "notification channel failed",
			slog.String("channel", channel),
			slog.String("notification_id", n.ID.String()),
			slog.String("user_id", n.UserID.String()),
			slog.String("error", redact.Error(err)))
	}
}

func (s *Service) push(ctx context.Context, n *domain.Notification) error {
	if s.channels.Pusher == nil {
		return nil
	}
	return s.channels.Pusher.PushToUser(ctx, n.UserID, PushEvent{Event: PushEventName, Notification: n})
}

func (s *Service) email(ctx context.Context, n *domain.Notification) error {
	if s.channels.Mailer == nil || s.channels.Renderer == nil {
		return nil
	}

	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}
	if !user.CanReceiveEmail() {
		logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "skipping email, recipient cannot receive mail",
			slog.String("user_id", user.ID.String()))
		return nil
	}

	subject, body, err := s.channels.Renderer.RenderNotification(n, user)
	if err != nil {
		return err
	}
	return s.channels.Mailer.Send(ctx, user.Email, subject, body)
}

// MarkRead marks one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, id, userID, s.clock.Now()); err != nil {
		return NewServiceError("mark_read", "failed to mark notification read", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read and returns
// how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID, s.clock.Now())
	if err != nil {
		return 0, NewServiceError("mark_all_read", "failed to mark notifications read", err)
	}
	return n, nil
}

// Delete removes one of the user's notifications.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.notifications.Delete(ctx, id, userID); err != nil {
		return NewServiceError("delete", "failed to delete notification", err)
	}
	return nil
}

// GetUnreadCount returns the number of unread notifications of the user.
func (s *Service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, NewServiceError("get_unread_count", "failed to count unread notifications", err)
	}
	return count, nil
}

// ListForUser returns the user's notifications, newest first. A
// non-positive limit means DefaultListLimit.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	list, err := s.notifications.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, NewServiceError("list", "failed to list notifications", err)
	}
	return list, nil
}
