package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationType tags what a notification is about.
type NotificationType string

// Known notification types
const (
	NotificationTaskAssigned NotificationType = "task_assigned"
	NotificationTaskUpdated  NotificationType = "task_updated"
	NotificationTaskDueSoon  NotificationType = "task_due_soon"
	NotificationTaskOverdue  NotificationType = "task_overdue"
	NotificationSystemAlert  NotificationType = "system_alert"
	NotificationChatMessage  NotificationType = "chat_message"
	NotificationReportReady  NotificationType = "report_ready"
)

// ImpliesEmail reports whether notifications of this type are also mailed
// to the recipient when they have a verified address.
func (t NotificationType) ImpliesEmail() bool {
	return t == NotificationTaskAssigned || t == NotificationTaskOverdue
}

// NotificationPriority ranks a notification for display.
type NotificationPriority string

// Notification priorities
const (
	NotificationPriorityLow      NotificationPriority = "low"
	NotificationPriorityNormal   NotificationPriority = "normal"
	NotificationPriorityHigh     NotificationPriority = "high"
	NotificationPriorityCritical NotificationPriority = "critical"
)

// Validation errors for Notification
var (
	ErrEmptyNotificationUserID = errors.New("notification user ID cannot be empty")
	ErrEmptyNotificationTitle  = errors.New("notification title cannot be empty")
)

// Notification is a persisted message for a single user. It is the durable
// source of truth; push and email deliveries are best-effort copies of it.
type Notification struct {
	ID                uuid.UUID            `json:"id"`
	UserID            uuid.UUID            `json:"user_id"`
	Title             string               `json:"title"`
	Message           string               `json:"message"`
	Type              NotificationType     `json:"type"`
	Priority          NotificationPriority `json:"priority"`
	RelatedEntityType string               `json:"related_entity_type,omitempty"`
	RelatedEntityID   *uuid.UUID           `json:"related_entity_id,omitempty"`
	IsRead            bool                 `json:"is_read"`
	ReadAt            *time.Time           `json:"read_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// NewNotification builds an unread notification created at now.
// An empty priority defaults to normal.
func NewNotification(
	userID uuid.UUID,
	title, message string,
	typ NotificationType,
	priority NotificationPriority,
	now time.Time,
) (*Notification, error) {
	if priority == "" {
		priority = NotificationPriorityNormal
	}
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Priority:  priority,
		CreatedAt: now,
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrInvalidID
	}
	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUserID
	}
	if n.Title == "" {
		return ErrEmptyNotificationTitle
	}
	switch n.Priority {
	case NotificationPriorityLow, NotificationPriorityNormal,
		NotificationPriorityHigh, NotificationPriorityCritical:
	default:
		return ErrInvalidPriority
	}
	return nil
}

// MarkRead flags the notification read at now. Already-read notifications
// keep their original ReadAt.
func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
}
