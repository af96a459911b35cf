package notification

import (
	"errors"
	"fmt"

	"github.com/phrazzld/worktrack/internal/store"
)

// ErrNotificationNotFound is returned when a notification does not exist
// or belongs to another user. The two cases are indistinguishable on purpose.
var ErrNotificationNotFound = errors.New("notification not found")

// ServiceError wraps errors from the notification service with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "notify", "mark_read")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("notification service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
// Store not-found errors are returned as ErrNotificationNotFound without wrapping.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotificationNotFound) || errors.Is(err, store.ErrNotificationNotFound) {
		return ErrNotificationNotFound
	}
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
