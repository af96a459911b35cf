package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidStatus is returned when a task status is not recognised.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a task or notification priority is not recognised.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrRecurringOccurrence is returned when a task is flagged recurring while
	// also carrying a parent reference. A task is either a recurring definition
	// or a generated occurrence, never both.
	ErrRecurringOccurrence = errors.New("task cannot be both recurring and an occurrence")
)
