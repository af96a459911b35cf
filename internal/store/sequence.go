package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NumberAllocator hands out per-company, per-year task sequence numbers.
// Concurrent callers never receive the same value. Values may be skipped
// when a caller fails after allocating.
type NumberAllocator interface {
	Next(ctx context.Context, companyID uuid.UUID, year int) (int, error)
}

// ReminderLedger records which reminders were sent so that a sweep never
// sends the same reminder twice inside one window.
type ReminderLedger interface {
	// Claim returns true when key was not claimed within the last window,
	// recording the claim. It returns false when the key is still held.
	Claim(ctx context.Context, key string, window time.Duration) (bool, error)
}
