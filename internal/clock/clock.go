// Package clock provides an injectable source of the current time so that
// recurrence and retention logic can be exercised deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now, always in UTC.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Mock is a settable Clock for tests.
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock returns a Mock frozen at now.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

// Now implements Clock.
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
