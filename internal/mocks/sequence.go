package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/store"
)

// NumberAllocator hands out consecutive numbers per company and year.
type NumberAllocator struct {
	mu       sync.Mutex
	counters map[string]int

	// Err, when set, fails every allocation.
	Err error
}

// NewNumberAllocator creates an allocator with every counter at zero.
func NewNumberAllocator() *NumberAllocator {
	return &NumberAllocator{counters: make(map[string]int)}
}

var _ store.NumberAllocator = (*NumberAllocator)(nil)

func counterKey(companyID uuid.UUID, year int) string {
	return fmt.Sprintf("%s/%d", companyID, year)
}

// Set positions a counter so that the next allocation returns value+1.
func (a *NumberAllocator) Set(companyID uuid.UUID, year, value int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[counterKey(companyID, year)] = value
}

// Next implements store.NumberAllocator.
func (a *NumberAllocator) Next(_ context.Context, companyID uuid.UUID, year int) (int, error) {
	if a.Err != nil {
		return 0, a.Err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	k := counterKey(companyID, year)
	a.counters[k]++
	return a.counters[k], nil
}

// ReminderLedger is an in-memory store.ReminderLedger driven by a clock.
type ReminderLedger struct {
	mu      sync.Mutex
	clock   clock.Clock
	expires map[string]time.Time

	Err error
}

// NewReminderLedger creates an empty ledger. A nil clock uses the system clock.
func NewReminderLedger(c clock.Clock) *ReminderLedger {
	if c == nil {
		c = clock.System{}
	}
	return &ReminderLedger{clock: c, expires: make(map[string]time.Time)}
}

var _ store.ReminderLedger = (*ReminderLedger)(nil)

// Claim implements store.ReminderLedger.
func (l *ReminderLedger) Claim(_ context.Context, key string, window time.Duration) (bool, error) {
	if l.Err != nil {
		return false, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	if exp, ok := l.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.expires[key] = now.Add(window)
	return true, nil
}

// PurgeExpired drops claims whose window has passed.
func (l *ReminderLedger) PurgeExpired(context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	var n int64
	for k, exp := range l.expires {
		if !now.Before(exp) {
			delete(l.expires, k)
			n++
		}
	}
	return n, nil
}

// Keys returns the currently held claims.
func (l *ReminderLedger) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.expires))
	for k := range l.expires {
		out = append(out, k)
	}
	return out
}
