package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/worktrack/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// ReminderLedger implements store.ReminderLedger with SET NX EX: the key
// expires on its own once the window has passed.
type ReminderLedger struct {
	client goredis.UniversalClient
	prefix string
}

// NewReminderLedger creates a ledger storing keys under prefix.
func NewReminderLedger(client goredis.UniversalClient, prefix string) *ReminderLedger {
	return &ReminderLedger{client: client, prefix: prefix}
}

var _ store.ReminderLedger = (*ReminderLedger)(nil)

// Claim implements store.ReminderLedger.Claim
func (l *ReminderLedger) Claim(ctx context.Context, k string, window time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key(l.prefix, "reminder", k), time.Now().UTC().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder %q: %w", k, err)
	}
	return ok, nil
}
