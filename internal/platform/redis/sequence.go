package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// Seeder reports the highest sequence number already issued, so that a
// fresh counter continues where existing task numbers stop.
type Seeder interface {
	Highest(ctx context.Context, companyID uuid.UUID, year int) (int, error)
}

// NumberAllocator implements store.NumberAllocator with one INCR counter
// per company and year.
type NumberAllocator struct {
	client goredis.UniversalClient
	seeder Seeder
	prefix string
}

// NewNumberAllocator creates an allocator. seeder may be nil, in which case
// counters start at zero.
func NewNumberAllocator(client goredis.UniversalClient, seeder Seeder, prefix string) *NumberAllocator {
	return &NumberAllocator{client: client, seeder: seeder, prefix: prefix}
}

var _ store.NumberAllocator = (*NumberAllocator)(nil)

// Next implements store.NumberAllocator.Next
func (a *NumberAllocator) Next(ctx context.Context, companyID uuid.UUID, year int) (int, error) {
	k := a.counterKey(companyID, year)

	exists, err := a.client.Exists(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check task counter: %w", err)
	}
	if exists == 0 && a.seeder != nil {
		highest, err := a.seeder.Highest(ctx, companyID, year)
		if err != nil {
			return 0, err
		}
		// Only the first caller's seed lands; concurrent seeders lose the SETNX.
		if err := a.client.SetNX(ctx, k, highest, 0).Err(); err != nil {
			return 0, fmt.Errorf("failed to seed task counter: %w", err)
		}
	}

	n, err := a.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment task counter: %w", err)
	}
	return int(n), nil
}

func (a *NumberAllocator) counterKey(companyID uuid.UUID, year int) string {
	return key(a.prefix, "taskseq", companyID.String(), strconv.Itoa(year))
}
