package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule reports the next fire time after a given instant.
// cron.Schedule values satisfy it.
type Schedule interface {
	Next(time.Time) time.Time
}

// ParseCron parses a standard five-field cron expression such as
// "0 8 * * MON". A leading CRON_TZ=<zone> selects the time zone.
func ParseCron(expr string) (Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return s, nil
}
