package store

import (
	"context"
	"time"

	"github.com/phrazzld/worktrack/internal/domain"
)

// ReportStore computes per-company activity metrics.
type ReportStore interface {
	// CompanyMetrics aggregates company activity in [from, to). Upcoming
	// deadlines cover the seven days following to.
	CompanyMetrics(ctx context.Context, company *domain.Company, from, to time.Time) (*domain.CompanyMetrics, error)
}
