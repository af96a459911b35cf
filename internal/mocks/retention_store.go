package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/store"
)

// RetentionStore records retention calls. Results come from the Fn fields
// and default to zero rows.
type RetentionStore struct {
	mu sync.Mutex

	DeleteOrphanAttachmentsFn func(ctx context.Context) (int64, error)
	PurgeSoftDeletedFn        func(ctx context.Context, entity store.PurgeEntity, cutoff time.Time) (int64, error)

	// Purged lists entities in the order PurgeSoftDeleted was called.
	Purged  []store.PurgeEntity
	Cutoffs []time.Time
}

var _ store.RetentionStore = (*RetentionStore)(nil)

// DeleteOrphanAttachments implements store.RetentionStore.
func (s *RetentionStore) DeleteOrphanAttachments(ctx context.Context) (int64, error) {
	if s.DeleteOrphanAttachmentsFn != nil {
		return s.DeleteOrphanAttachmentsFn(ctx)
	}
	return 0, nil
}

// PurgeSoftDeleted implements store.RetentionStore.
func (s *RetentionStore) PurgeSoftDeleted(ctx context.Context, entity store.PurgeEntity, cutoff time.Time) (int64, error) {
	if err := entity.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.Purged = append(s.Purged, entity)
	s.Cutoffs = append(s.Cutoffs, cutoff)
	s.mu.Unlock()
	if s.PurgeSoftDeletedFn != nil {
		return s.PurgeSoftDeletedFn(ctx, entity, cutoff)
	}
	return 0, nil
}

// ReportStore returns metrics from MetricsFn, or empty metrics for the company.
type ReportStore struct {
	MetricsFn func(ctx context.Context, company *domain.Company, from, to time.Time) (*domain.CompanyMetrics, error)
}

var _ store.ReportStore = (*ReportStore)(nil)

// CompanyMetrics implements store.ReportStore.
func (s *ReportStore) CompanyMetrics(ctx context.Context, company *domain.Company, from, to time.Time) (*domain.CompanyMetrics, error) {
	if s.MetricsFn != nil {
		return s.MetricsFn(ctx, company, from, to)
	}
	return &domain.CompanyMetrics{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		PeriodStart: from,
		PeriodEnd:   to,
	}, nil
}
