package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/config"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/scheduler"
	"github.com/phrazzld/worktrack/internal/store"
)

// RetentionSweepName identifies the retention sweep in logs and config.
const RetentionSweepName = "retention_sweep"

// ExpiredClaimPurger is implemented by reminder ledgers that keep expired
// claims around until asked to drop them.
type ExpiredClaimPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RetentionSweep archives old completed tasks and deletes data past its
// retention period.
type RetentionSweep struct {
	policy config.RetentionConfig
	purger ExpiredClaimPurger
	clock  clock.Clock
	logger *slog.Logger
}

var _ scheduler.Job = (*RetentionSweep)(nil)

// NewRetentionSweep creates the job. purger may be nil.
func NewRetentionSweep(policy config.RetentionConfig, purger ExpiredClaimPurger, clk clock.Clock, logger *slog.Logger) *RetentionSweep {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionSweep{
		policy: policy,
		purger: purger,
		clock:  clk,
		logger: logger.With(slog.String("component", "retention_sweep")),
	}
}

// Name implements scheduler.Job.
func (j *RetentionSweep) Name() string { return RetentionSweepName }

type retentionStep struct {
	name string
	run  func(ctx context.Context) (int64, error)
}

func (j *RetentionSweep) steps(sess store.Session, now time.Time) []retentionStep {
	archiveCutoff := now.AddDate(0, -j.policy.CompletedTaskMonths, 0)
	notificationCutoff := now.Add(-j.policy.ReadNotificationAge)
	purgeCutoff := now.Add(-j.policy.SoftDeletedAge)

	steps := []retentionStep{
		{"archive_completed_tasks", func(ctx context.Context) (int64, error) {
			return sess.Tasks().ArchiveCompletedBefore(ctx, archiveCutoff, now)
		}},
		{"delete_read_notifications", func(ctx context.Context) (int64, error) {
			return sess.Notifications().DeleteReadBefore(ctx, notificationCutoff)
		}},
		{"delete_orphan_attachments", func(ctx context.Context) (int64, error) {
			return sess.Retention().DeleteOrphanAttachments(ctx)
		}},
	}
	for _, entity := range store.PurgeEntities {
		steps = append(steps, retentionStep{"purge_deleted_" + string(entity), func(ctx context.Context) (int64, error) {
			return sess.Retention().PurgeSoftDeleted(ctx, entity, purgeCutoff)
		}})
	}
	if j.purger != nil {
		steps = append(steps, retentionStep{"purge_expired_reminders", j.purger.PurgeExpired})
	}
	return steps
}

// Run implements scheduler.Job. Steps run in order and independently; the
// tick fails only when every step failed.
func (j *RetentionSweep) Run(ctx context.Context, sess store.Session) error {
	log := logger.FromContextOrDefault(ctx, j.logger)
	now := j.clock.Now().UTC()

	steps := j.steps(sess, now)
	var errs []error
	summary := make([]any, 0, len(steps))
	for _, step := range steps {
		n, err := step.run(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			log.WarnContext(ctx, "retention step failed",
				slog.String("step", step.name),
				slog.String("error", err.Error()))
			continue
		}
		summary = append(summary, slog.Int64(step.name, n))
	}

	log.InfoContext(ctx, "retention sweep finished",
		slog.Int("steps", len(steps)),
		slog.Int("failed", len(errs)),
		slog.Group("affected", summary...))

	if len(errs) == len(steps) {
		return errors.Join(errs...)
	}
	return nil
}
