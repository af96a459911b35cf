package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/domain/recurrence"
	"github.com/phrazzld/worktrack/internal/notification"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/scheduler"
	"github.com/phrazzld/worktrack/internal/store"
)

// RecurringGenerationName identifies the recurring generation job in logs and config.
const RecurringGenerationName = "recurring_task_generation"

// maxNumberAttempts bounds how often one occurrence retries after its task
// number was taken by a concurrent insert.
const maxNumberAttempts = 3

// RecurringGeneration spawns occurrences of recurring task definitions
// that are due.
type RecurringGeneration struct {
	notifier *notification.Service
	clock    clock.Clock
	logger   *slog.Logger
}

var _ scheduler.Job = (*RecurringGeneration)(nil)

// NewRecurringGeneration creates the job. When notifier is set, the
// assignee of every generated occurrence is notified.
func NewRecurringGeneration(notifier *notification.Service, clk clock.Clock, logger *slog.Logger) *RecurringGeneration {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringGeneration{
		notifier: notifier,
		clock:    clk,
		logger:   logger.With(slog.String("component", "recurring_generation")),
	}
}

// Name implements scheduler.Job.
func (j *RecurringGeneration) Name() string { return RecurringGenerationName }

// Run implements scheduler.Job.
func (j *RecurringGeneration) Run(ctx context.Context, sess store.Session) error {
	log := logger.FromContextOrDefault(ctx, j.logger)

	defs, err := sess.Tasks().ListRecurringDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list recurring definitions: %w", err)
	}

	now := j.clock.Now().UTC()
	var generated, failed int
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return err
		}

		occ, err := j.generate(ctx, sess, def, now)
		if err != nil {
			failed++
			log.WarnContext(ctx, "failed to generate occurrence",
				slog.String("task_id", def.ID.String()),
				slog.String("company_id", def.CompanyID.String()),
				slog.String("task_number", def.TaskNumber),
				slog.String("error", err.Error()))
			continue
		}
		if occ == nil {
			continue
		}

		generated++
		log.InfoContext(ctx, "occurrence generated",
			slog.String("definition_id", def.ID.String()),
			slog.String("task_id", occ.ID.String()),
			slog.String("task_number", occ.TaskNumber))
		j.notifyAssignee(ctx, sess, occ)
	}

	log.InfoContext(ctx, "recurring generation finished",
		slog.Int("definitions", len(defs)),
		slog.Int("generated", generated),
		slog.Int("failed", failed))
	return nil
}

// generate returns the new occurrence, or nil when def is not due.
func (j *RecurringGeneration) generate(ctx context.Context, sess store.Session, def *domain.Task, now time.Time) (*domain.Task, error) {
	pattern, err := recurrence.ParsePattern(def.RecurrencePattern)
	if err != nil {
		return nil, err
	}
	fire, err := recurrence.ShouldFire(def, pattern, now)
	if err != nil {
		return nil, err
	}
	if !fire {
		j.logNotDue(ctx, def, pattern)
		return nil, nil
	}

	for attempt := 1; ; attempt++ {
		// Numbers are allocated outside the insert transaction so that a
		// conflicting insert does not roll the counter back.
		seq, err := sess.Numbers().Next(ctx, def.CompanyID, now.Year())
		if err != nil {
			return nil, fmt.Errorf("failed to allocate task number: %w", err)
		}
		occ := recurrence.NextOccurrence(def, now, seq)

		err = sess.InTx(ctx, func(ctx context.Context, tx store.Session) error {
			if err := tx.Tasks().Create(ctx, occ); err != nil {
				return err
			}
			return tx.Tasks().MarkGenerated(ctx, def.ID, now)
		})
		if err == nil {
			return occ, nil
		}
		if errors.Is(err, store.ErrTaskNumberTaken) && attempt < maxNumberAttempts {
			logger.FromContextOrDefault(ctx, j.logger).DebugContext(ctx, "task number taken, retrying",
				slog.String("task_number", occ.TaskNumber),
				slog.Int("attempt", attempt))
			continue
		}
		return nil, err
	}
}

func (j *RecurringGeneration) logNotDue(ctx context.Context, def *domain.Task, pattern recurrence.Pattern) {
	log := logger.FromContextOrDefault(ctx, j.logger)
	next, ok, err := recurrence.NextDue(def, pattern)
	switch {
	case err != nil:
		log.DebugContext(ctx, "definition not due", slog.String("task_id", def.ID.String()))
	case !ok:
		log.DebugContext(ctx, "definition terminated", slog.String("task_id", def.ID.String()))
	default:
		log.DebugContext(ctx, "definition not due",
			slog.String("task_id", def.ID.String()),
			slog.Time("next_due", next))
	}
}

func (j *RecurringGeneration) notifyAssignee(ctx context.Context, sess store.Session, occ *domain.Task) {
	if j.notifier == nil || occ.AssignedTo == nil {
		return
	}
	taskID := occ.ID
	_, err := j.notifier.WithStores(sess.Notifications(), sess.Users()).Notify(ctx, notification.Request{
		UserID:            *occ.AssignedTo,
		Title:             fmt.Sprintf("New task: %s", occ.TaskNumber),
		Message:           fmt.Sprintf("A new occurrence of %q has been assigned to you.", occ.Title),
		Type:              domain.NotificationTaskAssigned,
		Priority:          domain.NotificationPriorityNormal,
		RelatedEntityType: "task",
		RelatedEntityID:   &taskID,
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, j.logger).WarnContext(ctx, "failed to notify assignee of new occurrence",
			slog.String("task_id", occ.ID.String()),
			slog.String("error", err.Error()))
	}
}
