package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/notification"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/scheduler"
	"github.com/phrazzld/worktrack/internal/store"
)

// ReminderSweepName identifies the reminder sweep in logs and config.
const ReminderSweepName = "reminder_sweep"

const (
	// reminderWindow is both how far ahead due-soon reminders look and how
	// far back overdue tasks are picked up. A reminder is claimed for the
	// same span, so each task reminds each recipient at most once.
	reminderWindow = 24 * time.Hour

	kindDueSoon = "due_soon"
	kindOverdue = "overdue"

	dueDateLayout = "Mon, 02 Jan 2006 15:04 MST"
)

// ReminderSweep notifies assignees of tasks about to fall due, and both
// assignee and assigner of tasks that recently became overdue.
type ReminderSweep struct {
	notifier *notification.Service
	ledger   store.ReminderLedger
	clock    clock.Clock
	logger   *slog.Logger
}

var _ scheduler.Job = (*ReminderSweep)(nil)

// NewReminderSweep creates the job.
func NewReminderSweep(
	notifier *notification.Service,
	ledger store.ReminderLedger,
	clk clock.Clock,
	logger *slog.Logger,
) *ReminderSweep {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderSweep{
		notifier: notifier,
		ledger:   ledger,
		clock:    clk,
		logger:   logger.With(slog.String("component", "reminder_sweep")),
	}
}

// Name implements scheduler.Job.
func (j *ReminderSweep) Name() string { return ReminderSweepName }

type sweepStats struct {
	sent, skipped, failed int
}

// Run implements scheduler.Job. The due-soon and overdue passes run
// independently; the tick fails only with the errors of passes that could
// not list their tasks.
func (j *ReminderSweep) Run(ctx context.Context, sess store.Session) error {
	log := logger.FromContextOrDefault(ctx, j.logger)
	notifier := j.notifier.WithStores(sess.Notifications(), sess.Users())
	now := j.clock.Now().UTC()

	var stats sweepStats
	dueErr := j.sweepDueSoon(ctx, sess, notifier, now, &stats)
	overdueErr := j.sweepOverdue(ctx, sess, notifier, now, &stats)

	log.InfoContext(ctx, "reminder sweep finished",
		slog.Int("sent", stats.sent),
		slog.Int("skipped", stats.skipped),
		slog.Int("failed", stats.failed))
	return errors.Join(dueErr, overdueErr)
}

func (j *ReminderSweep) sweepDueSoon(ctx context.Context, sess store.Session, notifier *notification.Service, now time.Time, stats *sweepStats) error {
	until := now.Add(reminderWindow)
	notArchived := false
	tasks, err := sess.Tasks().Find(ctx, store.TaskFilter{
		Statuses:     store.OpenStatuses(),
		DueAfter:     &now,
		DueBefore:    &until,
		IsArchived:   &notArchived,
		AssignedOnly: true,
	})
	if err != nil {
		return fmt.Errorf("failed to find tasks due soon: %w", err)
	}

	for _, task := range tasks {
		j.remind(ctx, notifier, stats, kindDueSoon, task, *task.AssignedTo, notification.Request{
			Title:    fmt.Sprintf("Task due soon: %s", task.TaskNumber),
			Message:  fmt.Sprintf("%q is due %s.", task.Title, task.DueDate.UTC().Format(dueDateLayout)),
			Type:     domain.NotificationTaskDueSoon,
			Priority: domain.NotificationPriorityHigh,
		})
	}
	return nil
}

func (j *ReminderSweep) sweepOverdue(ctx context.Context, sess store.Session, notifier *notification.Service, now time.Time, stats *sweepStats) error {
	since := now.Add(-reminderWindow)
	notArchived := false
	tasks, err := sess.Tasks().Find(ctx, store.TaskFilter{
		Statuses:   store.OpenStatuses(),
		DueAfter:   &since,
		DueBefore:  &now,
		IsArchived: &notArchived,
	})
	if err != nil {
		return fmt.Errorf("failed to find overdue tasks: %w", err)
	}

	for _, task := range tasks {
		title := fmt.Sprintf("Task overdue: %s", task.TaskNumber)
		due := task.DueDate.UTC().Format(dueDateLayout)

		if task.AssignedTo != nil {
			j.remind(ctx, notifier, stats, kindOverdue, task, *task.AssignedTo, notification.Request{
				Title:    title,
				Message:  fmt.Sprintf("%q assigned to you was due %s.", task.Title, due),
				Type:     domain.NotificationTaskOverdue,
				Priority: domain.NotificationPriorityHigh,
			})
		}
		if task.CreatedBy != uuid.Nil && (task.AssignedTo == nil || *task.AssignedTo != task.CreatedBy) {
			j.remind(ctx, notifier, stats, kindOverdue, task, task.CreatedBy, notification.Request{
				Title:    title,
				Message:  fmt.Sprintf("%q, which you assigned, was due %s.", task.Title, due),
				Type:     domain.NotificationTaskOverdue,
				Priority: domain.NotificationPriorityHigh,
			})
		}
	}
	return nil
}

// remind claims the (kind, task, user) reminder and notifies on success.
// The claim is taken first: a notification that then fails to persist is
// not retried until the window passes.
func (j *ReminderSweep) remind(
	ctx context.Context,
	notifier *notification.Service,
	stats *sweepStats,
	kind string,
	task *domain.Task,
	userID uuid.UUID,
	req notification.Request,
) {
	log := logger.FromContextOrDefault(ctx, j.logger)
	key := reminderKey(kind, task.ID, userID)

	claimed, err := j.ledger.Claim(ctx, key, reminderWindow)
	if err != nil {
		stats.failed++
		log.WarnContext(ctx, "failed to claim reminder",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	if !claimed {
		stats.skipped++
		return
	}

	taskID := task.ID
	req.UserID = userID
	req.RelatedEntityType = "task"
	req.RelatedEntityID = &taskID
	if _, err := notifier.Notify(ctx, req); err != nil {
		stats.failed++
		log.WarnContext(ctx, "failed to send reminder",
			slog.String("kind", kind),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return
	}
	stats.sent++
}

func reminderKey(kind string, taskID, userID uuid.UUID) string {
	return kind + ":" + taskID.String() + ":" + userID.String()
}
