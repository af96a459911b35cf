package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/phrazzld/worktrack/internal/notification"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/redact"
	"github.com/phrazzld/worktrack/internal/scheduler"
	"github.com/phrazzld/worktrack/internal/store"
)

// WeeklyReportName identifies the weekly report job in logs and config.
const WeeklyReportName = "weekly_report"

// reportPeriod is the trailing span a report covers.
const reportPeriod = 7 * 24 * time.Hour

// ReportRenderer produces the subject and HTML body of a report email.
type ReportRenderer interface {
	RenderWeeklyReport(metrics *domain.CompanyMetrics, recipient *domain.User) (subject, body string, err error)
}

// errNoReportDelivered is returned for a company none of whose admins could
// be sent its report.
var errNoReportDelivered = errors.New("report not delivered to any admin")

// WeeklyReport mails each active company's admins a summary of the past week.
type WeeklyReport struct {
	renderer ReportRenderer
	mailer   notification.Mailer
	notifier *notification.Service
	clock    clock.Clock
	logger   *slog.Logger
}

var _ scheduler.Job = (*WeeklyReport)(nil)

// NewWeeklyReport creates the job. When notifier is set, every admin who
// was mailed a report also gets a report_ready notification.
func NewWeeklyReport(
	renderer ReportRenderer,
	mailer notification.Mailer,
	notifier *notification.Service,
	clk clock.Clock,
	logger *slog.Logger,
) *WeeklyReport {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyReport{
		renderer: renderer,
		mailer:   mailer,
		notifier: notifier,
		clock:    clk,
		logger:   logger.With(slog.String("component", "weekly_report")),
	}
}

// Name implements scheduler.Job.
func (j *WeeklyReport) Name() string { return WeeklyReportName }

// Run implements scheduler.Job. Each company is handled on its own; the
// tick fails only when no company's report could be delivered.
func (j *WeeklyReport) Run(ctx context.Context, sess store.Session) error {
	log := logger.FromContextOrDefault(ctx, j.logger)

	companies, err := sess.Companies().ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	to := j.clock.Now().UTC()
	from := to.Add(-reportPeriod)

	var errs []error
	for _, company := range companies {
		if err := j.reportCompany(ctx, sess, company, from, to); err != nil {
			errs = append(errs, fmt.Errorf("company %s: %w", company.ID, err))
			log.WarnContext(ctx, "weekly report failed for company",
				slog.String("company_id", company.ID.String()),
				slog.String("error", redact.Error(err)))
		}
	}

	log.InfoContext(ctx, "weekly reports finished",
		slog.Int("companies", len(companies)),
		slog.Int("failed", len(errs)))

	if len(companies) > 0 && len(errs) == len(companies) {
		return errors.Join(errs...)
	}
	return nil
}

func (j *WeeklyReport) reportCompany(ctx context.Context, sess store.Session, company *domain.Company, from, to time.Time) error {
	log := logger.FromContextOrDefault(ctx, j.logger).With(slog.String("company_id", company.ID.String()))

	metrics, err := sess.Reports().CompanyMetrics(ctx, company, from, to)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}
	admins, err := sess.Users().ListAdmins(ctx, company.ID)
	if err != nil {
		return fmt.Errorf("failed to list admins: %w", err)
	}

	var sent, failed int
	for _, admin := range admins {
		if !admin.CanReceiveEmail() {
			continue
		}
		if err := j.sendReport(ctx, sess, metrics, admin); err != nil {
			failed++
			log.WarnContext(ctx, "failed to send weekly report",
				slog.String("user_id", admin.ID.String()),
				slog.String("error", redact.Error(err)))
			continue
		}
		sent++
	}

	log.InfoContext(ctx, "weekly report sent",
		slog.Int("recipients", sent),
		slog.Int("failed", failed))
	if sent == 0 && failed > 0 {
		return errNoReportDelivered
	}
	return nil
}

func (j *WeeklyReport) sendReport(ctx context.Context, sess store.Session, metrics *domain.CompanyMetrics, admin *domain.User) error {
	subject, body, err := j.renderer.RenderWeeklyReport(metrics, admin)
	if err != nil {
		return err
	}
	if err := j.mailer.Send(ctx, admin.Email, subject, body); err != nil {
		return err
	}

	if j.notifier != nil {
		companyID := metrics.CompanyID
		_, err := j.notifier.WithStores(sess.Notifications(), sess.Users()).Notify(ctx, notification.Request{
			UserID:            admin.ID,
			Title:             subject,
			Message:           fmt.Sprintf("The weekly report for %s has been sent to %s.", metrics.CompanyName, admin.Email),
			Type:              domain.NotificationReportReady,
			Priority:          domain.NotificationPriorityLow,
			RelatedEntityType: "company",
			RelatedEntityID:   &companyID,
		})
		if err != nil {
			logger.FromContextOrDefault(ctx, j.logger).WarnContext(ctx, "failed to record report notification",
				slog.String("user_id", admin.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
