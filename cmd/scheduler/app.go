package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/config"
	"github.com/phrazzld/worktrack/internal/jobs"
	"github.com/phrazzld/worktrack/internal/notification"
	"github.com/phrazzld/worktrack/internal/platform/email"
	"github.com/phrazzld/worktrack/internal/platform/metrics"
	"github.com/phrazzld/worktrack/internal/platform/postgres"
	"github.com/phrazzld/worktrack/internal/platform/realtime"
	"github.com/phrazzld/worktrack/internal/platform/redis"
	"github.com/phrazzld/worktrack/internal/scheduler"
	"github.com/phrazzld/worktrack/internal/store"
)

// application holds the scheduler's long-lived dependencies so they can be
// shut down in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	clock  clock.Clock

	db    *sql.DB
	redis *goredis.Client

	sessions store.SessionFactory
	ledger   store.ReminderLedger
	purger   jobs.ExpiredClaimPurger

	mailer   notification.Mailer
	renderer *email.Renderer
	hub      *realtime.Hub
	verifier *realtime.TokenVerifier
	notifier *notification.Service
	metrics  *metrics.Metrics

	supervisor *scheduler.Supervisor
}

// newApplication wires stores, delivery channels and job runners. db must
// already be connected and migrated.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		clock:   clock.System{},
		db:      db,
		metrics: metrics.New(),
	}

	if err := app.setupStores(ctx); err != nil {
		return nil, err
	}
	if err := app.setupDelivery(); err != nil {
		app.cleanup()
		return nil, err
	}

	// Jobs rebind the service to their tick's session; these pool-backed
	// stores serve callers outside a tick.
	var err error
	app.notifier, err = notification.NewService(
		postgres.NewPostgresNotificationStore(db, logger),
		postgres.NewPostgresUserStore(db, logger),
		notification.Channels{
			Pusher:   app.hub,
			Mailer:   app.mailer,
			Renderer: app.renderer,
			Observer: app.metrics,
		}, app.clock, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	app.supervisor, err = app.setupRunners()
	if err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("scheduler initialized")
	return app, nil
}

// setupStores picks where task numbers and reminder claims live. Redis is
// used when configured; Postgres otherwise.
func (app *application) setupStores(ctx context.Context) error {
	if app.config.Redis.URL == "" {
		ledger := postgres.NewPostgresReminderLedger(app.db, app.clock)
		app.ledger = ledger
		app.purger = ledger
		app.sessions = postgres.NewSessionFactory(app.db, app.logger)
		app.logger.Info("using postgres for task numbers and reminder claims")
		return nil
	}

	client, err := redis.Connect(ctx, app.config.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client

	prefix := app.config.Redis.KeyPrefix
	numbers := redis.NewNumberAllocator(client, postgres.NewPostgresNumberAllocator(app.db), prefix)
	app.ledger = redis.NewReminderLedger(client, prefix)
	app.sessions = postgres.NewSessionFactory(app.db, app.logger, postgres.WithNumberAllocator(numbers))
	app.logger.Info("using redis for task numbers and reminder claims",
		slog.String("key_prefix", prefix))
	return nil
}

// setupDelivery builds the push hub and the mail transport.
func (app *application) setupDelivery() error {
	var err error
	app.verifier, err = realtime.NewTokenVerifier(app.config.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}
	app.hub = realtime.NewHub(app.logger)

	app.renderer, err = email.NewRenderer(app.config.SMTP.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	if app.config.SMTP.Host == "" {
		app.mailer = email.NewLogMailer(app.logger)
		app.logger.Warn("smtp host not configured, emails will only be logged")
	} else {
		app.mailer = email.NewSMTPMailer(app.config.SMTP, app.logger)
	}
	return nil
}

// setupRunners builds one runner per enabled job.
func (app *application) setupRunners() (*scheduler.Supervisor, error) {
	all := []struct {
		job scheduler.Job
		cfg config.JobConfig
	}{
		{jobs.NewRecurringGeneration(app.notifier, app.clock, app.logger), app.config.Jobs.Recurring},
		{jobs.NewReminderSweep(app.notifier, app.ledger, app.clock, app.logger), app.config.Jobs.Reminder},
		{jobs.NewRetentionSweep(app.config.Retention, app.purger, app.clock, app.logger), app.config.Jobs.Retention},
		{jobs.NewWeeklyReport(app.renderer, app.mailer, app.notifier, app.clock, app.logger), app.config.Jobs.Report},
	}

	supervisor := scheduler.NewSupervisor(app.logger)
	supervisor.OnRestart(app.metrics.ObserveRestart)
	for _, j := range all {
		if !j.cfg.Enabled {
			app.logger.Info("job disabled", slog.String("job", j.job.Name()))
			continue
		}
		rc, err := runnerConfig(j.cfg)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule for %s: %w", j.job.Name(), err)
		}
		runner, err := scheduler.NewRunner(j.job, app.sessions, rc,
			scheduler.WithClock(app.clock),
			scheduler.WithLogger(app.logger),
			scheduler.WithTickObserver(func(res scheduler.TickResult) {
				app.metrics.ObserveTick(res.Job, res.Duration, res.Err)
			}))
		if err != nil {
			return nil, fmt.Errorf("failed to create runner for %s: %w", j.job.Name(), err)
		}
		supervisor.Add(runner)
	}
	return supervisor, nil
}

// runnerConfig converts a job's configuration into runner settings.
func runnerConfig(cfg config.JobConfig) (scheduler.RunnerConfig, error) {
	rc := scheduler.RunnerConfig{
		Interval:     cfg.Interval,
		ErrorBackoff: cfg.ErrorBackoff,
		StartupDelay: cfg.StartupDelay,
		TickTimeout:  cfg.TickTimeout,
	}
	if cfg.Cron != "" {
		sched, err := scheduler.ParseCron(cfg.Cron)
		if err != nil {
			return scheduler.RunnerConfig{}, err
		}
		rc.Schedule = sched
	}
	return rc, rc.Validate()
}

// Run serves the realtime endpoint and runs the jobs until ctx is
// cancelled or the server fails, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	// Runners stop on either a shutdown signal or a server failure.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := realtime.NewHandler(app.hub, app.verifier, app.logger)
	server := newHTTPServer(app.config.Server.Port, realtime.NewRouter(handler, app.metrics.Handler(), app.logger))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.serve(server)
	}()

	app.supervisor.Start(runCtx)

	var err error
	select {
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	case err = <-serverErr:
		app.logger.Error("http server stopped unexpectedly", slog.String("error", err.Error()))
	}

	cancel()
	return errors.Join(err, app.shutdown(server))
}

// cleanup releases connections. It is safe to call on a partly built application.
func (app *application) cleanup() {
	if app.hub != nil {
		app.hub.Close()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("scheduler shutdown completed")
}
