package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/phrazzld/worktrack/internal/clock"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/redact"
	"github.com/phrazzld/worktrack/internal/store"
)

// Configuration errors returned by NewRunner.
var (
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrInvalidBackoff  = errors.New("error backoff must be positive and shorter than the interval")
	ErrNilJob          = errors.New("job cannot be nil")
	ErrNilSessions     = errors.New("session factory cannot be nil")
)

// RunnerConfig holds the timing of one job.
type RunnerConfig struct {
	// Interval separates the end of a successful tick from the start of the next.
	Interval time.Duration

	// ErrorBackoff replaces Interval after a failed tick. It must be shorter
	// than Interval so failures are retried sooner than the normal cadence.
	ErrorBackoff time.Duration

	// StartupDelay is waited once before the first tick.
	StartupDelay time.Duration

	// TickTimeout bounds a single tick. Zero means no bound.
	TickTimeout time.Duration

	// Schedule, when set, picks the wake time after a successful tick
	// instead of Interval.
	Schedule Schedule
}

// Validate checks the timing invariants.
func (c RunnerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.ErrorBackoff <= 0 || c.ErrorBackoff >= c.Interval {
		return fmt.Errorf("%w: backoff %s, interval %s", ErrInvalidBackoff, c.ErrorBackoff, c.Interval)
	}
	if c.StartupDelay < 0 || c.TickTimeout < 0 {
		return fmt.Errorf("startup delay and tick timeout cannot be negative")
	}
	return nil
}

// TickResult describes one finished tick.
type TickResult struct {
	Job      string
	Started  time.Time
	Duration time.Duration
	Err      error
	// Next is the delay before the following tick.
	Next time.Duration
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock sets the clock used to time ticks and evaluate schedules.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithAfter replaces the timer used for every sleep. Tests use it to make
// sleeps instantaneous and to observe the requested delays.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(r *Runner) { r.after = after }
}

// WithTickObserver registers a function called after every tick.
func WithTickObserver(fn func(TickResult)) Option {
	return func(r *Runner) { r.observe = fn }
}

// Runner executes one Job periodically until its context is cancelled.
type Runner struct {
	job      Job
	sessions store.SessionFactory
	cfg      RunnerConfig
	clock    clock.Clock
	logger   *slog.Logger
	after    func(time.Duration) <-chan time.Time
	observe  func(TickResult)
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(job Job, sessions store.SessionFactory, cfg RunnerConfig, opts ...Option) (*Runner, error) {
	if job == nil {
		return nil, ErrNilJob
	}
	if sessions == nil {
		return nil, ErrNilSessions
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name(), err)
	}

	r := &Runner{
		job:      job,
		sessions: sessions,
		cfg:      cfg,
		clock:    clock.System{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "job_runner"), slog.String("job", job.Name()))
	return r, nil
}

// Name returns the job's name.
func (r *Runner) Name() string {
	return r.job.Name()
}

// Run loops until ctx is cancelled. A tick in progress when ctx is
// cancelled runs to completion; no tick starts afterwards.
func (r *Runner) Run(ctx context.Context) {
	r.logger.InfoContext(ctx, "job runner started",
		slog.Duration("interval", r.cfg.Interval),
		slog.Duration("error_backoff", r.cfg.ErrorBackoff),
		slog.Duration("startup_delay", r.cfg.StartupDelay))

	if r.cfg.StartupDelay > 0 && !r.sleep(ctx, r.cfg.StartupDelay) {
		r.logger.InfoContext(ctx, "job runner stopped before first tick")
		return
	}

	for {
		if ctx.Err() != nil {
			break
		}
		res := r.Tick(ctx)
		if !r.sleep(ctx, res.Next) {
			break
		}
	}
	r.logger.InfoContext(ctx, "job runner stopped")
}

// Tick runs the job once and reports the outcome along with the delay the
// loop should wait before the next tick.
func (r *Runner) Tick(ctx context.Context) TickResult {
	// Shutdown must not abort a tick midway, so the tick only inherits
	// ctx's values.
	tickCtx := context.WithoutCancel(ctx)
	if r.cfg.TickTimeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(tickCtx, r.cfg.TickTimeout)
		defer cancel()
	}
	tickCtx = logger.WithLogger(tickCtx, r.logger)

	started := r.clock.Now()
	err := r.runTick(tickCtx)
	res := TickResult{
		Job:      r.job.Name(),
		Started:  started,
		Duration: r.clock.Now().Sub(started),
		Err:      err,
	}
	res.Next = r.nextDelay(res)

	if err != nil {
		attrs := []any{
			slog.String("error", redact.Error(err)),
			slog.Duration("duration", res.Duration),
			slog.Duration("retry_in", res.Next),
		}
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			attrs = append(attrs, slog.String("stack", string(panicErr.Stack)))
		}
		r.logger.ErrorContext(ctx, "job tick failed", attrs...)
	} else {
		r.logger.InfoContext(ctx, "job tick completed",
			slog.Duration("duration", res.Duration),
			slog.Duration("next_in", res.Next))
	}

	if r.observe != nil {
		r.observe(res)
	}
	return res
}

func (r *Runner) runTick(ctx context.Context) (err error) {
	sess, err := r.sessions.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			r.logger.WarnContext(ctx, "failed to close tick session", slog.String("error", cerr.Error()))
		}
	}()
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()

	return r.job.Run(ctx, sess)
}

func (r *Runner) nextDelay(res TickResult) time.Duration {
	if res.Err != nil {
		return r.cfg.ErrorBackoff
	}
	if r.cfg.Schedule != nil {
		now := r.clock.Now()
		d := r.cfg.Schedule.Next(now).Sub(now)
		if d < 0 {
			return 0
		}
		return d
	}
	return r.cfg.Interval
}

// sleep waits for d and reports whether the runner should continue.
func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if r.after != nil {
		select {
		case <-ctx.Done():
			return false
		case <-r.after(d):
			return ctx.Err() == nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Run runs job every interval, backing off by errorBackoff after a failed
// tick, until ctx is cancelled.
func Run(ctx context.Context, job Job, sessions store.SessionFactory, interval, errorBackoff time.Duration) error {
	r, err := NewRunner(job, sessions, RunnerConfig{Interval: interval, ErrorBackoff: errorBackoff})
	if err != nil {
		return err
	}
	r.Run(ctx)
	return nil
}
