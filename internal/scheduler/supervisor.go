package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Supervisor hosts independent runners, one goroutine each.
type Supervisor struct {
	mu      sync.Mutex
	runners []*Runner
	wg      sync.WaitGroup
	logger  *slog.Logger

	restarts  atomic.Int64
	onRestart func(job string)
}

// NewSupervisor creates an empty Supervisor.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{logger: logger.With(slog.String("component", "supervisor"))}
}

// OnRestart sets a callback invoked each time a crashed runner is restarted.
// It must be called before Start.
func (s *Supervisor) OnRestart(fn func(job string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRestart = fn
}

// Add registers a runner. Runners added after Start are not started.
func (s *Supervisor) Add(r *Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runners = append(s.runners, r)
}

// Start launches every registered runner under ctx and returns immediately.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	runners := append([]*Runner(nil), s.runners...)
	s.mu.Unlock()

	for _, r := range runners {
		s.wg.Add(1)
		go s.run(ctx, r)
	}
	s.logger.InfoContext(ctx, "job runners started", slog.Int("count", len(runners)))
}

// run hosts r until ctx is cancelled. A runner that panics out of Run is
// restarted after its error backoff.
func (s *Supervisor) run(ctx context.Context, r *Runner) {
	defer s.wg.Done()
	for {
		if !s.runGuarded(ctx, r) {
			return
		}
		s.restarts.Add(1)
		if s.onRestart != nil {
			s.onRestart(r.Name())
		}
		s.logger.WarnContext(ctx, "restarting job runner",
			slog.String("job", r.Name()),
			slog.Duration("retry_in", r.cfg.ErrorBackoff))
		if !r.sleep(ctx, r.cfg.ErrorBackoff) {
			return
		}
	}
}

// runGuarded reports whether r crashed.
func (s *Supervisor) runGuarded(ctx context.Context, r *Runner) (crashed bool) {
	defer func() {
		if v := recover(); v != nil {
			crashed = true
			s.logger.ErrorContext(ctx, "job runner crashed",
				slog.String("job", r.Name()),
				slog.Any("panic", v),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	r.Run(ctx)
	return false
}

// Restarts returns how many times crashed runners have been restarted.
func (s *Supervisor) Restarts() int64 {
	return s.restarts.Load()
}

// Wait blocks until every started runner has stopped.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Run starts every runner and blocks until ctx is cancelled and all
// runners have stopped.
func (s *Supervisor) Run(ctx context.Context) {
	s.Start(ctx)
	s.Wait()
}
