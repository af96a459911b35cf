package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/worktrack/internal/mocks"
	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastAfter(time.Duration) <-chan time.Time {
	return time.After(time.Millisecond)
}

// A job that fails on every tick keeps retrying without slowing down a
// healthy job running beside it.
func TestSupervisor_RunnersAreIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var healthy, broken atomic.Int32
	factory := mocks.NewSessionFactory()
	cfg := RunnerConfig{Interval: time.Hour, ErrorBackoff: time.Minute}

	good, err := NewRunner(JobFunc("healthy", func(context.Context, store.Session) error {
		healthy.Add(1)
		return nil
	}), factory, cfg, WithAfter(fastAfter), WithLogger(logger.Discard()))
	require.NoError(t, err)

	bad, err := NewRunner(JobFunc("broken", func(context.Context, store.Session) error {
		if broken.Add(1)%2 == 0 {
			panic("corrupt row")
		}
		return errors.New("always failing")
	}), factory, cfg, WithAfter(fastAfter), WithLogger(logger.Discard()))
	require.NoError(t, err)

	sup := NewSupervisor(logger.Discard())
	sup.Add(good)
	sup.Add(bad)

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return healthy.Load() >= 3 && broken.Load() >= 3
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	for _, s := range factory.Sessions() {
		assert.True(t, s.Closed())
	}
}

// A panic that escapes the runner loop itself, here from the tick observer,
// does not take the job down for good.
func TestSupervisor_RestartsCrashedRunner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks, observed atomic.Int32
	r, err := NewRunner(JobFunc("fragile", func(context.Context, store.Session) error {
		ticks.Add(1)
		return nil
	}), mocks.NewSessionFactory(), RunnerConfig{Interval: time.Hour, ErrorBackoff: time.Minute},
		WithAfter(fastAfter),
		WithLogger(logger.Discard()),
		WithTickObserver(func(TickResult) {
			if observed.Add(1) == 1 {
				panic("observer failed")
			}
		}))
	require.NoError(t, err)

	log, logs := logger.GetTestLogger(t)
	sup := NewSupervisor(log)
	var restarted atomic.Value
	sup.OnRestart(func(job string) { restarted.Store(job) })
	sup.Add(r)
	sup.Start(ctx)

	require.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), sup.Restarts())
	assert.Equal(t, "fragile", restarted.Load())
	logger.AssertLogContains(t, logs, "job runner crashed")
	logger.AssertLogContains(t, logs, "restarting job runner")

	cancel()
	sup.Wait()
}

func TestSupervisor_WaitWithoutRunners(t *testing.T) {
	sup := NewSupervisor(nil)
	sup.Start(context.Background())
	sup.Wait()
}
