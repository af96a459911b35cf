package scheduler

import (
	"context"
	"fmt"

	"github.com/phrazzld/worktrack/internal/store"
)

// Job is the body of a periodic task. Run receives a session opened for
// this tick alone; the runner closes it when Run returns.
type Job interface {
	Name() string
	Run(ctx context.Context, sess store.Session) error
}

type funcJob struct {
	name string
	fn   func(ctx context.Context, sess store.Session) error
}

func (j funcJob) Name() string { return j.name }

func (j funcJob) Run(ctx context.Context, sess store.Session) error { return j.fn(ctx, sess) }

// JobFunc adapts a function to Job.
func JobFunc(name string, fn func(ctx context.Context, sess store.Session) error) Job {
	return funcJob{name: name, fn: fn}
}

// PanicError is returned for a tick whose job panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}
