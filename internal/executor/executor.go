// Package executor runs the single top-level task of an invocation on a dedicated
// goroutine and waits for it to settle.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robbyt/go-supervisor/supervisor"
)

// ErrAlreadySubmitted is returned when a second task is submitted to the same executor.
var ErrAlreadySubmitted = errors.New("executor already ran a task")

// ErrTaskPanicked wraps a panic recovered from the task.
var ErrTaskPanicked = errors.New("task panicked")

// Executor accepts exactly one task.
type Executor struct {
	logger *slog.Logger

	mu        sync.Mutex
	submitted bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for task lifecycle records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an executor.
func New(opts ...Option) *Executor {
	e := &Executor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithGroup("executor")
	return e
}

// Run starts task on its own goroutine and blocks until it returns. Stage changes of
// tasks that implement supervisor.Stateable are logged at debug level.
func (e *Executor) Run(ctx context.Context, task supervisor.Runnable) error {
	e.mu.Lock()
	if e.submitted {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadySubmitted, task)
	}
	e.submitted = true
	e.mu.Unlock()

	watchCtx, stopWatch := context.WithCancel(ctx)
	var watchers sync.WaitGroup
	if st, ok := task.(supervisor.Stateable); ok {
		states := st.GetStateChan(watchCtx)
		watchers.Go(func() {
			for state := range states {
				e.logger.Debug("Task state changed", "task", task.String(), "state", state)
			}
		})
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %s: %v", ErrTaskPanicked, task, r)
			}
		}()
		done <- task.Run(ctx)
	}()

	e.logger.Debug("Task submitted", "task", task.String())
	err := <-done

	stopWatch()
	watchers.Wait()

	if err != nil {
		e.logger.Debug("Task failed", "task", task.String(), "error", err)
		return err
	}
	e.logger.Debug("Task settled", "task", task.String())
	return nil
}
