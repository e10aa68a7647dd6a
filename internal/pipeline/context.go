package pipeline

import (
	"io"
	"os"

	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/atlanticdynamic/ember/internal/logging"
	"github.com/atlanticdynamic/ember/internal/progress"
	"github.com/atlanticdynamic/ember/internal/runtime"
	"github.com/atlanticdynamic/ember/internal/state"
)

// MainWorkerName names the worker of every execution context.
const MainWorkerName = "main"

type contextConfig struct {
	sink           *logging.Sink
	progressOutput io.Writer
	workerOptions  []runtime.Option
}

// ContextOption configures NewContext.
type ContextOption func(*contextConfig)

// WithSink sets the log sink of the context.
func WithSink(sink *logging.Sink) ContextOption {
	return func(c *contextConfig) {
		c.sink = sink
	}
}

// WithProgressOutput sets where the progress status line is drawn. The default is stderr.
func WithProgressOutput(w io.Writer) ContextOption {
	return func(c *contextConfig) {
		if w != nil {
			c.progressOutput = w
		}
	}
}

// WithWorkerOptions passes options to the runtime worker.
func WithWorkerOptions(opts ...runtime.Option) ContextOption {
	return func(c *contextConfig) {
		c.workerOptions = append(c.workerOptions, opts...)
	}
}

// NewContext builds the execution context of one invocation: a progress reporter drawing
// to the terminal, the shared state and the main worker. It cannot fail; problems surface
// when the worker bootstraps or runs code.
func NewContext(flags config.Flags, argv []string, opts ...ContextOption) (*runtime.Worker, *state.Shared) {
	cfg := &contextConfig{progressOutput: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}

	reporter := progress.New()
	reporter.Subscribe(progress.TerminalHandler(cfg.progressOutput))

	shared := state.New(flags, argv, reporter, state.WithSink(cfg.sink))
	worker := runtime.New(MainWorkerName, runtime.DefaultSnapshot(), shared, cfg.workerOptions...)
	return worker, shared
}
