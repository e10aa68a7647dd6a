// Package dispatch maps a parsed subcommand to the pipeline that implements it and runs
// that pipeline to completion.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/atlanticdynamic/ember/internal/executor"
	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/logging"
	"github.com/atlanticdynamic/ember/internal/pipeline"
	"github.com/atlanticdynamic/ember/internal/repl"
	"github.com/atlanticdynamic/ember/internal/runtime"
	"github.com/atlanticdynamic/ember/internal/typedecl"
	"github.com/atlanticdynamic/ember/internal/xeval"
)

// PrompterFactory creates the line reader of a REPL session.
type PrompterFactory func() repl.Prompter

// Dispatcher runs one subcommand per Dispatch call.
type Dispatcher struct {
	sink        *logging.Sink
	stdout      io.Writer
	stderr      io.Writer
	stdin       io.Reader
	newPrompter PrompterFactory
	workerOpts  []runtime.Option
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSink sets the log sink handed to every execution context.
func WithSink(sink *logging.Sink) Option {
	return func(d *Dispatcher) {
		d.sink = sink
	}
}

// WithStdout sets where program, info, version and type document output goes.
func WithStdout(w io.Writer) Option {
	return func(d *Dispatcher) {
		if w != nil {
			d.stdout = w
		}
	}
}

// WithStderr sets where progress and REPL errors go.
func WithStderr(w io.Writer) Option {
	return func(d *Dispatcher) {
		if w != nil {
			d.stderr = w
		}
	}
}

// WithStdin sets the xeval record source.
func WithStdin(r io.Reader) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.stdin = r
		}
	}
}

// WithPrompter sets the REPL line reader factory. The default is a liner terminal prompter.
func WithPrompter(f PrompterFactory) Option {
	return func(d *Dispatcher) {
		if f != nil {
			d.newPrompter = f
		}
	}
}

// WithWorkerOptions passes options to the worker of every execution context.
func WithWorkerOptions(opts ...runtime.Option) Option {
	return func(d *Dispatcher) {
		d.workerOpts = append(d.workerOpts, opts...)
	}
}

// New creates a dispatcher writing to the process streams.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		stdin:       os.Stdin,
		newPrompter: func() repl.Prompter { return repl.NewLiner() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs sub with argv, where argv[0] is the program name and argv[1] the main
// module or program text. Every error it returns is a *hosterr.Error.
func (d *Dispatcher) Dispatch(ctx context.Context, flags config.Flags, sub Subcommand, argv []string) error {
	if sub == SubcommandTypes {
		if _, err := fmt.Fprintln(d.stdout, typedecl.Document()); err != nil {
			return hosterr.Host(hosterr.KindIO, err)
		}
		return nil
	}

	worker, shared := pipeline.NewContext(flags, argv,
		pipeline.WithSink(d.sink),
		pipeline.WithProgressOutput(d.stderr),
		pipeline.WithWorkerOptions(append([]runtime.Option{runtime.WithStdout(d.stdout)}, d.workerOpts...)...),
	)
	logger := shared.Logger().WithGroup("dispatch")

	variant, err := d.variant(sub, worker)
	if err != nil {
		return hosterr.From(err)
	}
	logger.Debug("Dispatching", "subcommand", sub.String(), "argc", len(argv))

	p, err := pipeline.New(variant, worker, shared, pipeline.WithStdout(d.stdout))
	if err != nil {
		return hosterr.Host(hosterr.KindInternal, err)
	}

	if err := executor.New(executor.WithLogger(shared.Logger())).Run(ctx, p); err != nil {
		return hosterr.From(err)
	}
	return nil
}

func (d *Dispatcher) variant(sub Subcommand, worker *runtime.Worker) (pipeline.Variant, error) {
	switch sub {
	case SubcommandEval:
		return pipeline.Eval(), nil
	case SubcommandFetch:
		return pipeline.Fetch(), nil
	case SubcommandInfo:
		return pipeline.Info(), nil
	case SubcommandRun:
		return pipeline.Run(), nil
	case SubcommandVersion:
		return pipeline.Version(), nil
	case SubcommandXeval:
		return pipeline.Xeval(func(ctx context.Context, p *pipeline.Pipeline) error {
			return xeval.New(p.Engine(), d.stdin, p.Shared().Flags().XevalDelim).Run(ctx)
		}), nil
	case SubcommandRepl:
		return pipeline.Repl(func(ctx context.Context, p *pipeline.Pipeline) error {
			session := repl.New(worker, d.newPrompter(),
				repl.WithOutput(d.stdout, d.stderr),
				repl.WithLogger(p.Shared().Logger()),
				repl.WithHistory(worker.Cache().HistoryPath()),
			)
			return session.Run(ctx)
		}), nil
	default:
		return pipeline.Variant{}, hosterr.Hostf(hosterr.KindUsage, "%w: %s", ErrUnknownSubcommand, sub)
	}
}
