// Package pipeline drives one run-like command through its stages: bootstrap the realm,
// prepare the program, execute it, and settle outstanding asynchronous work.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/atlanticdynamic/ember/internal/finitestate"
	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/runtime"
	"github.com/atlanticdynamic/ember/internal/state"
	"github.com/robbyt/go-supervisor/supervisor"
)

var _ supervisor.Runnable = (*Pipeline)(nil)

// Pipeline runs one Variant against one Engine. It runs at most once.
type Pipeline struct {
	variant Variant
	engine  Engine
	shared  *state.Shared
	stdout  io.Writer
	logger  *slog.Logger
	fsm     finitestate.Machine

	mu        sync.Mutex
	runCancel context.CancelFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStdout sets where info and version output is written. The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.stdout = w
		}
	}
}

// New creates a pipeline for variant.
func New(variant Variant, engine Engine, shared *state.Shared, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		variant: variant,
		engine:  engine,
		shared:  shared,
		stdout:  os.Stdout,
		logger:  shared.Logger().WithGroup("pipeline").With("variant", variant.Name),
	}
	for _, opt := range opts {
		opt(p)
	}

	machine, err := finitestate.New(p.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	p.fsm = machine
	return p, nil
}

// String implements the supervisor.Runnable interface
func (p *Pipeline) String() string {
	return "pipeline." + p.variant.Name
}

// Engine returns the engine the pipeline drives.
func (p *Pipeline) Engine() Engine {
	return p.engine
}

// Shared returns the invocation state.
func (p *Pipeline) Shared() *state.Shared {
	return p.shared
}

// Stdout returns the writer for info and version output.
func (p *Pipeline) Stdout() io.Writer {
	return p.stdout
}

// Run implements the supervisor.Runnable interface. Every error it returns is a
// *hosterr.Error.
func (p *Pipeline) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.runCancel = cancel
	p.mu.Unlock()
	defer cancel()

	p.logger.Debug("Starting pipeline")
	if err := p.run(runCtx); err != nil {
		if stateErr := p.fsm.Transition(finitestate.StageFailed); stateErr != nil {
			p.logger.Error("Failed to transition to failed stage", "error", stateErr)
		}
		he := hosterr.From(err)
		p.logger.Debug("Pipeline failed", "origin", he.Origin().String(), "error", he.Message())
		return he
	}
	p.logger.Debug("Pipeline settled")
	return nil
}

// Stop implements the supervisor.Runnable interface
func (p *Pipeline) Stop() {
	p.logger.Debug("Stopping pipeline")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runCancel != nil {
		p.runCancel()
	}
}

func (p *Pipeline) run(ctx context.Context) error {
	if err := p.enter(finitestate.StageBootstrapping); err != nil {
		return err
	}
	if err := p.bootstrap(ctx); err != nil {
		return err
	}

	if err := p.enter(finitestate.StagePreparing); err != nil {
		return err
	}
	prog, err := p.prepare(ctx)
	if err != nil {
		return err
	}

	if err := p.enter(finitestate.StageExecuting); err != nil {
		return err
	}
	if err := p.execute(ctx, prog); err != nil {
		return err
	}
	if p.variant.AfterLoad != nil {
		if err := p.variant.AfterLoad(ctx, p); err != nil {
			return err
		}
	}
	if p.variant.FollowUp != nil {
		if err := p.variant.FollowUp(ctx, p); err != nil {
			return err
		}
	}

	if err := p.enter(finitestate.StageSettling); err != nil {
		return err
	}
	if err := p.engine.Wait(ctx); err != nil {
		return err
	}
	return p.enter(finitestate.StageSettled)
}

func (p *Pipeline) enter(stage string) error {
	if err := p.fsm.Transition(stage); err != nil {
		return hosterr.Hostf(hosterr.KindInternal, "failed to enter %s stage: %w", stage, err)
	}
	return nil
}

// bootstrap runs the install hook, then the realm entry point.
func (p *Pipeline) bootstrap(ctx context.Context) error {
	if p.variant.Install != nil {
		if err := p.variant.Install(ctx, p); err != nil {
			return err
		}
	}
	if _, err := p.engine.Call(ctx, runtime.EntryPoint); err != nil {
		if hosterr.IsKind(err, hosterr.KindBootstrap) {
			return err
		}
		return hosterr.Host(hosterr.KindBootstrap, err)
	}
	return nil
}

func (p *Pipeline) prepare(ctx context.Context) (Program, error) {
	if p.variant.Prepare == nil {
		return Program{Kind: ProgramNone}, nil
	}
	return p.variant.Prepare(ctx, p)
}

func (p *Pipeline) execute(ctx context.Context, prog Program) error {
	switch prog.Kind {
	case ProgramNone:
		return nil
	case ProgramScript:
		p.logger.Debug("Executing script", "name", prog.Name)
		return p.engine.Execute(ctx, prog.Name, prog.Code)
	case ProgramModule:
		p.logger.Debug("Executing module", "url", prog.URL.String(), "prefetch", prog.Prefetch)
		return p.engine.ExecuteModule(ctx, prog.URL, prog.Prefetch)
	default:
		return hosterr.Hostf(hosterr.KindInternal, "unknown program kind %s", prog.Kind)
	}
}
