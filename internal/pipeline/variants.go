package pipeline

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/state"
	"github.com/atlanticdynamic/ember/internal/version"
	"github.com/atlanticdynamic/ember/internal/xeval"
)

const (
	// EvalWrapperName is the function eval code runs in.
	EvalWrapperName = "_top_level_wrapper"

	evalName  = "<eval>"
	xevalName = "<xeval>"
)

// Hook is a variant-specific step run by the pipeline.
type Hook func(ctx context.Context, p *Pipeline) error

// Variant is what distinguishes one run-like command from another. Every field except
// Name is optional.
type Variant struct {
	Name string
	// Install runs before the bootstrap entry point.
	Install Hook
	// Prepare produces the program of the Execute stage.
	Prepare func(ctx context.Context, p *Pipeline) (Program, error)
	// AfterLoad runs once the program has been executed or loaded.
	AfterLoad Hook
	// FollowUp hands control to a collaborator after AfterLoad.
	FollowUp Hook
}

// Run executes the main module with imports followed.
func Run() Variant {
	return Variant{
		Name:    "run",
		Prepare: mainModule(false),
	}
}

// Fetch loads and compiles the main module graph without evaluating it.
func Fetch() Variant {
	return Variant{
		Name:    "fetch",
		Prepare: mainModule(true),
	}
}

// Info is Fetch followed by a description of the main module.
func Info() Variant {
	return Variant{
		Name:    "info",
		Prepare: mainModule(true),
		AfterLoad: func(_ context.Context, p *Pipeline) error {
			u, err := p.shared.MainModule()
			if err != nil {
				return err
			}
			PrintInfo(p.stdout, p.engine, u.String())
			return nil
		},
	}
}

// Eval runs argv[1] as script text inside a function so it may return early. Imports are
// disabled.
func Eval() Variant {
	return Variant{
		Name: "eval",
		Prepare: func(_ context.Context, p *Pipeline) (Program, error) {
			code, err := programText(p.shared)
			if err != nil {
				return Program{}, err
			}
			return Program{Kind: ProgramScript, Name: evalName, Code: EvalSource(code)}, nil
		},
	}
}

// EvalSource wraps code in the eval wrapper function and calls it.
func EvalSource(code string) string {
	return fmt.Sprintf("def %s():\n%s\n%s()\n", EvalWrapperName, xeval.Indent(code), EvalWrapperName)
}

// Xeval installs argv[1] as the per-record callback before bootstrap, then hands control
// to loop, which feeds it the input records.
func Xeval(loop Hook) Variant {
	return Variant{
		Name: "xeval",
		Install: func(ctx context.Context, p *Pipeline) error {
			code, err := programText(p.shared)
			if err != nil {
				return err
			}
			replvar := p.shared.Flags().XevalReplvar
			if replvar == "" {
				replvar = config.DefaultReplvar
			}
			return p.engine.Execute(ctx, xevalName, xeval.WrapperSource(replvar, code))
		},
		FollowUp: loop,
	}
}

// Repl bootstraps the realm and hands control to session.
func Repl(session Hook) Variant {
	return Variant{
		Name:     "repl",
		FollowUp: session,
	}
}

// Version bootstraps the realm and prints the host and engine versions.
func Version() Variant {
	return Variant{
		Name: "version",
		FollowUp: func(_ context.Context, p *Pipeline) error {
			if _, err := fmt.Fprintln(p.stdout, version.Get().String()); err != nil {
				return hosterr.Host(hosterr.KindIO, err)
			}
			return nil
		},
	}
}

func mainModule(prefetch bool) func(context.Context, *Pipeline) (Program, error) {
	return func(_ context.Context, p *Pipeline) (Program, error) {
		u, err := p.shared.MainModule()
		if err != nil {
			return Program{}, err
		}
		p.logger.Debug("Main module", "url", u.String())
		return Program{Kind: ProgramModule, URL: u, Prefetch: prefetch}, nil
	}
}

func programText(shared *state.Shared) (string, error) {
	code, ok := shared.Arg(state.MainModuleIndex)
	if !ok {
		return "", hosterr.Hostf(hosterr.KindUsage, "missing program text argument")
	}
	return code, nil
}
