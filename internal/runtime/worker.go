// Package runtime owns the script execution context of one invocation: a Starlark realm
// with host builtins, the module instances loaded into it, and its timer queue. Risor
// modules are evaluated through go-polyscript.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/modules"
	"github.com/atlanticdynamic/ember/internal/state"
	"github.com/atlanticdynamic/ember/internal/version"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Worker is the execution engine handle. It is owned by a single pipeline and must only
// be used from the goroutine running that pipeline.
type Worker struct {
	name     string
	snapshot Snapshot
	shared   *state.Shared
	logger   *slog.Logger
	stdout   io.Writer

	fileOptions syntax.FileOptions
	thread      *starlark.Thread
	builtins    starlark.StringDict
	globals     starlark.StringDict
	ready       bool

	loader        *modules.Loader
	loaderOptions []modules.Option
	instances     map[string]starlark.StringDict
	loading       []*modules.Module
	timers        timerQueue
}

// Option configures a Worker.
type Option func(*Worker)

// WithStdout redirects print() and other program output. The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(wk *Worker) {
		if w != nil {
			wk.stdout = w
		}
	}
}

// WithLoaderOptions passes extra options to the module loader.
func WithLoaderOptions(opts ...modules.Option) Option {
	return func(wk *Worker) {
		wk.loaderOptions = append(wk.loaderOptions, opts...)
	}
}

// New creates a worker whose realm will be initialized from snapshot. Creating a worker
// never fails; the snapshot runs on first use.
func New(name string, snapshot Snapshot, shared *state.Shared, opts ...Option) *Worker {
	fileOptions, maxSteps := engineSettings()
	w := &Worker{
		name:        name,
		snapshot:    snapshot,
		shared:      shared,
		stdout:      os.Stdout,
		fileOptions: fileOptions,
		instances:   make(map[string]starlark.StringDict),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = shared.Logger().With("worker", name)

	w.thread = &starlark.Thread{
		Name:  name,
		Print: w.print,
	}
	if maxSteps > 0 {
		w.thread.SetMaxExecutionSteps(maxSteps)
	}

	w.builtins = w.newBuiltins()
	w.globals = make(starlark.StringDict, len(w.builtins))
	for k, v := range w.builtins {
		w.globals[k] = v
	}

	flags := shared.Flags()
	loaderOptions := []modules.Option{
		modules.WithLogger(w.logger),
		modules.WithProgress(shared.Progress()),
		modules.WithReload(flags.Reload),
		modules.WithFileOptions(&w.fileOptions),
		modules.WithPredeclared(w.builtins.Has),
		modules.WithCacheSalt(w.cacheSalt()),
	}
	w.loader = modules.NewLoader(
		modules.NewCache(flags.CacheDir),
		append(loaderOptions, w.loaderOptions...)...,
	)
	return w
}

// Name returns the worker name.
func (w *Worker) Name() string {
	return w.name
}

// Shared returns the invocation state the worker was created with.
func (w *Worker) Shared() *state.Shared {
	return w.shared
}

// Stdout returns the program output writer.
func (w *Worker) Stdout() io.Writer {
	return w.stdout
}

// Cache returns the on-disk cache used by the module loader.
func (w *Worker) Cache() *modules.Cache {
	return w.loader.Cache()
}

// cacheSalt covers everything besides the source that changes how a module compiles.
func (w *Worker) cacheSalt() string {
	names := w.builtins.Keys()
	slices.Sort(names)
	return fmt.Sprintf("%s|%+v|%s", strings.Join(names, ","), w.fileOptions, version.Get().Starlark)
}

// init runs the snapshot once, binding its globals into the realm.
func (w *Worker) init() error {
	if w.ready {
		return nil
	}
	_, prog, err := starlark.SourceProgramOptions(&w.fileOptions, w.snapshot.Name, w.snapshot.Source, w.builtins.Has)
	if err != nil {
		return hosterr.Host(hosterr.KindBootstrap, fmt.Errorf("snapshot %s: %w", w.snapshot.Name, err))
	}
	globals, err := prog.Init(w.thread, w.builtins)
	if err != nil {
		return hosterr.Host(hosterr.KindBootstrap, fmt.Errorf("snapshot %s: %w", w.snapshot.Name, err))
	}
	w.bind(globals)
	w.ready = true
	w.logger.Debug("Realm initialized", "snapshot", w.snapshot.Name)
	return nil
}

func (w *Worker) bind(globals starlark.StringDict) {
	for k, v := range globals {
		w.globals[k] = v
	}
}

// guard cancels the running Starlark thread when ctx is done.
func (w *Worker) guard(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		w.thread.Cancel(context.Cause(ctx).Error())
	})
}

// Execute runs code as a standalone script in the realm. Imports are disabled. Top-level
// bindings become realm globals visible to later scripts.
func (w *Worker) Execute(ctx context.Context, name, code string) error {
	if err := w.init(); err != nil {
		return err
	}
	defer w.guard(ctx)()

	w.thread.Load = nil
	_, prog, err := starlark.SourceProgramOptions(&w.fileOptions, name, code, w.globals.Has)
	if err != nil {
		return hosterr.FromStarlark(err)
	}
	globals, err := prog.Init(w.thread, w.globals)
	if err != nil {
		return hosterr.FromStarlark(err)
	}
	w.bind(globals)
	return nil
}

// ExecuteModule loads the module graph rooted at u and evaluates it with imports followed.
// With prefetch set the graph is only fetched and compiled.
func (w *Worker) ExecuteModule(ctx context.Context, u *url.URL, prefetch bool) error {
	if err := w.init(); err != nil {
		return err
	}

	mod, err := w.loader.Load(ctx, u)
	if err != nil {
		return err
	}
	if prefetch {
		w.logger.Debug("Module graph prefetched", "module", mod.Name())
		return nil
	}

	if mod.MediaType == modules.MediaTypeRisor {
		return w.runRisor(ctx, mod)
	}

	defer w.guard(ctx)()
	w.thread.Load = w.load
	defer func() { w.thread.Load = nil }()

	globals, err := w.instantiate(mod)
	if err != nil {
		return err
	}
	w.bind(globals)
	return nil
}

// instantiate evaluates a loaded module once; later imports share the instance.
func (w *Worker) instantiate(mod *modules.Module) (starlark.StringDict, error) {
	if globals, ok := w.instances[mod.Name()]; ok {
		return globals, nil
	}

	w.loading = append(w.loading, mod)
	globals, err := mod.Program.Init(w.thread, w.builtins)
	w.loading = w.loading[:len(w.loading)-1]
	if err != nil {
		return nil, hosterr.FromStarlark(err)
	}

	globals.Freeze()
	w.instances[mod.Name()] = globals
	return globals, nil
}

// load implements load() for modules evaluated by ExecuteModule.
func (w *Worker) load(_ *starlark.Thread, specifier string) (starlark.StringDict, error) {
	if len(w.loading) == 0 {
		return nil, hosterr.Hostf(hosterr.KindResolution, "load(%q) outside of a module", specifier)
	}
	referrer := w.loading[len(w.loading)-1]

	target, ok := referrer.Resolve(specifier)
	if !ok {
		return nil, hosterr.Hostf(hosterr.KindResolution, "%q is not an import of %s", specifier, referrer.Name())
	}
	mod, ok := w.loader.Module(target.String())
	if !ok {
		return nil, hosterr.Hostf(hosterr.KindResolution, "module %s was not loaded", target)
	}
	return w.instantiate(mod)
}

// Call invokes the realm global fn with args.
func (w *Worker) Call(ctx context.Context, fn string, args ...starlark.Value) (starlark.Value, error) {
	if err := w.init(); err != nil {
		return nil, err
	}
	callable, ok := w.globals[fn].(starlark.Callable)
	if !ok {
		return nil, hosterr.Hostf(hosterr.KindInternal, "%s is not a callable realm global", fn)
	}
	defer w.guard(ctx)()

	v, err := starlark.Call(w.thread, callable, args, nil)
	if err != nil {
		return nil, hosterr.FromStarlark(err)
	}
	return v, nil
}

// EvalChunk reads one compound statement with readline and evaluates it against the realm
// globals, as an interactive session would. A lone expression yields its value; anything
// else yields None. An error returned by readline (io.EOF, an aborted prompt) is returned
// unchanged.
func (w *Worker) EvalChunk(ctx context.Context, filename string, readline func() ([]byte, error)) (starlark.Value, error) {
	if err := w.init(); err != nil {
		return nil, err
	}

	var readErr error
	f, err := w.fileOptions.ParseCompoundStmt(filename, func() ([]byte, error) {
		line, err := readline()
		if err != nil && readErr == nil {
			readErr = err
		}
		return line, err
	})
	if err != nil {
		if readErr != nil {
			return nil, readErr
		}
		return nil, hosterr.FromStarlark(err)
	}
	defer w.guard(ctx)()

	w.thread.Load = nil
	if expr := soleExpr(f); expr != nil {
		v, err := starlark.EvalExprOptions(&w.fileOptions, w.thread, expr, w.globals)
		if err != nil {
			return nil, hosterr.FromStarlark(err)
		}
		return v, nil
	}
	if err := starlark.ExecREPLChunk(f, w.thread, w.globals); err != nil {
		return nil, hosterr.FromStarlark(err)
	}
	return starlark.None, nil
}

func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) != 1 {
		return nil
	}
	if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
		return stmt.X
	}
	return nil
}

// Wait runs scheduled timers until none remain. A failing callback ends the wait with a
// script error.
func (w *Worker) Wait(ctx context.Context) error {
	defer w.guard(ctx)()
	for {
		next, ok := w.timers.peek()
		if !ok {
			return nil
		}
		if d := time.Until(next.due); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				return hosterr.Host(hosterr.KindInternal, context.Cause(ctx))
			case <-t.C:
			}
		}
		w.timers.clear(next.id)

		if _, err := starlark.Call(w.thread, next.fn, nil, nil); err != nil {
			return hosterr.FromStarlark(err)
		}
	}
}

// PendingTimers returns the number of scheduled callbacks.
func (w *Worker) PendingTimers() int {
	return w.timers.len()
}

// Global returns a realm global.
func (w *Worker) Global(name string) (starlark.Value, bool) {
	v, ok := w.globals[name]
	return v, ok
}

// ModuleMetadata returns the metadata of a module loaded by ExecuteModule.
func (w *Worker) ModuleMetadata(name string) (modules.Metadata, error) {
	return w.loader.Metadata(name)
}

// Deps returns the dependency tree of a module loaded by ExecuteModule.
func (w *Worker) Deps(name string) (*modules.Deps, bool) {
	return w.loader.Deps(name)
}

func (w *Worker) print(_ *starlark.Thread, msg string) {
	if _, err := fmt.Fprintln(w.stdout, msg); err != nil {
		w.logger.Warn("Failed to write program output", "error", err)
	}
}
