package pipeline

import (
	"context"
	"net/url"

	"github.com/atlanticdynamic/ember/internal/modules"
	"github.com/atlanticdynamic/ember/internal/runtime"
	"go.starlark.net/starlark"
)

var _ Engine = (*runtime.Worker)(nil)

// Engine is what the pipeline needs from the execution engine handle.
type Engine interface {
	// Execute runs standalone script text with imports disabled.
	Execute(ctx context.Context, name, code string) error

	// ExecuteModule loads the module graph at u and, unless prefetch is set, evaluates it.
	ExecuteModule(ctx context.Context, u *url.URL, prefetch bool) error

	// Call invokes a realm global.
	Call(ctx context.Context, fn string, args ...starlark.Value) (starlark.Value, error)

	// Wait drains host-scheduled asynchronous work.
	Wait(ctx context.Context) error

	// ModuleMetadata describes a loaded module.
	ModuleMetadata(name string) (modules.Metadata, error)

	// Deps returns the dependency tree of a loaded module.
	Deps(name string) (*modules.Deps, bool)
}
