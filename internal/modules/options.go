package modules

import (
	"log/slog"
	"net/http"

	"github.com/atlanticdynamic/ember/internal/progress"
	"go.starlark.net/syntax"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used by the loader and its fetcher.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithProgress reports downloads and compilations to r.
func WithProgress(r *progress.Reporter) Option {
	return func(l *Loader) {
		l.progress = r
	}
}

// WithReload ignores cached sources and compiled programs.
func WithReload(reload bool) Option {
	return func(l *Loader) {
		l.reload = reload
	}
}

// WithHTTPClient sets the client used for remote modules.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.httpClient = client
	}
}

// WithFileOptions sets the Starlark dialect used to compile modules.
func WithFileOptions(opts *syntax.FileOptions) Option {
	return func(l *Loader) {
		if opts != nil {
			l.fileOptions = opts
		}
	}
}

// WithPredeclared sets the predicate reporting the names the host predeclares for every
// module.
func WithPredeclared(isPredeclared func(string) bool) Option {
	return func(l *Loader) {
		if isPredeclared != nil {
			l.predeclared = isPredeclared
		}
	}
}

// WithCacheSalt mixes salt into compiled cache keys. Anything that changes how a module
// compiles (predeclared names, dialect options) belongs in the salt.
func WithCacheSalt(salt string) Option {
	return func(l *Loader) {
		l.salt = salt
	}
}
