// Package state holds the per-invocation state shared by the pipeline, the runtime worker
// and their collaborators.
package state

import (
	"log/slog"
	"net/url"
	"slices"
	"sync"

	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/logging"
	"github.com/atlanticdynamic/ember/internal/modules"
	"github.com/atlanticdynamic/ember/internal/progress"
	"github.com/gofrs/uuid/v5"
)

// MainModuleIndex is the argv position holding the main module specifier or program text.
const MainModuleIndex = 1

// Shared is created once per invocation and referenced by everything that runs in it.
// Apart from the main module, which is resolved on first use, it never changes.
type Shared struct {
	flags    config.Flags
	argv     []string
	progress *progress.Reporter
	id       uuid.UUID
	sink     *logging.Sink
	logger   *slog.Logger

	mainOnce sync.Once
	mainURL  *url.URL
	mainErr  error
}

// Option configures a Shared.
type Option func(*Shared)

// WithSink sets the log sink. Without it records go to a warn-level stderr sink.
func WithSink(sink *logging.Sink) Option {
	return func(s *Shared) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithID overrides the generated invocation ID.
func WithID(id uuid.UUID) Option {
	return func(s *Shared) {
		s.id = id
	}
}

// New creates the shared state for one invocation.
func New(flags config.Flags, argv []string, reporter *progress.Reporter, opts ...Option) *Shared {
	s := &Shared{
		flags:    flags,
		argv:     slices.Clone(argv),
		progress: reporter,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.progress == nil {
		s.progress = progress.New()
	}
	if s.sink == nil {
		s.sink = logging.NewSink(logging.Options{})
	}
	if s.id.IsNil() {
		s.id = uuid.Must(uuid.NewV6())
	}
	s.logger = s.sink.Logger(logging.OriginHost).With("invocation", s.id.String())
	return s
}

// Flags returns the flag snapshot.
func (s *Shared) Flags() config.Flags {
	return s.flags
}

// Argv returns a copy of the argument vector.
func (s *Shared) Argv() []string {
	return slices.Clone(s.argv)
}

// Arg returns argv[i] and whether it exists.
func (s *Shared) Arg(i int) (string, bool) {
	if i < 0 || i >= len(s.argv) {
		return "", false
	}
	return s.argv[i], true
}

// ScriptArgs returns the arguments after the main module or program text.
func (s *Shared) ScriptArgs() []string {
	if len(s.argv) <= MainModuleIndex+1 {
		return nil
	}
	return slices.Clone(s.argv[MainModuleIndex+1:])
}

// Progress returns the progress reporter.
func (s *Shared) Progress() *progress.Reporter {
	return s.progress
}

// ID returns the invocation ID.
func (s *Shared) ID() uuid.UUID {
	return s.id
}

// Sink returns the log sink.
func (s *Shared) Sink() *logging.Sink {
	return s.sink
}

// Logger returns the host logger, tagged with the invocation ID.
func (s *Shared) Logger() *slog.Logger {
	return s.logger
}

// ScriptLogger returns the logger for records emitted by hosted code.
func (s *Shared) ScriptLogger() *slog.Logger {
	return s.sink.Logger(logging.OriginScript).With("invocation", s.id.String())
}

// MainModule resolves argv[1] to the main module URL. The first call decides the result;
// later calls return the same value.
func (s *Shared) MainModule() (*url.URL, error) {
	s.mainOnce.Do(func() {
		spec, ok := s.Arg(MainModuleIndex)
		if !ok || spec == "" {
			s.mainErr = hosterr.Hostf(hosterr.KindUsage, "missing main module argument")
			return
		}
		u, err := modules.ResolveRoot(spec)
		if err != nil {
			s.mainErr = hosterr.Host(hosterr.KindResolution, err)
			return
		}
		s.mainURL = u
		s.logger.Debug("Resolved main module", "url", u.String())
	})
	if s.mainErr != nil {
		return nil, s.mainErr
	}
	out := *s.mainURL
	return &out, nil
}
