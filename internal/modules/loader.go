package modules

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/progress"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Module is one loaded unit of the module graph.
type Module struct {
	URL              *url.URL
	Filename         string
	MediaType        MediaType
	Source           []byte
	Program          *starlark.Program
	CompiledFilename string
	SidecarFilename  string
	Imports          []Import
}

// Import is a load() statement resolved against its module.
type Import struct {
	Specifier string
	URL       *url.URL
	Pos       syntax.Position
}

// Name returns the canonical module name, its URL.
func (m *Module) Name() string {
	return m.URL.String()
}

// DisplayName is the name used in Starlark positions and backtraces: the local path for
// file modules, the URL otherwise.
func (m *Module) DisplayName() string {
	if m.URL.Scheme == "file" {
		return m.URL.Path
	}
	return m.URL.String()
}

// Resolve returns the URL a load() specifier of this module points at.
func (m *Module) Resolve(specifier string) (*url.URL, bool) {
	for _, imp := range m.Imports {
		if imp.Specifier == specifier {
			return imp.URL, true
		}
	}
	return nil, false
}

// Loader fetches, compiles and links a module graph. It is not safe for concurrent use.
type Loader struct {
	cache       *Cache
	fetcher     *Fetcher
	reload      bool
	httpClient  *http.Client
	progress    *progress.Reporter
	logger      *slog.Logger
	fileOptions *syntax.FileOptions
	predeclared func(string) bool
	salt        string
	modules     map[string]*Module

	// graphJob is the first job opened during a Load. It stays open until the Load
	// returns so the status line ends once per graph.
	graphJob *progress.Job
}

// NewLoader creates a loader backed by cache.
func NewLoader(cache *Cache, opts ...Option) *Loader {
	l := &Loader{
		cache:       cache,
		logger:      slog.Default(),
		fileOptions: &syntax.FileOptions{},
		predeclared: func(string) bool { return false },
		modules:     make(map[string]*Module),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithGroup("loader")
	l.fetcher = NewFetcher(cache, l.reload, l.httpClient, l.logger)
	if l.progress != nil {
		l.fetcher.download = func(u *url.URL) func() {
			return l.track("Downloading " + u.String())
		}
	}
	return l
}

// track opens a progress job and returns the function that closes it. The first job of a
// Load is only closed when the Load finishes.
func (l *Loader) track(label string) func() {
	if l.progress == nil {
		return func() {}
	}
	job := l.progress.Add(label)
	if l.graphJob == nil {
		l.graphJob = job
		return func() {}
	}
	return job.Done
}

func (l *Loader) endGraph() {
	if l.graphJob != nil {
		l.graphJob.Done()
		l.graphJob = nil
	}
}

// Cache returns the cache the loader reads from and writes to.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Module returns a module that has already been loaded.
func (l *Loader) Module(name string) (*Module, bool) {
	m, ok := l.modules[name]
	return m, ok
}

// Load fetches and compiles the module at root and everything it imports, depth first.
// Nothing is evaluated. Errors are *hosterr.Error values.
func (l *Loader) Load(ctx context.Context, root *url.URL) (*Module, error) {
	defer l.endGraph()
	visiting := make(map[string]bool)
	m, err := l.visit(ctx, root, visiting)
	if err != nil {
		return nil, classify(err)
	}
	return m, nil
}

func (l *Loader) visit(ctx context.Context, u *url.URL, visiting map[string]bool) (*Module, error) {
	name := u.String()
	if visiting[name] {
		return nil, hosterr.Hostf(hosterr.KindResolution, "import cycle detected at %s", name)
	}
	if m, ok := l.modules[name]; ok {
		return m, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	visiting[name] = true
	defer delete(visiting, name)

	m, err := l.loadOne(ctx, u)
	if err != nil {
		return nil, err
	}

	for _, imp := range m.Imports {
		child, err := l.visit(ctx, imp.URL, visiting)
		if err != nil {
			return nil, err
		}
		if child.MediaType != MediaTypeStarlark {
			return nil, fmt.Errorf("%w: %s loads %s", ErrCrossLanguageImport, name, child.Name())
		}
	}

	l.modules[name] = m
	return m, nil
}

func (l *Loader) loadOne(ctx context.Context, u *url.URL) (*Module, error) {
	mediaType := MediaTypeFromPath(u.Path)
	if mediaType == MediaTypeUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, u)
	}

	src, err := l.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	m := &Module{
		URL:       u,
		Filename:  src.Filename,
		MediaType: mediaType,
		Source:    src.Data,
	}
	if mediaType != MediaTypeStarlark {
		return m, nil
	}

	if err := l.compile(m); err != nil {
		return nil, err
	}

	for i := range m.Program.NumLoads() {
		spec, pos := m.Program.Load(i)
		target, err := Resolve(spec, u)
		if err != nil {
			return nil, fmt.Errorf("%w (at %s)", err, pos)
		}
		m.Imports = append(m.Imports, Import{Specifier: spec, URL: target, Pos: pos})
	}
	return m, nil
}

// compile sets m.Program, reading it from the compiled cache when possible.
func (l *Loader) compile(m *Module) error {
	key := compileKey(m.Name(), m.Source, l.salt)
	compiledPath := l.cache.CompiledPath(key)

	if !l.reload {
		if prog, err := readCompiled(compiledPath); err == nil {
			l.logger.Debug("Using compiled cache", "module", m.Name(), "path", compiledPath)
			m.Program = prog
			m.CompiledFilename = compiledPath
			m.SidecarFilename = l.cache.SidecarPath(key)
			return nil
		}
	}

	defer l.track("Compiling " + m.Name())()

	l.logger.Debug("Compiling module", "module", m.Name())
	_, prog, err := starlark.SourceProgramOptions(l.fileOptions, m.DisplayName(), m.Source, l.predeclared)
	if err != nil {
		return hosterr.FromStarlark(err)
	}
	m.Program = prog

	var buf bytes.Buffer
	if err := prog.Write(&buf); err != nil {
		l.logger.Warn("Failed to encode compiled program", "module", m.Name(), "error", err)
		return nil
	}
	if err := writeFile(compiledPath, buf.Bytes()); err != nil {
		l.logger.Warn("Failed to write compiled cache", "path", compiledPath, "error", err)
		return nil
	}
	m.CompiledFilename = compiledPath

	sidecar := Sidecar{
		Specifier:  m.Name(),
		SourceHash: hashString(string(m.Source)),
		CompiledAt: time.Now().UTC().Truncate(time.Second),
	}
	for i := range prog.NumLoads() {
		spec, _ := prog.Load(i)
		sidecar.Imports = append(sidecar.Imports, spec)
	}
	if err := l.cache.WriteSidecar(key, sidecar); err != nil {
		l.logger.Warn("Failed to write compiled sidecar", "key", key, "error", err)
		return nil
	}
	m.SidecarFilename = l.cache.SidecarPath(key)
	return nil
}

func readCompiled(path string) (*starlark.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return starlark.CompiledProgram(f)
}

// classify maps loader failures onto host error kinds. Script errors from compilation and
// already classified errors pass through.
func classify(err error) error {
	var he *hosterr.Error
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, ErrModuleNotFound):
		return hosterr.Host(hosterr.KindFetch, err)
	case errors.Is(err, ErrInvalidSpecifier),
		errors.Is(err, ErrBareSpecifier),
		errors.Is(err, ErrUnsupportedScheme),
		errors.Is(err, ErrUnsupportedMediaType),
		errors.Is(err, ErrCrossLanguageImport):
		return hosterr.Host(hosterr.KindResolution, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return hosterr.Host(hosterr.KindInternal, err)
	default:
		return hosterr.Host(hosterr.KindFetch, err)
	}
}
