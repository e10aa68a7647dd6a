package modules

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/progress"
	"github.com/atlanticdynamic/ember/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootURL(t *testing.T, path string) string {
	t.Helper()
	u, err := ResolveRoot(path)
	require.NoError(t, err)
	return u.String()
}

func TestLoaderGraph(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{
		"main.star":     "load(\"./a.star\", \"a\")\nload(\"./lib/b.star\", \"b\")\nx = a + b\n",
		"a.star":        "load(\"./lib/b.star\", \"b\")\na = b + 1\n",
		"lib/b.star":    "load(\"./c.star\", \"c\")\nb = c * 2\n",
		"lib/c.star":    "c = 1\n",
		"unrelated.txt": "ignored",
	})
	loader := NewLoader(NewCache(t.TempDir()))

	root, err := ResolveRoot(filepath.Join(dir, "main.star"))
	require.NoError(t, err)
	m, err := loader.Load(t.Context(), root)
	require.NoError(t, err)
	require.NotNil(t, m.Program)
	assert.Equal(t, MediaTypeStarlark, m.MediaType)
	require.Len(t, m.Imports, 2)

	target, ok := m.Resolve("./lib/b.star")
	require.True(t, ok)
	assert.Equal(t, rootURL(t, filepath.Join(dir, "lib", "b.star")), target.String())
	_, ok = m.Resolve("./missing.star")
	assert.False(t, ok)

	deps, ok := loader.Deps(m.Name())
	require.True(t, ok)
	assert.Equal(t, []string{
		rootURL(t, filepath.Join(dir, "a.star")),
		rootURL(t, filepath.Join(dir, "lib", "b.star")),
		rootURL(t, filepath.Join(dir, "lib", "c.star")),
	}, deps.Flatten())

	_, ok = loader.Deps("file:///not/loaded.star")
	assert.False(t, ok)

	meta, err := loader.Metadata(m.Name())
	require.NoError(t, err)
	assert.Equal(t, m.Name(), meta.ModuleName)
	assert.Equal(t, filepath.Join(dir, "main.star"), meta.Filename)
	assert.Equal(t, MediaTypeStarlark, meta.MediaType)
	assert.FileExists(t, meta.CompiledFilename)
	assert.FileExists(t, meta.MapFilename)

	_, err = loader.Metadata("file:///not/loaded.star")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestLoaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		files      map[string]string
		main       string
		wantKind   hosterr.Kind
		wantScript bool
		wantMsg    string
	}{
		{
			name:     "missing main module",
			files:    map[string]string{},
			main:     "main.star",
			wantKind: hosterr.KindFetch,
			wantMsg:  "module not found",
		},
		{
			name:     "missing import",
			files:    map[string]string{"main.star": "load(\"./gone.star\", \"x\")\n"},
			main:     "main.star",
			wantKind: hosterr.KindFetch,
			wantMsg:  "gone.star",
		},
		{
			name:     "bare import",
			files:    map[string]string{"main.star": "load(\"util.star\", \"x\")\n"},
			main:     "main.star",
			wantKind: hosterr.KindResolution,
			wantMsg:  "relative import path",
		},
		{
			name: "import cycle",
			files: map[string]string{
				"main.star": "load(\"./b.star\", \"b\")\na = 1\n",
				"b.star":    "load(\"./main.star\", \"a\")\nb = 1\n",
			},
			main:     "main.star",
			wantKind: hosterr.KindResolution,
			wantMsg:  "import cycle",
		},
		{
			name:     "unknown media type",
			files:    map[string]string{"main.txt": "x = 1\n"},
			main:     "main.txt",
			wantKind: hosterr.KindResolution,
			wantMsg:  "unsupported media type",
		},
		{
			name: "starlark loading risor",
			files: map[string]string{
				"main.star": "load(\"./r.risor\", \"x\")\n",
				"r.risor":   "1 + 1",
			},
			main:     "main.star",
			wantKind: hosterr.KindResolution,
			wantMsg:  "non-Starlark",
		},
		{
			name:       "syntax error",
			files:      map[string]string{"main.star": "def broken(:\n"},
			main:       "main.star",
			wantScript: true,
			wantMsg:    "SyntaxError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := testutil.WriteFiles(t, tt.files)
			loader := NewLoader(NewCache(t.TempDir()))
			root, err := ResolveRoot(filepath.Join(dir, tt.main))
			require.NoError(t, err)

			_, err = loader.Load(t.Context(), root)
			require.Error(t, err)

			var he *hosterr.Error
			require.ErrorAs(t, err, &he)
			if tt.wantScript {
				assert.True(t, he.IsScript())
			} else {
				assert.Equal(t, tt.wantKind, he.Kind())
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoaderCompiledCache(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{"main.star": "x = 1\n"})
	cacheDir := t.TempDir()
	root, err := ResolveRoot(filepath.Join(dir, "main.star"))
	require.NoError(t, err)

	var labels []string
	reporter := progress.New()
	reporter.Subscribe(func(u progress.Update) {
		if !u.Done {
			labels = append(labels, u.Label)
		}
	})

	first, err := NewLoader(NewCache(cacheDir), WithProgress(reporter)).Load(t.Context(), root)
	require.NoError(t, err)
	require.NotEmpty(t, first.CompiledFilename)
	assert.Equal(t, []string{"Compiling " + root.String()}, labels)

	sidecar, err := NewCache(cacheDir).ReadSidecar(
		filepath.Base(first.CompiledFilename[:len(first.CompiledFilename)-len(compiledExt)]))
	require.NoError(t, err)
	assert.Equal(t, root.String(), sidecar.Specifier)

	labels = nil
	second, err := NewLoader(NewCache(cacheDir), WithProgress(reporter)).Load(t.Context(), root)
	require.NoError(t, err)
	assert.Equal(t, first.CompiledFilename, second.CompiledFilename)
	assert.Empty(t, labels, "cached program should not be recompiled")

	labels = nil
	_, err = NewLoader(NewCache(cacheDir), WithProgress(reporter), WithReload(true)).Load(t.Context(), root)
	require.NoError(t, err)
	assert.Len(t, labels, 1, "reload should recompile")

	labels = nil
	_, err = NewLoader(NewCache(cacheDir), WithProgress(reporter), WithCacheSalt("other")).Load(t.Context(), root)
	require.NoError(t, err)
	assert.Len(t, labels, 1, "a different salt should recompile")
}

func TestLoaderRemote(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/pkg/main.star":
			_, _ = w.Write([]byte("load(\"./dep.star\", \"d\")\nx = d\n"))
		case "/pkg/dep.star":
			_, _ = w.Write([]byte("d = 2\n"))
		case "/broken.star":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cacheDir := t.TempDir()
	root, err := ResolveRoot(srv.URL + "/pkg/main.star")
	require.NoError(t, err)

	m, err := NewLoader(NewCache(cacheDir), WithHTTPClient(srv.Client())).Load(t.Context(), root)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, NewCache(cacheDir).SourcePath(root), m.Filename)
	assert.FileExists(t, m.Filename)

	_, err = NewLoader(NewCache(cacheDir), WithHTTPClient(srv.Client())).Load(t.Context(), root)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "cached sources should not be downloaded again")

	_, err = NewLoader(NewCache(cacheDir), WithHTTPClient(srv.Client()), WithReload(true)).Load(t.Context(), root)
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())

	broken, err := ResolveRoot(srv.URL + "/broken.star")
	require.NoError(t, err)
	_, err = NewLoader(NewCache(cacheDir), WithHTTPClient(srv.Client())).Load(t.Context(), broken)
	assert.True(t, hosterr.IsKind(err, hosterr.KindFetch))
	assert.Contains(t, err.Error(), "500")
}

func TestDepsFlattenDedup(t *testing.T) {
	t.Parallel()

	shared := &Deps{Name: "s", Deps: []*Deps{{Name: "leaf"}}}
	tree := &Deps{Name: "root", Deps: []*Deps{
		{Name: "a", Deps: []*Deps{shared}},
		{Name: "b", Deps: []*Deps{shared, {Name: "root"}}},
	}}
	assert.Equal(t, []string{"a", "s", "leaf", "b"}, tree.Flatten())
	assert.Empty(t, (&Deps{Name: "alone"}).Flatten())
}

func TestCachePaths(t *testing.T) {
	t.Parallel()

	c := NewCache("/cache")
	u, err := ResolveRoot("https://example.com:8443/a/b.star?v=1")
	require.NoError(t, err)
	assert.Equal(t, "/cache", c.Root())
	assert.Contains(t, c.SourcePath(u), filepath.Join("/cache", "deps", "https", "example.com_8443", "a", "b.star_"))
	assert.Equal(t, filepath.Join("/cache", "gen", "k.starc"), c.CompiledPath("k"))
	assert.Equal(t, filepath.Join("/cache", "repl_history"), c.HistoryPath())
	assert.NotEmpty(t, NewCache("").Root())
}

func TestLoaderProgressPerGraph(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{
		"main.star": "load(\"./a.star\", \"a\")\nload(\"./b.star\", \"b\")\n",
		"a.star":    "load(\"./b.star\", \"b\")\na = b\n",
		"b.star":    "b = 1\n",
		"bad.star":  "load(\"./b.star\", \"b\")\nload(\"./gone.star\", \"g\")\n",
	})

	var updates []progress.Update
	reporter := progress.New()
	reporter.Subscribe(func(u progress.Update) { updates = append(updates, u) })
	loader := NewLoader(NewCache(t.TempDir()), WithProgress(reporter))

	_, err := loader.Load(t.Context(), mustRoot(t, filepath.Join(dir, "main.star")))
	require.NoError(t, err)

	var done []progress.Update
	for _, u := range updates {
		if u.Done {
			done = append(done, u)
		}
	}
	require.Len(t, done, 1)
	assert.Equal(t, progress.Update{Done: true, Completed: 3, Total: 3}, done[0])
	assert.Equal(t, progress.Update{Done: true, Completed: 3, Total: 3}, updates[len(updates)-1])

	updates = nil
	_, err = loader.Load(t.Context(), mustRoot(t, filepath.Join(dir, "bad.star")))
	require.Error(t, err)
	require.NotEmpty(t, updates)
	assert.True(t, updates[len(updates)-1].Done, "a failed load still ends the status line")
}

func mustRoot(t *testing.T, path string) *url.URL {
	t.Helper()
	u, err := ResolveRoot(path)
	require.NoError(t, err)
	return u
}
