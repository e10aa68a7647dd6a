package dispatch

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/repl"
	"github.com/atlanticdynamic/ember/internal/testutil"
	"github.com/atlanticdynamic/ember/internal/typedecl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linesPrompter struct {
	lines  []string
	closed bool
}

func (p *linesPrompter) Prompt(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *linesPrompter) AppendHistory(string) {}

func (p *linesPrompter) Close() error {
	p.closed = true
	return nil
}

type harness struct {
	dispatcher *Dispatcher
	flags      config.Flags
	stdout     *testutil.SyncBuffer
	stderr     *testutil.SyncBuffer
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		flags:  config.Flags{CacheDir: t.TempDir()}.WithDefaults(),
		stdout: &testutil.SyncBuffer{},
		stderr: &testutil.SyncBuffer{},
	}
	h.dispatcher = New(append([]Option{
		WithStdout(h.stdout),
		WithStderr(h.stderr),
		WithStdin(strings.NewReader("")),
	}, opts...)...)
	return h
}

func TestParseSubcommand(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"eval", "fetch", "info", "repl", "run", "types", "version", "xeval"} {
		sub, err := ParseSubcommand(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.String())
	}

	_, err := ParseSubcommand("bundle")
	require.ErrorIs(t, err, ErrUnknownSubcommand)
	assert.Equal(t, "Subcommand(0)", Subcommand(0).String())
}

func TestTypes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandTypes, []string{"ember"}))
	assert.Equal(t, typedecl.Document()+"\n", h.stdout.String())
	assert.Empty(t, h.stderr.String(), "types never builds an execution context")
}

func TestEval(t *testing.T) {
	t.Parallel()

	t.Run("success returns nil", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		err := h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandEval, []string{"ember", "print(6 * 7)"})
		assert.NoError(t, err)
		assert.Equal(t, "42\n", h.stdout.String())
	})

	t.Run("missing program text", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		err := h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandEval, []string{"ember"})
		assert.True(t, hosterr.IsKind(err, hosterr.KindUsage))
	})

	t.Run("script error", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		err := h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandEval, []string{"ember", "1 // 0"})
		var he *hosterr.Error
		require.ErrorAs(t, err, &he)
		assert.True(t, he.IsScript())
		assert.True(t, strings.HasPrefix(he.Error(), "Uncaught "))
	})
}

func TestRunFetchInfo(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"main.star": "load(\"./lib.star\", \"v\")\nprint(v)\n",
		"lib.star":  "v = \"lib\"\n",
	}

	t.Run("run", func(t *testing.T) {
		t.Parallel()
		dir := testutil.WriteFiles(t, files)
		h := newHarness(t)
		require.NoError(t, h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandRun,
			[]string{"ember", filepath.Join(dir, "main.star"), "extra"}))
		assert.Equal(t, "lib\n", h.stdout.String())
	})

	t.Run("fetch reports progress", func(t *testing.T) {
		t.Parallel()
		dir := testutil.WriteFiles(t, files)
		h := newHarness(t)
		require.NoError(t, h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandFetch,
			[]string{"ember", filepath.Join(dir, "main.star")}))
		assert.Empty(t, h.stdout.String())
		assert.Contains(t, h.stderr.String(), "Compiling")
	})

	t.Run("info", func(t *testing.T) {
		t.Parallel()
		dir := testutil.WriteFiles(t, files)
		h := newHarness(t)
		require.NoError(t, h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandInfo,
			[]string{"ember", filepath.Join(dir, "main.star")}))
		out := h.stdout.String()
		assert.Contains(t, out, "local:")
		assert.Contains(t, out, "deps:")
		assert.Contains(t, out, "lib.star")
	})

	t.Run("run missing module", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		err := h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandRun,
			[]string{"ember", filepath.Join(t.TempDir(), "nope.star")})
		assert.True(t, hosterr.IsKind(err, hosterr.KindFetch))
	})
}

func TestXeval(t *testing.T) {
	t.Parallel()

	h := newHarness(t, WithStdin(strings.NewReader("one,two,three")))
	h.flags.XevalDelim = ","
	h.flags.XevalReplvar = "rec"
	require.NoError(t, h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandXeval,
		[]string{"ember", "print(len(rec))"}))
	assert.Equal(t, []string{"3", "3", "5"}, h.stdout.Lines())
}

func TestRepl(t *testing.T) {
	t.Parallel()

	prompter := &linesPrompter{lines: []string{"x = 20", "x + 22", "fail('oops')"}}
	h := newHarness(t, WithPrompter(func() repl.Prompter { return prompter }))
	require.NoError(t, h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandRepl, []string{"ember"}))
	assert.Equal(t, "42\n\n", h.stdout.String())
	assert.Contains(t, h.stderr.String(), "oops")
	assert.True(t, prompter.closed)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandVersion, []string{"ember"}))
	assert.True(t, strings.HasPrefix(h.stdout.String(), "ember: "))
}

func TestUnknownSubcommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.dispatcher.Dispatch(t.Context(), h.flags, Subcommand(99), []string{"ember"})
	assert.True(t, hosterr.IsKind(err, hosterr.KindUsage))
	assert.ErrorIs(t, err, ErrUnknownSubcommand)
}

func TestRunUnresolvedImport(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{
		"main.star": "print(\"side effect\")\nload(\"./gone.star\", \"x\")\n",
	})
	h := newHarness(t)
	err := h.dispatcher.Dispatch(t.Context(), h.flags, SubcommandRun,
		[]string{"ember", filepath.Join(dir, "main.star")})

	var he *hosterr.Error
	require.ErrorAs(t, err, &he)
	assert.Equal(t, hosterr.OriginHost, he.Origin())
	assert.Contains(t, []hosterr.Kind{hosterr.KindFetch, hosterr.KindResolution}, he.Kind())
	assert.Empty(t, h.stdout.String())
}
