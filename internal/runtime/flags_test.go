package runtime

import (
	"testing"

	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/syntax"
)

func resetEngineFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		engine.opts = syntax.FileOptions{}
		engine.maxSteps = 0
	})
}

func TestSetEngineFlags(t *testing.T) {
	resetEngineFlags(t)

	unrecognized := SetEngineFlags([]string{
		"--allow-set",
		"--allow-while",
		"--allow-toplevel-control",
		"--allow-recursion",
		"--no-allow-recursion",
		"--allow-global-reassign",
		"--max-steps=1000",
		"--max-steps",
		"--max-steps=lots",
		"--allow-set=yes",
		"--turbo",
		"allow-set",
	})
	assert.Equal(t, []string{"--max-steps", "--max-steps=lots", "--allow-set=yes", "--turbo", "allow-set"}, unrecognized)

	opts, maxSteps := engineSettings()
	assert.Equal(t, syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}, opts)
	assert.Equal(t, uint64(1000), maxSteps)
}

func TestEngineFlagsApplyToNewWorkers(t *testing.T) {
	resetEngineFlags(t)

	w, _ := newTestWorker(t, []string{"ember"})
	err := w.Execute(t.Context(), "loop", "x = 0\nwhile x < 3:\n    x += 1")
	require.Error(t, err, "while is off by default")

	require.Empty(t, SetEngineFlags([]string{"--allow-while", "--allow-toplevel-control", "--allow-global-reassign"}))
	w, out := newTestWorker(t, []string{"ember"})
	require.NoError(t, w.Execute(t.Context(), "loop", "x = 0\nwhile x < 3:\n    x += 1\nprint(x)"))
	assert.Equal(t, "3\n", out.String())

	require.Empty(t, SetEngineFlags([]string{"--max-steps=500"}))
	w, _ = newTestWorker(t, []string{"ember"})
	err = w.Execute(t.Context(), "spin", "x = 0\nwhile True:\n    x += 1")
	var he *hosterr.Error
	require.ErrorAs(t, err, &he)
	assert.True(t, he.IsScript())
	assert.Contains(t, he.Message(), "too many steps")
}
