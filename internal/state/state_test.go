package state

import (
	"bytes"
	"sync"
	"testing"

	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/logging"
	"github.com/atlanticdynamic/ember/internal/progress"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	argv := []string{"ember", "main.star", "a", "b"}
	reporter := progress.New()
	s := New(config.Flags{LogLevel: "info"}, argv, reporter)

	assert.Equal(t, "info", s.Flags().LogLevel)
	assert.Same(t, reporter, s.Progress())
	assert.False(t, s.ID().IsNil())
	assert.Equal(t, uuid.V6, s.ID().Version())
	assert.NotNil(t, s.Sink())
	assert.NotNil(t, s.Logger())

	argv[1] = "changed.star"
	assert.Equal(t, "main.star", s.Argv()[1], "argv must be copied")
	assert.Equal(t, []string{"a", "b"}, s.ScriptArgs())

	got, ok := s.Arg(0)
	assert.True(t, ok)
	assert.Equal(t, "ember", got)
	_, ok = s.Arg(9)
	assert.False(t, ok)
	_, ok = s.Arg(-1)
	assert.False(t, ok)
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	id := uuid.Must(uuid.NewV4())
	s := New(config.Flags{}, []string{"ember"}, nil, WithID(id))
	assert.Equal(t, id, s.ID())
	assert.NotNil(t, s.Progress())
	assert.Nil(t, s.ScriptArgs())
}

func TestMainModule(t *testing.T) {
	t.Parallel()

	t.Run("resolved once", func(t *testing.T) {
		t.Parallel()
		s := New(config.Flags{}, []string{"ember", "https://example.com/main.star"}, nil)

		var wg sync.WaitGroup
		results := make([]string, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, err := s.MainModule()
				assert.NoError(t, err)
				results[i] = u.String()
			}()
		}
		wg.Wait()
		for _, r := range results {
			assert.Equal(t, "https://example.com/main.star", r)
		}

		u, err := s.MainModule()
		require.NoError(t, err)
		u.Path = "/mutated.star"
		again, err := s.MainModule()
		require.NoError(t, err)
		assert.Equal(t, "/main.star", again.Path)
	})

	t.Run("missing argument is a usage error", func(t *testing.T) {
		t.Parallel()
		s := New(config.Flags{}, []string{"ember"}, nil)
		_, err := s.MainModule()
		assert.True(t, hosterr.IsKind(err, hosterr.KindUsage))
	})

	t.Run("bad url is a resolution error", func(t *testing.T) {
		t.Parallel()
		s := New(config.Flags{}, []string{"ember", "https://exa mple.com/x.star"}, nil)
		_, err := s.MainModule()
		assert.True(t, hosterr.IsKind(err, hosterr.KindResolution))
	})
}

func TestLoggersTagged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := logging.NewSink(logging.Options{Level: "info", Format: "json", Writer: &buf})
	id := uuid.Must(uuid.NewV6())
	s := New(config.Flags{}, []string{"ember"}, nil, WithSink(sink), WithID(id))

	s.Logger().Info("from host")
	s.ScriptLogger().Info("from script")

	out := buf.String()
	assert.Contains(t, out, `"origin":"host"`)
	assert.Contains(t, out, `"origin":"script"`)
	assert.Contains(t, out, `"invocation":"`+id.String()+`"`)
}
