package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileTOML(t *testing.T) {
	t.Setenv("EMBER_TEST_CACHE", "/srv/cache")

	file, err := LoadFile(filepath.Join("testdata", "ember.toml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "info", file.LogLevel)
	assert.Equal(t, "/tmp/ember/ember.log", file.LogOutput)
	assert.Equal(t, "/srv/cache", file.CacheDir)
	assert.Equal(t, []string{"--no-recursion"}, file.EngineFlags)
	assert.Equal(t, "rec", file.Xeval.Replvar)
	assert.Equal(t, ",", file.Xeval.Delim)
}

func TestLoadFileYAML(t *testing.T) {
	t.Parallel()

	file, err := LoadFile(filepath.Join("testdata", "ember.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "error", file.LogLevel)
	assert.Equal(t, "json", file.LogFormat)
	assert.Equal(t, []string{"--max-steps=1000"}, file.EngineFlags)
	assert.Equal(t, "item", file.Xeval.Replvar)
	assert.Empty(t, file.Xeval.Delim)
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(dir, "absent.toml"), ErrFailedToLoadConfig},
		{"unknown extension", write("ember.ini", "x=1"), ErrUnsupportedFormat},
		{"bad toml", write("bad.toml", "log_level = "), ErrFailedToLoadConfig},
		{"missing env var", write("env.toml", `cache_dir = "${EMBER_SURELY_UNSET_VAR}"`), ErrMissingEnvVar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.path, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EMBER_TEST_HOME", "/home/ember")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"plain", "plain", false},
		{"${EMBER_TEST_HOME}/cache", "/home/ember/cache", false},
		{"${EMBER_TEST_NOPE:fallback}", "fallback", false},
		{"${EMBER_TEST_NOPE:}", "", false},
		{"${EMBER_TEST_NOPE}", "${EMBER_TEST_NOPE}", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandEnvVars(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMissingEnvVar)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeAndDefaults(t *testing.T) {
	t.Parallel()

	file := &File{
		LogLevel:    "info",
		CacheDir:    "/from/file",
		EngineFlags: []string{"--no-while"},
		Xeval:       XevalSection{Replvar: "rec"},
	}
	cli := Flags{
		LogLevel:    "error",
		EngineFlags: []string{"--allow-while"},
	}

	merged := Merge(cli, file).WithDefaults()
	assert.Equal(t, "error", merged.LogLevel)
	assert.Equal(t, "/from/file", merged.CacheDir)
	assert.Equal(t, []string{"--no-while", "--allow-while"}, merged.EngineFlags)
	assert.Equal(t, "rec", merged.XevalReplvar)
	assert.Equal(t, DefaultDelim, merged.XevalDelim)
	assert.Equal(t, DefaultLogFmt, merged.LogFormat)

	assert.Equal(t, cli, Merge(cli, nil))

	engine := merged.Engine()
	engine[0] = "mutated"
	assert.Equal(t, "--no-while", merged.EngineFlags[0])
}
