package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is the on-disk config file. Every field is optional.
type File struct {
	LogLevel    string       `toml:"log_level"    yaml:"log_level"`
	LogOutput   string       `toml:"log_output"   yaml:"log_output"`
	LogFormat   string       `toml:"log_format"   yaml:"log_format"`
	EngineFlags []string     `toml:"engine_flags" yaml:"engine_flags"`
	CacheDir    string       `toml:"cache_dir"    yaml:"cache_dir"`
	Xeval       XevalSection `toml:"xeval"        yaml:"xeval"`
}

// XevalSection configures the xeval subcommand.
type XevalSection struct {
	Replvar string `toml:"replvar" yaml:"replvar"`
	Delim   string `toml:"delim"   yaml:"delim"`
}

// LoadFile reads a TOML (.toml) or YAML (.yaml, .yml) config file and expands environment
// references in its path-like fields. logger may be nil.
func LoadFile(path string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	file := &File{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = gotoml.Unmarshal(data, file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, file)
	default:
		return nil, fmt.Errorf("%w: %w: %s", ErrFailedToLoadConfig, ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFailedToLoadConfig, path, err)
	}

	if err := file.interpolate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFailedToLoadConfig, path, err)
	}

	logger.Debug("Loaded config file", "path", path, "engine_flags", len(file.EngineFlags))
	return file, nil
}

// interpolate expands environment references in the fields that name filesystem locations.
func (f *File) interpolate() error {
	var errs []error
	for _, field := range []*string{&f.CacheDir, &f.LogOutput} {
		expanded, err := ExpandEnvVars(*field)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*field = expanded
	}
	return errors.Join(errs...)
}
