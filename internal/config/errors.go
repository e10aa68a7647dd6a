package config

import "errors"

var (
	// ErrFailedToLoadConfig wraps every config file loading failure.
	ErrFailedToLoadConfig = errors.New("failed to load config")

	// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config file format")

	// ErrMissingEnvVar is returned when an interpolated variable is unset and has no default.
	ErrMissingEnvVar = errors.New("environment variable not defined")
)
