// Package config holds the immutable flag snapshot of one invocation and the optional
// config file that supplies defaults for it.
package config

import (
	"slices"
)

// Defaults applied when neither a flag nor the config file sets a value.
const (
	DefaultReplvar = "line"
	DefaultDelim   = "\n"
	DefaultLogFmt  = "text"
)

// Flags is the configuration snapshot produced by argument parsing. It is built once per
// process and never mutated afterwards; pass it by value.
type Flags struct {
	// EngineFlags are forwarded verbatim to the script engine before any context exists.
	EngineFlags []string
	// LogDebug selects the verbose log level.
	LogDebug bool
	// LogLevel is the quieter level used when LogDebug is off.
	LogLevel string
	// LogOutput names the log destination (stderr, stdout, or a file path).
	LogOutput string
	// LogFormat is text or json.
	LogFormat string
	// XevalReplvar is the parameter name of the xeval per-record callback.
	XevalReplvar string
	// XevalDelim separates xeval input records.
	XevalDelim string
	// CacheDir is the root of the fetched-source and compiled-output cache.
	CacheDir string
	// Reload ignores cached sources and compiled output.
	Reload bool
	// ConfigPath is the config file the snapshot was merged with, if any.
	ConfigPath string
}

// Engine returns a copy of the engine flags.
func (f Flags) Engine() []string {
	return slices.Clone(f.EngineFlags)
}

// WithDefaults returns f with every unset field filled from the package defaults.
func (f Flags) WithDefaults() Flags {
	f.EngineFlags = slices.Clone(f.EngineFlags)
	if f.XevalReplvar == "" {
		f.XevalReplvar = DefaultReplvar
	}
	if f.XevalDelim == "" {
		f.XevalDelim = DefaultDelim
	}
	if f.LogFormat == "" {
		f.LogFormat = DefaultLogFmt
	}
	return f
}

// Merge fills the fields of f that were not set on the command line from file. Engine
// flags from the file come first so command-line flags can override them.
func Merge(f Flags, file *File) Flags {
	if file == nil {
		return f
	}
	if f.LogLevel == "" {
		f.LogLevel = file.LogLevel
	}
	if f.LogOutput == "" {
		f.LogOutput = file.LogOutput
	}
	if f.LogFormat == "" {
		f.LogFormat = file.LogFormat
	}
	if f.CacheDir == "" {
		f.CacheDir = file.CacheDir
	}
	if f.XevalReplvar == "" {
		f.XevalReplvar = file.Xeval.Replvar
	}
	if f.XevalDelim == "" {
		f.XevalDelim = file.Xeval.Delim
	}
	if len(file.EngineFlags) > 0 {
		f.EngineFlags = append(slices.Clone(file.EngineFlags), f.EngineFlags...)
	}
	return f
}
