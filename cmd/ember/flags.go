package main

import (
	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/urfave/cli/v3"
)

const (
	flagEngineFlags = "engine-flags"
	flagDebug       = "debug"
	flagLogLevel    = "log-level"
	flagLogOutput   = "log-output"
	flagLogFormat   = "log-format"
	flagCacheDir    = "cache-dir"
	flagReload      = "reload"
	flagConfig      = "config"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    flagEngineFlags,
			Usage:   "Flags passed to the script engine, e.g. --engine-flags=--allow-while",
			Sources: cli.EnvVars("EMBER_ENGINE_FLAGS"),
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"D"},
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("EMBER_DEBUG"),
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level (trace, debug, info, warn, error)",
			Sources: cli.EnvVars("EMBER_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    flagLogOutput,
			Usage:   "Log destination: stderr, stdout or a file path",
			Sources: cli.EnvVars("EMBER_LOG_OUTPUT"),
		},
		&cli.StringFlag{
			Name:    flagLogFormat,
			Usage:   "Log format (text or json)",
			Sources: cli.EnvVars("EMBER_LOG_FORMAT"),
		},
		&cli.StringFlag{
			Name:    flagCacheDir,
			Usage:   "Directory for fetched sources and compiled output",
			Sources: cli.EnvVars("EMBER_DIR"),
		},
		&cli.BoolFlag{
			Name:    flagReload,
			Aliases: []string{"r"},
			Usage:   "Ignore cached sources and compiled output",
			Sources: cli.EnvVars("EMBER_RELOAD"),
		},
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Path to a TOML or YAML config file",
			Sources: cli.EnvVars("EMBER_CONFIG"),
		},
	}
}

// flagsFromCommand reads the global flags. Defaults are applied after the config file is
// merged in.
func flagsFromCommand(cmd *cli.Command) config.Flags {
	return config.Flags{
		EngineFlags: cmd.StringSlice(flagEngineFlags),
		LogDebug:    cmd.Bool(flagDebug),
		LogLevel:    cmd.String(flagLogLevel),
		LogOutput:   cmd.String(flagLogOutput),
		LogFormat:   cmd.String(flagLogFormat),
		CacheDir:    cmd.String(flagCacheDir),
		Reload:      cmd.Bool(flagReload),
		ConfigPath:  cmd.String(flagConfig),
	}
}
