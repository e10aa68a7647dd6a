package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/atlanticdynamic/ember/internal/config"
	"github.com/atlanticdynamic/ember/internal/dispatch"
	"github.com/atlanticdynamic/ember/internal/hosterr"
	"github.com/atlanticdynamic/ember/internal/logging"
	"github.com/atlanticdynamic/ember/internal/logging/writers"
	"github.com/atlanticdynamic/ember/internal/runtime"
	"github.com/robbyt/go-loglater"
	"github.com/urfave/cli/v3"
)

// app holds what the Before hook builds for the subcommand actions.
type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	dispatchOpts []dispatch.Option

	flags    config.Flags
	sink     *logging.Sink
	closeLog func() error
}

func newApp(stdout, stderr io.Writer, stdin io.Reader, opts ...dispatch.Option) *app {
	return &app{
		stdout:       stdout,
		stderr:       stderr,
		stdin:        stdin,
		dispatchOpts: opts,
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:        "ember",
		Usage:       "Run Starlark and Risor scripts",
		ArgsUsage:   "[module] [args...]",
		HideVersion: true,
		Writer:      a.stdout,
		ErrWriter:   a.stderr,
		Reader:      a.stdin,
		Flags:       globalFlags(),
		Before:      a.before,
		After:       a.after,
		Action:      a.defaultAction,
		Commands: []*cli.Command{
			a.evalCmd(),
			a.fetchCmd(),
			a.infoCmd(),
			a.replCmd(),
			a.runCmd(),
			a.typesCmd(),
			a.versionCmd(),
			a.xevalCmd(),
		},
	}
}

// before builds the flag snapshot and the log sink, then configures the engine. Records
// logged while loading the config file are held back until the sink exists.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	collector := loglater.NewLogCollector(nil)
	early := slog.New(collector)

	flags := flagsFromCommand(cmd)
	if flags.ConfigPath != "" {
		file, err := config.LoadFile(flags.ConfigPath, early)
		if err != nil {
			return ctx, hosterr.Host(hosterr.KindIO, err)
		}
		flags = config.Merge(flags, file)
	}
	a.flags = flags.WithDefaults()

	w, closeLog, err := writers.Open(a.flags.LogOutput)
	if err != nil {
		return ctx, hosterr.Host(hosterr.KindUsage, err)
	}
	a.closeLog = closeLog
	a.sink = logging.NewSink(logging.Options{
		Level:  a.flags.LogLevel,
		Debug:  a.flags.LogDebug,
		Format: a.flags.LogFormat,
		Writer: w,
	})
	a.sink.Replay(ctx, collector)

	logger := a.sink.Logger(logging.OriginHost)
	for _, flag := range runtime.SetEngineFlags(a.flags.Engine()) {
		logger.Warn("Unrecognized engine flag", "flag", flag)
	}
	return ctx, nil
}

func (a *app) after(context.Context, *cli.Command) error {
	if a.closeLog == nil {
		return nil
	}
	if err := a.closeLog(); err != nil {
		return hosterr.Host(hosterr.KindIO, err)
	}
	return nil
}

func (a *app) dispatcher() *dispatch.Dispatcher {
	opts := append([]dispatch.Option{
		dispatch.WithSink(a.sink),
		dispatch.WithStdout(a.stdout),
		dispatch.WithStderr(a.stderr),
		dispatch.WithStdin(a.stdin),
	}, a.dispatchOpts...)
	return dispatch.New(opts...)
}

// dispatch runs sub with the program name followed by the positional arguments.
func (a *app) dispatch(ctx context.Context, cmd *cli.Command, flags config.Flags, sub dispatch.Subcommand) error {
	argv := append([]string{cmd.Root().Name}, cmd.Args().Slice()...)
	return a.dispatcher().Dispatch(ctx, flags, sub, argv)
}

// defaultAction runs the positional module if there is one and starts the REPL otherwise.
func (a *app) defaultAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Present() {
		return a.dispatch(ctx, cmd, a.flags, dispatch.SubcommandRun)
	}
	return a.dispatch(ctx, cmd, a.flags, dispatch.SubcommandRepl)
}
