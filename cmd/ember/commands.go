package main

import (
	"context"

	"github.com/atlanticdynamic/ember/internal/dispatch"
	"github.com/urfave/cli/v3"
)

// simpleCmd is a subcommand that only forwards its positional arguments.
func (a *app) simpleCmd(sub dispatch.Subcommand, usage, argsUsage string) *cli.Command {
	return &cli.Command{
		Name:      sub.String(),
		Usage:     usage,
		ArgsUsage: argsUsage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.dispatch(ctx, cmd, a.flags, sub)
		},
	}
}

func (a *app) evalCmd() *cli.Command {
	return a.simpleCmd(dispatch.SubcommandEval, "Evaluate script text", "<code>")
}

func (a *app) fetchCmd() *cli.Command {
	return a.simpleCmd(dispatch.SubcommandFetch, "Fetch and compile a module and its imports", "<module>")
}

func (a *app) infoCmd() *cli.Command {
	return a.simpleCmd(dispatch.SubcommandInfo, "Show where a module is cached and what it imports", "<module>")
}

func (a *app) replCmd() *cli.Command {
	return a.simpleCmd(dispatch.SubcommandRepl, "Start an interactive session", "")
}

func (a *app) runCmd() *cli.Command {
	return a.simpleCmd(dispatch.SubcommandRun, "Run a module", "<module> [args...]")
}

func (a *app) typesCmd() *cli.Command {
	return a.simpleCmd(dispatch.SubcommandTypes, "Print the declarations of the runtime globals", "")
}

func (a *app) versionCmd() *cli.Command {
	return a.simpleCmd(dispatch.SubcommandVersion, "Print the host and engine versions", "")
}
