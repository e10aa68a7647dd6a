package main

import (
	"context"

	"github.com/atlanticdynamic/ember/internal/dispatch"
	"github.com/urfave/cli/v3"
)

func (a *app) xevalCmd() *cli.Command {
	return &cli.Command{
		Name:      dispatch.SubcommandXeval.String(),
		Usage:     "Run code once for every record read from stdin",
		ArgsUsage: "<code>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "replvar",
				Aliases: []string{"I"},
				Usage:   "Name of the variable holding the current record",
			},
			&cli.StringFlag{
				Name:    "delim",
				Aliases: []string{"d"},
				Usage:   "Record delimiter",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			flags := a.flags
			if cmd.IsSet("replvar") {
				flags.XevalReplvar = cmd.String("replvar")
			}
			if cmd.IsSet("delim") {
				flags.XevalDelim = cmd.String("delim")
			}
			return a.dispatch(ctx, cmd, flags, dispatch.SubcommandXeval)
		},
	}
}
