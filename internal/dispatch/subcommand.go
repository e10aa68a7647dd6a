package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnknownSubcommand is returned by ParseSubcommand for names it does not know.
var ErrUnknownSubcommand = errors.New("unknown subcommand")

// Subcommand selects what an invocation does.
type Subcommand int

const (
	SubcommandEval Subcommand = iota + 1
	SubcommandFetch
	SubcommandInfo
	SubcommandRepl
	SubcommandRun
	SubcommandTypes
	SubcommandVersion
	SubcommandXeval
)

var subcommandNames = map[Subcommand]string{
	SubcommandEval:    "eval",
	SubcommandFetch:   "fetch",
	SubcommandInfo:    "info",
	SubcommandRepl:    "repl",
	SubcommandRun:     "run",
	SubcommandTypes:   "types",
	SubcommandVersion: "version",
	SubcommandXeval:   "xeval",
}

// String returns the command-line name of the subcommand.
func (s Subcommand) String() string {
	if name, ok := subcommandNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Subcommand(%d)", int(s))
}

// ParseSubcommand returns the subcommand named name.
func ParseSubcommand(name string) (Subcommand, error) {
	for sub, n := range subcommandNames {
		if n == name {
			return sub, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSubcommand, name)
}
