package main

import (
	"context"
	"errors"
	"os"

	"github.com/atlanticdynamic/ember/internal/hosterr"
)

func main() {
	a := newApp(os.Stdout, os.Stderr, os.Stdin)
	if err := a.command().Run(context.Background(), os.Args); err != nil {
		hosterr.PrintAndExit(os.Stderr, cliError(err))
	}
}

// cliError keeps pipeline errors as they are and reports anything raised by argument
// parsing as a usage error.
func cliError(err error) error {
	var he *hosterr.Error
	if errors.As(err, &he) {
		return he
	}
	return hosterr.Host(hosterr.KindUsage, err)
}
