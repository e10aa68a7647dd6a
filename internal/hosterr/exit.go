package hosterr

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atlanticdynamic/ember/internal/fancy"
)

// exit is swapped out by tests.
var exit = os.Exit

// Render returns the styled form of err written by PrintAndExit.
func Render(err *Error) string {
	if err == nil {
		return ""
	}
	if err.origin == OriginScript {
		text := err.Error()
		head, rest, _ := strings.Cut(text, "\n")
		if rest == "" {
			return fancy.ScriptErrorText(head)
		}
		return fancy.ScriptErrorText(head) + "\n" + rest
	}
	prefix := fmt.Sprintf("error[%s]:", err.kind)
	return fancy.HostErrorText(prefix) + " " + err.message
}

// PrintAndExit writes err to w and terminates the process with status 1. It is the only
// failure exit of the command pipelines.
func PrintAndExit(w io.Writer, err error) {
	he := From(err)
	if he == nil {
		he = Hostf(KindInternal, "exit requested without an error")
	}
	fmt.Fprintln(w, Render(he))
	exit(1)
}
