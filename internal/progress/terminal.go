package progress

import (
	"fmt"
	"io"
)

// TerminalHandler returns a Handler that draws a single status line on w. Non-terminal
// updates rewrite the line in place; the terminal update ends it with a newline, but only
// when some work was reported, so no blank line appears when nothing was fetched or compiled.
func TerminalHandler(w io.Writer) Handler {
	return func(u Update) {
		if !u.Done {
			fmt.Fprintf(w, "\r[%d/%d] %s", u.Completed, u.Total, u.Label)
			fmt.Fprint(w, "\x1b[K") // clear to end of line
			return
		}
		if u.Total > 0 {
			fmt.Fprintln(w)
		}
	}
}
