// Package xeval feeds delimited input records to a per-record callback installed in the
// realm.
package xeval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atlanticdynamic/ember/internal/hosterr"
	"go.starlark.net/starlark"
)

// WrapperName is the realm global that receives each record.
const WrapperName = "_xeval_wrapper"

// maxRecordSize bounds a single input record.
const maxRecordSize = 64 * 1024 * 1024

// Caller invokes a realm global.
type Caller interface {
	Call(ctx context.Context, fn string, args ...starlark.Value) (starlark.Value, error)
}

// WrapperSource returns the definition of the per-record callback: a function taking the
// record as replvar and running code as its body.
func WrapperSource(replvar, code string) string {
	return fmt.Sprintf("def %s(%s):\n%s\n", WrapperName, replvar, Indent(code))
}

// Indent indents every line of code by four spaces so it can serve as a function body. An
// empty body becomes pass.
func Indent(code string) string {
	if strings.TrimSpace(code) == "" {
		return "    pass"
	}
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "    " + line
		}
	}
	return strings.Join(lines, "\n")
}

// Loop reads records from an input and calls the wrapper once per record.
type Loop struct {
	caller Caller
	in     io.Reader
	delim  string
}

// New creates a loop reading from in, splitting records on delim.
func New(caller Caller, in io.Reader, delim string) *Loop {
	if delim == "" {
		delim = "\n"
	}
	return &Loop{caller: caller, in: in, delim: delim}
}

// Run calls the wrapper for every record until the input ends or a call fails.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	scanner.Split(SplitOn([]byte(l.delim)))

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return hosterr.Host(hosterr.KindInternal, err)
		}
		if _, err := l.caller.Call(ctx, WrapperName, starlark.String(scanner.Text())); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return hosterr.Host(hosterr.KindIO, fmt.Errorf("failed to read input: %w", err))
	}
	return nil
}

// SplitOn returns a bufio.SplitFunc yielding the records separated by delim. A trailing
// delimiter does not produce an empty final record.
func SplitOn(delim []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, delim); i >= 0 {
			return i + len(delim), data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
