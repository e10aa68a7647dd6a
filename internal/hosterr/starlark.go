package hosterr

import (
	"errors"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FromStarlark maps an error returned by the Starlark engine. Evaluation errors and syntax
// or resolution errors in hosted code become script errors; an *Error carried as the cause
// (for example a failed load inside a module) is passed through; anything else is an engine
// failure.
func FromStarlark(err error) *Error {
	if err == nil {
		return nil
	}

	var he *Error
	if errors.As(err, &he) {
		return he
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return Script(evalErr.CallStack.String(), evalErr.Msg)
	}

	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return Script("  at "+syntaxErr.Pos.String(), "SyntaxError: "+syntaxErr.Msg)
	}

	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) && len(resolveErrs) > 0 {
		var stack strings.Builder
		for i, e := range resolveErrs {
			if i > 0 {
				stack.WriteByte('\n')
			}
			stack.WriteString("  at " + e.Pos.String() + ": " + e.Msg)
		}
		return Script(stack.String(), "SyntaxError: "+resolveErrs[0].Msg)
	}

	return Host(KindEngine, err)
}

// FromRisor maps an error returned while compiling or evaluating a Risor unit. The
// evaluator does not expose a structured backtrace, so the script error carries only the
// message.
func FromRisor(err error) *Error {
	if err == nil {
		return nil
	}
	var he *Error
	if errors.As(err, &he) {
		return he
	}
	return Script("", err.Error())
}
