// Package hosterr defines the single error type that leaves an execution pipeline. Every
// failure is either a host error (raised by ember itself or one of its collaborators) or a
// script error (an exception propagated out of hosted code), and both are rendered and turned
// into an exit status the same way.
package hosterr

import (
	"errors"
	"fmt"
	"strings"
)

// Origin tells which side of the host boundary a failure came from.
type Origin int

const (
	OriginHost Origin = iota
	OriginScript
)

// String returns a string representation of the Origin.
func (o Origin) String() string {
	switch o {
	case OriginHost:
		return "host"
	case OriginScript:
		return "script"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// Kind classifies host errors.
type Kind string

const (
	KindBootstrap  Kind = "bootstrap"
	KindUsage      Kind = "usage"
	KindResolution Kind = "resolution"
	KindFetch      Kind = "fetch"
	KindEngine     Kind = "engine"
	KindIO         Kind = "io"
	KindInternal   Kind = "internal"
)

// Error is the unified pipeline error. Construct it with Host, Hostf, Script, or one of the
// From* mapping functions.
type Error struct {
	origin  Origin
	kind    Kind
	message string
	stack   string
	cause   error
}

// Host creates a host error of the given kind wrapping err.
func Host(kind Kind, err error) *Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Error{
		origin:  OriginHost,
		kind:    kind,
		message: err.Error(),
		cause:   err,
	}
}

// Hostf creates a host error from a format string. A %w verb keeps the wrapped error
// reachable through errors.Is and errors.As.
func Hostf(kind Kind, format string, args ...any) *Error {
	return Host(kind, fmt.Errorf(format, args...))
}

// Script creates a script error from a hosted-code exception.
func Script(stack, message string) *Error {
	return &Error{
		origin:  OriginScript,
		message: message,
		stack:   strings.TrimRight(stack, "\n"),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.origin == OriginScript {
		if e.stack == "" {
			return "Uncaught " + e.message
		}
		return "Uncaught " + e.message + "\n" + e.stack
	}
	return fmt.Sprintf("error[%s]: %s", e.kind, e.message)
}

// Unwrap returns the underlying error, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Origin reports whether the failure came from the host or from hosted code.
func (e *Error) Origin() Origin {
	return e.origin
}

// Kind returns the host error kind. It is empty for script errors.
func (e *Error) Kind() Kind {
	return e.kind
}

// Message returns the error message without the rendering prefix.
func (e *Error) Message() string {
	return e.message
}

// Stack returns the hosted-code backtrace of a script error.
func (e *Error) Stack() string {
	return e.stack
}

// IsScript is a shorthand for Origin() == OriginScript.
func (e *Error) IsScript() bool {
	return e.origin == OriginScript
}

// From converts any error into an *Error. Errors that already are (or wrap) an *Error are
// returned as is; anything else becomes an internal host error. A nil error yields nil.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var he *Error
	if errors.As(err, &he) {
		return he
	}
	return Host(KindInternal, err)
}

// IsKind reports whether err is a host error of the given kind.
func IsKind(err error, kind Kind) bool {
	var he *Error
	if !errors.As(err, &he) {
		return false
	}
	return he.origin == OriginHost && he.kind == kind
}
