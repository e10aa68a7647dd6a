package pipeline

import (
	"fmt"
	"net/url"
)

// ProgramKind selects how the Execute stage runs a Program.
type ProgramKind int

const (
	// ProgramNone means the variant has nothing to execute (repl, version).
	ProgramNone ProgramKind = iota
	// ProgramScript is standalone script text, run with imports disabled.
	ProgramScript
	// ProgramModule is a module graph entry point, run with imports followed.
	ProgramModule
)

// String returns a string representation of the ProgramKind.
func (k ProgramKind) String() string {
	switch k {
	case ProgramNone:
		return "none"
	case ProgramScript:
		return "script"
	case ProgramModule:
		return "module"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Program is the result of the Prepare stage.
type Program struct {
	Kind ProgramKind
	// Name labels script text in backtraces.
	Name string
	// Code is the script text of a ProgramScript.
	Code string
	// URL is the entry point of a ProgramModule.
	URL *url.URL
	// Prefetch loads and compiles a ProgramModule without evaluating it.
	Prefetch bool
}
