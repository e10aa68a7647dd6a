package pipeline

import (
	"fmt"
	"io"

	"github.com/atlanticdynamic/ember/internal/fancy"
)

// PrintInfo describes the module name to w. A failed metadata lookup prints the error as
// a single line instead; it is not treated as a failure.
func PrintInfo(w io.Writer, e Engine, name string) {
	meta, err := e.ModuleMetadata(name)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}

	fmt.Fprintln(w, fancy.Label("local:"), meta.Filename)
	fmt.Fprintln(w, fancy.Label("type:"), meta.MediaType)
	if meta.CompiledFilename != "" {
		fmt.Fprintln(w, fancy.Label("compiled:"), meta.CompiledFilename)
	}
	if meta.MapFilename != "" {
		fmt.Fprintln(w, fancy.Label("map:"), meta.MapFilename)
	}

	deps, ok := e.Deps(meta.ModuleName)
	if !ok {
		fmt.Fprintln(w, fancy.Label("deps:"), fancy.InfoText("cannot retrieve full dependency graph"))
		return
	}
	fmt.Fprintln(w, fancy.Label("deps:"))
	fmt.Fprintln(w, deps.Name)
	for _, d := range deps.Flatten() {
		fmt.Fprintln(w, d)
	}
}
