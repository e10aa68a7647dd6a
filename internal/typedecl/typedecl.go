// Package typedecl holds the type-declaration document describing the realm globals.
package typedecl

import (
	_ "embed"
	"strings"
)

//go:embed ember_runtime.pyi
var document string

// Document returns the declaration document without its trailing newline.
func Document() string {
	return strings.TrimRight(document, "\n")
}
