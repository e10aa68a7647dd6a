package runtime

import (
	_ "embed"
)

//go:embed snapshot/prelude.star
var prelude []byte

// EntryPoint is the function the pipeline calls to bootstrap a realm.
const EntryPoint = "host_main"

// Snapshot is the source executed in a fresh realm before anything else.
type Snapshot struct {
	Name   string
	Source []byte
}

// DefaultSnapshot returns the prelude compiled into the binary.
func DefaultSnapshot() Snapshot {
	return Snapshot{Name: "<prelude>", Source: prelude}
}
