package runtime

import (
	"strconv"
	"strings"
	"sync"

	"go.starlark.net/syntax"
)

// Engine settings are process-wide and fixed before the first Worker is created.
var engine struct {
	mu       sync.Mutex
	opts     syntax.FileOptions
	maxSteps uint64
}

// SetEngineFlags applies command-line style engine flags and returns the ones it did not
// recognize. Flags are applied in order, so later flags win.
//
// Recognized: --allow-set, --allow-while, --allow-recursion, --allow-toplevel-control,
// --allow-global-reassign, their --no- forms, and --max-steps=N.
func SetEngineFlags(flags []string) []string {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	var unrecognized []string
	for _, flag := range flags {
		if !applyEngineFlag(flag) {
			unrecognized = append(unrecognized, flag)
		}
	}
	return unrecognized
}

func applyEngineFlag(flag string) bool {
	name, value, hasValue := strings.Cut(strings.TrimPrefix(flag, "--"), "=")
	if !strings.HasPrefix(flag, "--") {
		return false
	}

	if name == "max-steps" {
		if !hasValue {
			return false
		}
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return false
		}
		engine.maxSteps = n
		return true
	}
	if hasValue {
		return false
	}

	enable := true
	if rest, ok := strings.CutPrefix(name, "no-"); ok {
		enable = false
		name = rest
	}

	switch name {
	case "allow-set":
		engine.opts.Set = enable
	case "allow-while":
		engine.opts.While = enable
	case "allow-recursion":
		engine.opts.Recursion = enable
	case "allow-toplevel-control":
		engine.opts.TopLevelControl = enable
	case "allow-global-reassign":
		engine.opts.GlobalReassign = enable
	default:
		return false
	}
	return true
}

// engineSettings returns a copy of the current settings.
func engineSettings() (syntax.FileOptions, uint64) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.opts, engine.maxSteps
}
