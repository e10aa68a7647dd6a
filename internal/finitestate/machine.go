// Package finitestate defines the stage machine of an execution pipeline.
package finitestate

import (
	"context"
	"log/slog"

	"github.com/robbyt/go-fsm"
)

// Pipeline stages
const (
	StageNew           = "new"
	StageBootstrapping = "bootstrapping"
	StagePreparing     = "preparing"
	StageExecuting     = "executing"
	StageSettling      = "settling"
	StageSettled       = "settled" // terminal
	StageFailed        = "failed"  // terminal
)

// StageTransitions allows each stage to advance to the next one or fail.
var StageTransitions = map[string][]string{
	StageNew:           {StageBootstrapping, StageFailed},
	StageBootstrapping: {StagePreparing, StageFailed},
	StagePreparing:     {StageExecuting, StageFailed},
	StageExecuting:     {StageSettling, StageFailed},
	StageSettling:      {StageSettled, StageFailed},
	StageSettled:       {},
	StageFailed:        {},
}

// Machine is the subset of the state machine the pipeline relies on.
type Machine interface {
	// Transition moves to state, failing if the move is not allowed from the current stage.
	Transition(state string) error

	// GetState returns the current stage.
	GetState() string

	// GetStateChan returns a channel that emits the stage whenever it changes.
	// The channel is closed when the provided context is canceled.
	GetStateChan(ctx context.Context) <-chan string
}

// New creates a stage machine starting at StageNew.
func New(handler slog.Handler) (Machine, error) {
	return fsm.New(handler, StageNew, StageTransitions)
}

// IsTerminal reports whether no further transition is possible from stage.
func IsTerminal(stage string) bool {
	next, ok := StageTransitions[stage]
	return ok && len(next) == 0
}
