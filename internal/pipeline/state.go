package pipeline

import (
	"context"

	"github.com/atlanticdynamic/ember/internal/finitestate"
	"github.com/robbyt/go-supervisor/supervisor"
)

var _ supervisor.Stateable = (*Pipeline)(nil)

// GetState returns the current stage.
func (p *Pipeline) GetState() string {
	return p.fsm.GetState()
}

// GetStateChan returns a channel emitting each stage the pipeline enters.
func (p *Pipeline) GetStateChan(ctx context.Context) <-chan string {
	return p.fsm.GetStateChan(ctx)
}

// IsRunning reports whether the pipeline has started and not yet settled or failed.
func (p *Pipeline) IsRunning() bool {
	stage := p.fsm.GetState()
	return stage != finitestate.StageNew && !finitestate.IsTerminal(stage)
}
