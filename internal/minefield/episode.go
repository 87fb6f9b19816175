package minefield

import (
	"context"
	"fmt"
	"math/rand"

	"minefield/internal/grid"
	"minefield/internal/scape"
)

// EpisodeEvaluator scores one controller at a time on a private grid built
// from a fixed seed, so every candidate faces the same layout. An episode ends
// when the agent reaches a base or mine, or after Timeout-1 steps, matching
// the tick budget of the shared environment.
type EpisodeEvaluator struct {
	Layout  grid.Layout
	Timeout int
	Seed    int64
}

var (
	_ scape.Evaluator     = EpisodeEvaluator{}
	_ scape.TargetCounter = EpisodeEvaluator{}
)

func (e EpisodeEvaluator) Evaluate(ctx context.Context, controller scape.Controller) (scape.Result, error) {
	if controller == nil {
		return scape.Result{}, fmt.Errorf("controller is required")
	}
	if e.Timeout <= 0 {
		return scape.Result{}, fmt.Errorf("%w: timeout must be > 0", ErrInvalidConfig)
	}
	g, err := grid.New(e.Layout, rand.New(rand.NewSource(e.Seed)))
	if err != nil {
		return scape.Result{}, err
	}

	sx, sy := g.Start()
	a := newAgent(0, sx, sy)
	outputs := []float64{}
	for tick := 1; tick < e.Timeout && a.Active; tick++ {
		if err := ctx.Err(); err != nil {
			return scape.Result{}, err
		}
		a.Step(g, controller)
		outputs = controller.Outputs()
	}
	return scape.Result{
		Fitness: a.Fitness,
		Outputs: outputs,
		Error:   1.0 - a.Fitness,
		Won:     a.Won,
	}, nil
}

func (e EpisodeEvaluator) Targets() int { return e.Layout.Bases }
