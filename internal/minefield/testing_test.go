package minefield

import (
	"context"
	"testing"

	"minefield/internal/grid"
	"minefield/internal/scape"
)

// scriptedController emits fixed outputs and records how it was driven.
type scriptedController struct {
	id          string
	outputs     []float64
	depth       int
	clears      int
	activations int
	input       []float64
}

func (c *scriptedController) ID() string { return c.id }
func (c *scriptedController) Clear()     { c.clears++ }
func (c *scriptedController) SetInput(values []float64) {
	c.input = append([]float64(nil), values...)
}
func (c *scriptedController) Activate()          { c.activations++ }
func (c *scriptedController) Outputs() []float64 { return append([]float64(nil), c.outputs...) }
func (c *scriptedController) MaxDepth() int      { return c.depth }

// channel returns outputs that select direction i.
func channel(i int) []float64 {
	out := make([]float64, len(Directions))
	out[i] = 1
	return out
}

type fakePopulation struct {
	nets     []scape.Controller
	epochs   []int
	results  [][]scape.Result
	champion scape.Controller
	highest  float64
	err      error
}

func (p *fakePopulation) Epoch(ctx context.Context, generation int, evaluator scape.Evaluator) error {
	if p.err != nil {
		return p.err
	}
	p.epochs = append(p.epochs, generation)
	results := make([]scape.Result, len(p.nets))
	p.champion, p.highest = nil, 0
	for i, n := range p.nets {
		res, err := evaluator.Evaluate(ctx, n)
		if err != nil {
			return err
		}
		results[i] = res
		if p.champion == nil || res.Fitness > p.highest {
			p.champion, p.highest = n, res.Fitness
		}
	}
	p.results = append(p.results, results)
	return nil
}

func (p *fakePopulation) Champion() scape.Controller { return p.champion }
func (p *fakePopulation) HighestFitness() float64    { return p.highest }
func (p *fakePopulation) Size() int                  { return len(p.nets) }
func (p *fakePopulation) Network(i int) scape.Controller {
	if i < 0 || i >= len(p.nets) {
		return nil
	}
	return p.nets[i]
}

func staticFactory(p *fakePopulation) PopulationFactory {
	return func() (scape.Population, error) { return p, nil }
}

// crossGrid is a 3x3 grid with the start in the middle, a base to its left
// and a mine to its right.
func crossGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.FromCells(3, []grid.CellType{
		grid.Empty, grid.Empty, grid.Empty,
		grid.Base, grid.Start, grid.Mine,
		grid.Empty, grid.Empty, grid.Empty,
	})
	if err != nil {
		t.Fatalf("cross grid: %v", err)
	}
	return g
}
