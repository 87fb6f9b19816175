package minefield

import (
	"minefield/internal/grid"
	"minefield/internal/scape"
)

const (
	DefaultFitness = 0.5
	WinFitness     = 1.0
	LossFitness    = 0.0
)

type Direction struct {
	DX, DY int
}

// Directions maps controller output channels to moves: channel i moves the
// agent by Directions[i]. Reordering it changes what every controller means.
var Directions = [9]Direction{
	{0, 0},
	{-1, 0},
	{-1, -1},
	{0, -1},
	{1, -1},
	{1, 0},
	{1, 1},
	{0, 1},
	{-1, 1},
}

// InputWidth is the controller input size: a bias plus the 8 neighbors.
const InputWidth = 1 + 8

type Agent struct {
	ID      int
	X, Y    int
	Active  bool
	Fitness float64
	Won     bool
}

func newAgent(id, x, y int) *Agent {
	a := &Agent{ID: id}
	a.reset(x, y)
	return a
}

func (a *Agent) reset(x, y int) {
	a.X, a.Y = x, y
	a.Fitness = DefaultFitness
	a.Active = true
	a.Won = false
}

// Sense builds the controller input for the agent's current cell.
func (a *Agent) Sense(g *grid.Grid) []float64 {
	in := make([]float64, 0, InputWidth)
	in = append(in, 1.0)
	for _, c := range g.Neighborhood8(a.X, a.Y) {
		in = append(in, float64(c))
	}
	return in
}

// Step runs the controller on the agent's surroundings and applies the move
// on the strongest output channel. It returns the chosen channel, or -1 when
// the agent did not move. Entering a base or mine ends the agent's episode;
// any other cell leaves fitness untouched.
func (a *Agent) Step(g *grid.Grid, c scape.Controller) int {
	if c == nil {
		return -1
	}
	c.Clear()
	c.SetInput(a.Sense(g))
	for i := 0; i <= c.MaxDepth(); i++ {
		c.Activate()
	}

	choice := argmax(c.Outputs())
	if choice < 0 || choice >= len(Directions) {
		return -1
	}

	d := Directions[choice]
	a.X, a.Y = g.Move(a.X, a.Y, d.DX, d.DY)
	cell, _ := g.At(a.X, a.Y)
	switch cell {
	case grid.Base:
		a.Active = false
		a.Fitness = WinFitness
		a.Won = true
	case grid.Mine:
		a.Active = false
		a.Fitness = LossFitness
	}
	return choice
}

// argmax returns the index of the strictly greatest value, keeping the first
// on ties, or -1 for an empty slice.
func argmax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}
