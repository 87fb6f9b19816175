package minefield

import (
	"fmt"

	"minefield/internal/grid"
)

// Sink receives draw primitives in tile coordinates. Implementations decide
// how, or whether, to render them.
type Sink interface {
	Circle(x, y int, fill string)
	Triangle(x, y int)
	Rectangle(x, y int)
	Status(text string)
}

const (
	StartFill = "black"
	AgentFill = "yellow"
)

// Draw emits the grid (start as a circle, bases as triangles, mines as
// rectangles), then every active agent as a filled circle, then a status line.
func (e *Environment) Draw(sink Sink) {
	w := e.grid.Width()
	for i, c := range e.grid.Cells() {
		x, y := i%w, i/w
		switch c {
		case grid.Start:
			sink.Circle(x, y, StartFill)
		case grid.Base:
			sink.Triangle(x, y)
		case grid.Mine:
			sink.Rectangle(x, y)
		}
	}
	for _, a := range e.agents {
		if a.Active {
			sink.Circle(a.X, a.Y, AgentFill)
		}
	}
	sink.Status(e.StatusLine())
}

func (e *Environment) StatusLine() string {
	return fmt.Sprintf("generation %d  tick %d/%d  active %d/%d",
		e.generation, e.tick, e.cfg.Timeout, e.ActiveCount(), len(e.agents))
}
