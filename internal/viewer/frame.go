package viewer

import (
	"minefield/internal/minefield"
)

const (
	ShapeCircle    = "circle"
	ShapeTriangle  = "triangle"
	ShapeRectangle = "rectangle"
)

type Shape struct {
	Kind string `json:"kind"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Fill string `json:"fill,omitempty"`
}

// Frame is an immutable snapshot of one drawn environment state.
type Frame struct {
	Generation int     `json:"generation"`
	Tick       int     `json:"tick"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Shapes     []Shape `json:"shapes"`
	Status     string  `json:"status"`
}

// Recorder is a Sink that collects draw calls into a Frame.
type Recorder struct {
	frame Frame
}

var _ minefield.Sink = (*Recorder)(nil)

func (r *Recorder) Circle(x, y int, fill string) {
	r.frame.Shapes = append(r.frame.Shapes, Shape{Kind: ShapeCircle, X: x, Y: y, Fill: fill})
}

func (r *Recorder) Triangle(x, y int) {
	r.frame.Shapes = append(r.frame.Shapes, Shape{Kind: ShapeTriangle, X: x, Y: y})
}

func (r *Recorder) Rectangle(x, y int) {
	r.frame.Shapes = append(r.frame.Shapes, Shape{Kind: ShapeRectangle, X: x, Y: y})
}

func (r *Recorder) Status(text string) { r.frame.Status = text }

// Capture draws env into a new Frame.
func Capture(env *minefield.Environment) Frame {
	g := env.Grid()
	rec := &Recorder{frame: Frame{
		Generation: env.Generation(),
		Tick:       env.TickCount(),
		Width:      g.Width(),
		Height:     g.Height(),
		Shapes:     []Shape{},
	}}
	env.Draw(rec)
	return rec.frame
}
