package viewer

import (
	"strings"

	"minefield/internal/minefield"
)

const (
	glyphEmpty = '.'
	glyphStart = 'S'
	glyphAgent = '@'
	glyphBase  = '^'
	glyphMine  = '#'
)

// Canvas renders draw calls onto a character grid, one rune per tile.
type Canvas struct {
	width  int
	cells  []rune
	status string
}

var _ minefield.Sink = (*Canvas)(nil)

func NewCanvas(width, height int) *Canvas {
	c := &Canvas{width: width, cells: make([]rune, width*height)}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = glyphEmpty
	}
	c.status = ""
}

func (c *Canvas) set(x, y int, r rune) {
	if x < 0 || x >= c.width || y < 0 {
		return
	}
	if i := y*c.width + x; i < len(c.cells) {
		c.cells[i] = r
	}
}

func (c *Canvas) Circle(x, y int, fill string) {
	if fill == minefield.AgentFill {
		c.set(x, y, glyphAgent)
		return
	}
	c.set(x, y, glyphStart)
}

func (c *Canvas) Triangle(x, y int)  { c.set(x, y, glyphBase) }
func (c *Canvas) Rectangle(x, y int) { c.set(x, y, glyphMine) }
func (c *Canvas) Status(text string) { c.status = text }

func (c *Canvas) String() string {
	var b strings.Builder
	for i := 0; i < len(c.cells); i += c.width {
		b.WriteString(string(c.cells[i : i+c.width]))
		b.WriteByte('\n')
	}
	b.WriteString(c.status)
	return b.String()
}

// Render draws env onto a fresh canvas and returns the text.
func Render(env *minefield.Environment) string {
	g := env.Grid()
	c := NewCanvas(g.Width(), g.Height())
	env.Draw(c)
	return c.String()
}

// RenderFrame replays a recorded frame onto a canvas.
func RenderFrame(f Frame) string {
	c := NewCanvas(f.Width, f.Height)
	for _, s := range f.Shapes {
		switch s.Kind {
		case ShapeCircle:
			c.Circle(s.X, s.Y, s.Fill)
		case ShapeTriangle:
			c.Triangle(s.X, s.Y)
		case ShapeRectangle:
			c.Rectangle(s.X, s.Y)
		}
	}
	c.Status(f.Status)
	return c.String()
}
