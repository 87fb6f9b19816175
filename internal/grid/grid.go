package grid

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

type CellType int

const (
	Empty CellType = iota
	Start
	Base
	Mine
)

// Sentinel stands in for any neighbor that falls outside the grid.
const Sentinel = -1

func (c CellType) String() string {
	switch c {
	case Empty:
		return "empty"
	case Start:
		return "start"
	case Base:
		return "base"
	case Mine:
		return "mine"
	default:
		return fmt.Sprintf("cell(%d)", int(c))
	}
}

var ErrInvalidLayout = errors.New("invalid grid layout")

type Layout struct {
	Width  int
	Height int
	Bases  int
	Mines  int
}

func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: dimensions must be > 0, got %dx%d", ErrInvalidLayout, l.Width, l.Height)
	}
	if l.Bases < 0 || l.Mines < 0 {
		return fmt.Errorf("%w: base and mine counts must be >= 0", ErrInvalidLayout)
	}
	if 1+l.Bases+l.Mines > l.Width*l.Height {
		return fmt.Errorf("%w: %d bases and %d mines do not fit a %dx%d grid", ErrInvalidLayout, l.Bases, l.Mines, l.Width, l.Height)
	}
	return nil
}

type Grid struct {
	layout Layout
	cells  []CellType
	startX int
	startY int
}

func New(layout Layout, rng *rand.Rand) (*Grid, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	g := &Grid{layout: layout}
	g.Reset(rng)
	return g, nil
}

// FromCells builds a grid from an explicit row-major layout. The layout must
// contain exactly one start cell.
func FromCells(width int, cells []CellType) (*Grid, error) {
	if width <= 0 || len(cells) == 0 || len(cells)%width != 0 {
		return nil, fmt.Errorf("%w: %d cells do not form rows of width %d", ErrInvalidLayout, len(cells), width)
	}
	layout := Layout{Width: width, Height: len(cells) / width}
	g := &Grid{cells: append([]CellType(nil), cells...)}
	starts := 0
	for i, c := range g.cells {
		switch c {
		case Start:
			starts++
			g.startX, g.startY = i%width, i/width
		case Base:
			layout.Bases++
		case Mine:
			layout.Mines++
		case Empty:
		default:
			return nil, fmt.Errorf("%w: unknown cell type %d at %d", ErrInvalidLayout, int(c), i)
		}
	}
	if starts != 1 {
		return nil, fmt.Errorf("%w: expected one start cell, got %d", ErrInvalidLayout, starts)
	}
	g.layout = layout
	return g, nil
}

// Reset reshuffles the fixed cell multiset: one start, the configured bases
// and mines, everything else empty.
func (g *Grid) Reset(rng *rand.Rand) {
	size := g.layout.Width * g.layout.Height
	cells := make([]CellType, size)
	cells[0] = Start
	for i := 0; i < g.layout.Bases; i++ {
		cells[1+i] = Base
	}
	for i := 0; i < g.layout.Mines; i++ {
		cells[1+g.layout.Bases+i] = Mine
	}
	rng.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})
	g.cells = cells

	for i, c := range cells {
		if c == Start {
			g.startX = i % g.layout.Width
			g.startY = i / g.layout.Width
			break
		}
	}
}

func (g *Grid) Width() int  { return g.layout.Width }
func (g *Grid) Height() int { return g.layout.Height }
func (g *Grid) Size() int   { return len(g.cells) }

func (g *Grid) Layout() Layout { return g.layout }

func (g *Grid) Start() (int, int) {
	return g.startX, g.startY
}

func (g *Grid) Index(x, y int) int {
	return y*g.layout.Width + x
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.layout.Width && y >= 0 && y < g.layout.Height
}

// At returns the cell at (x, y); ok is false outside the grid.
func (g *Grid) At(x, y int) (CellType, bool) {
	if !g.inBounds(x, y) {
		return Empty, false
	}
	return g.cells[g.Index(x, y)], true
}

// Cells returns a copy of the row-major cell array.
func (g *Grid) Cells() []CellType {
	return append([]CellType(nil), g.cells...)
}

// Counts tallies cells by type.
func (g *Grid) Counts() map[CellType]int {
	counts := make(map[CellType]int, 4)
	for _, c := range g.cells {
		counts[c]++
	}
	return counts
}

// Neighborhood8 returns the cell codes of the 3x3 block around (x, y) minus
// the center: top row left to right, left, right, bottom row left to right.
func (g *Grid) Neighborhood8(x, y int) [8]int {
	var out [8]int
	i := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if c, ok := g.At(x+dx, y+dy); ok {
				out[i] = int(c)
			} else {
				out[i] = Sentinel
			}
			i++
		}
	}
	return out
}

// Move returns the destination of (x, y) shifted by (dx, dy), or the original
// position when the move leaves the grid. Rows are checked only through the
// linear index range; columns are checked explicitly.
func (g *Grid) Move(x, y, dx, dy int) (int, int) {
	nx, ny := x+dx, y+dy
	i := g.Index(nx, ny)
	if i < 0 || i >= len(g.cells) || nx < 0 || nx >= g.layout.Width {
		return x, y
	}
	return nx, ny
}

// MaxShapedFitness caps the score of a non-terminal cell one step below a
// win, so surroundings alone never match entering a base.
const MaxShapedFitness = 0.875

// ShapedFitness scores a position by its surroundings: terminal cells keep
// their terminal score, otherwise nearby mines cost 0.125 and nearby bases
// add 0.25 to a 0.5 baseline, clamped to [0, MaxShapedFitness].
func (g *Grid) ShapedFitness(x, y int) float64 {
	c, ok := g.At(x, y)
	if ok {
		switch c {
		case Base:
			return 1.0
		case Mine:
			return 0.0
		}
	}
	fitness := 0.5
	for _, n := range g.Neighborhood8(x, y) {
		switch CellType(n) {
		case Mine:
			fitness -= 0.125
		case Base:
			fitness += 0.25
		}
	}
	return math.Max(0, math.Min(fitness, MaxShapedFitness))
}
