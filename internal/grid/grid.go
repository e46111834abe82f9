// Package grid implements the discretized factory floor: an occupancy grid of
// station bodies with the placement legality check used by both the layout
// search and the router.
package grid

import (
	"fmt"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// Empty marks a cell that holds no station body. Station ids stamped into a
// grid must be non-negative.
const Empty = -1

// Grid is a width x height occupancy grid. Each cell is Empty or the id of the
// station whose body covers it. Only bodies are stored; clearance halos are
// checked at placement time and never persisted.
type Grid struct {
	Width  int
	Height int
	cells  []int
}

// New returns an empty grid.
func New(width, height int) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		cells:  make([]int, width*height),
	}
	g.Reset()
	return g
}

// Reset clears every cell.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = Empty
	}
}

// InBounds reports whether (x, y) is a cell of the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Occupant returns the station id at (x, y), or Empty. Out-of-bounds cells
// report Empty.
func (g *Grid) Occupant(x, y int) int {
	if !g.InBounds(x, y) {
		return Empty
	}
	return g.cells[y*g.Width+x]
}

// Free reports whether p is inside the grid and holds no body.
func (g *Grid) Free(p model.Point) bool {
	return g.InBounds(p.X, p.Y) && g.cells[p.Y*g.Width+p.X] == Empty
}

// CanPlace reports whether a footprint with the given clearance may have its
// top-left corner at (x, y). The body must lie fully inside the grid. The
// clearance rectangle is clipped to the grid and must not contain any body
// cell. Only the candidate's own clearance is consulted.
func (g *Grid) CanPlace(fp model.Footprint, clearance, x, y int) bool {
	if x < 0 || y < 0 || x+fp.Width > g.Width || y+fp.Height > g.Height {
		return false
	}

	x0 := max(0, x-clearance)
	y0 := max(0, y-clearance)
	x1 := min(g.Width, x+fp.Width+clearance)
	y1 := min(g.Height, y+fp.Height+clearance)

	for cy := y0; cy < y1; cy++ {
		row := cy * g.Width
		for cx := x0; cx < x1; cx++ {
			if g.cells[row+cx] != Empty {
				return false
			}
		}
	}
	return true
}

// Stamp marks the footprint cells at (x, y) with id. Legality is the caller's
// responsibility; cells outside the grid are skipped.
func (g *Grid) Stamp(id int, fp model.Footprint, x, y int) {
	for cy := y; cy < y+fp.Height; cy++ {
		for cx := x; cx < x+fp.Width; cx++ {
			if g.InBounds(cx, cy) {
				g.cells[cy*g.Width+cx] = id
			}
		}
	}
}

// LegalOrigins returns every origin at which CanPlace holds, scanning x in
// the outer loop and y in the inner loop.
func (g *Grid) LegalOrigins(fp model.Footprint, clearance int) []model.Placement {
	var out []model.Placement
	for x := 0; x <= g.Width-fp.Width; x++ {
		for y := 0; y <= g.Height-fp.Height; y++ {
			if g.CanPlace(fp, clearance, x, y) {
				out = append(out, model.Placement{X: x, Y: y})
			}
		}
	}
	return out
}

// Cells returns every cell covered by a footprint at (x, y), clipped to the grid.
func (g *Grid) Cells(fp model.Footprint, x, y int) []model.Point {
	out := make([]model.Point, 0, fp.Width*fp.Height)
	for cy := y; cy < y+fp.Height; cy++ {
		for cx := x; cx < x+fp.Width; cx++ {
			if g.InBounds(cx, cy) {
				out = append(out, model.Point{X: cx, Y: cy})
			}
		}
	}
	return out
}

// String renders the grid with one row per line, for debugging.
func (g *Grid) String() string {
	buf := make([]byte, 0, (g.Width*3+1)*g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.cells[y*g.Width+x]
			if c == Empty {
				buf = append(buf, " ."...)
			} else {
				buf = append(buf, fmt.Sprintf("%2d", c%100)...)
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
