package model

import "math"

// Footprint is the rectangular extent of a station body in grid cells.
type Footprint struct {
	Width  int `json:"width" toml:"width" validate:"gt=0"`
	Height int `json:"height" toml:"height" validate:"gt=0"`
}

// Center returns the real-valued center of the footprint when its top-left
// corner sits at p.
func (f Footprint) Center(p Placement) Vec {
	return Vec{
		X: float64(p.X) + float64(f.Width)/2.0,
		Y: float64(p.Y) + float64(f.Height)/2.0,
	}
}

// StationSpec describes one manufacturing station. It is immutable for a run.
type StationSpec struct {
	ID   int    `json:"id" toml:"id" validate:"gte=0"`
	Name string `json:"name" toml:"name"`
	Footprint
	Clearance int     `json:"clearance" toml:"clearance" validate:"gte=0"`  // body-free buffer cells around the footprint
	CycleTime float64 `json:"cycle_time" toml:"cycle_time" validate:"gte=0"` // processing seconds per unit
}

// NewStation builds a StationSpec.
func NewStation(id int, name string, w, h, clearance int, cycleTime float64) StationSpec {
	return StationSpec{
		ID:        id,
		Name:      name,
		Footprint: Footprint{Width: w, Height: h},
		Clearance: clearance,
		CycleTime: cycleTime,
	}
}

// Placement is the top-left grid coordinate of one station body.
type Placement struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Unplaced marks a gene for which no legal origin existed.
var Unplaced = Placement{X: -1, Y: -1}

// IsPlaced reports whether p is a real grid origin rather than the Unplaced sentinel.
func (p Placement) IsPlaced() bool {
	return p != Unplaced
}

// Point is a single grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the 4-connected grid distance between a and b.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Vec is a real-valued position on the factory floor, in grid units.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Path is an ordered walk of grid cells.
type Path []Point

// Steps returns the number of moves in the path.
func (p Path) Steps() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Contiguous reports whether every consecutive pair of cells differs by one
// unit along exactly one axis.
func (p Path) Contiguous() bool {
	for i := 1; i < len(p); i++ {
		if Manhattan(p[i-1], p[i]) != 1 {
			return false
		}
	}
	return true
}
