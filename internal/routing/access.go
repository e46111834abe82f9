// Package routing connects the stations of a finished layout. It picks one
// access cell per station and finds shortest grid paths between consecutive
// stations of the process sequence.
package routing

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/PlantLayout/internal/grid"
	"github.com/piwi3910/PlantLayout/internal/model"
)

// DefaultSearchRadius bounds the outward search for a free access cell.
const DefaultSearchRadius = 10

// bfsDirs are the 8-connected steps of the outward search, in visiting order.
var bfsDirs = [8]model.Point{
	{X: 0, Y: 1}, {X: 0, Y: -1}, {X: 1, Y: 0}, {X: -1, Y: 0},
	{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

// Resolver chooses access points for the stations of one layout. Station
// bodies are obstacles; clearance halos are walkable.
type Resolver struct {
	obstacles  *grid.Grid
	stations   map[int]model.StationSpec
	positions  map[int]model.StationPosition
	radius     int
	cache      map[int]model.Point
	unresolved map[int]bool
}

// NewResolver builds the obstacle grid for layout. A malformed layout
// returns an error wrapping model.ErrMalformedLayout.
func NewResolver(layout model.LayoutResult, radius int) (*Resolver, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if radius < 0 {
		radius = 0
	}

	r := &Resolver{
		obstacles:  grid.New(layout.FactoryWidth, layout.FactoryHeight),
		stations:   layout.StationMap(),
		positions:  layout.Positions,
		radius:     radius,
		cache:      make(map[int]model.Point),
		unresolved: make(map[int]bool),
	}
	for _, id := range layout.ProcessSequence {
		s := r.stations[id]
		pos := r.positions[id]
		r.obstacles.Stamp(id, s.Footprint, pos.X, pos.Y)
	}
	return r, nil
}

// Obstacles returns the routing grid. Callers must not modify it.
func (r *Resolver) Obstacles() *grid.Grid {
	return r.obstacles
}

// Resolve returns the single-point access cell of station id: the rounded
// center if free, else the free perimeter cell nearest the center, else the
// nearest free cell within the search radius. If all fail the occupied
// center is returned and the station is marked unresolved. A rounded center
// outside the grid skips the outward search.
func (r *Resolver) Resolve(id int) (model.Point, error) {
	if p, ok := r.cache[id]; ok {
		return p, nil
	}
	pos, ok := r.positions[id]
	if !ok {
		return model.Point{}, fmt.Errorf("%w: no position for station %d", model.ErrMalformedLayout, id)
	}

	center := pos.Center()
	c := model.Point{X: int(math.RoundToEven(center.X)), Y: int(math.RoundToEven(center.Y))}

	cands, err := r.Perimeter(id)
	if err != nil {
		return model.Point{}, err
	}

	var p model.Point
	if r.obstacles.Free(c) {
		p = c
	} else if len(cands) > 0 {
		p = nearestTo(cands, center)
	} else if found, ok := r.search(c); ok {
		p = found
	} else {
		p = c
		r.unresolved[id] = true
	}
	r.cache[id] = p
	return p, nil
}

// ResolveLookahead picks the perimeter cell of station id that minimizes the
// Manhattan distance from prev plus the distance on to the single-point
// access cell of nextID. With no free perimeter cell it falls back to
// Resolve(id).
func (r *Resolver) ResolveLookahead(prev model.Point, id, nextID int) (model.Point, error) {
	cands, err := r.Perimeter(id)
	if err != nil {
		return model.Point{}, err
	}
	if len(cands) == 0 {
		return r.Resolve(id)
	}
	succ, err := r.Resolve(nextID)
	if err != nil {
		return model.Point{}, err
	}

	best := cands[0]
	bestCost := model.Manhattan(prev, best) + model.Manhattan(best, succ)
	for _, c := range cands[1:] {
		cost := model.Manhattan(prev, c) + model.Manhattan(c, succ)
		if cost < bestCost {
			best, bestCost = c, cost
		}
	}
	return best, nil
}

// Perimeter returns the free cells one step outside the footprint of station
// id: the row above, the row below, then the column to the left and the
// column to the right.
func (r *Resolver) Perimeter(id int) ([]model.Point, error) {
	s, ok := r.stations[id]
	if !ok {
		return nil, fmt.Errorf("%w: no definition for station %d", model.ErrMalformedLayout, id)
	}
	pos := r.positions[id]

	var out []model.Point
	add := func(x, y int) {
		p := model.Point{X: x, Y: y}
		if r.obstacles.Free(p) {
			out = append(out, p)
		}
	}
	for x := pos.X; x < pos.X+s.Width; x++ {
		add(x, pos.Y-1)
	}
	for x := pos.X; x < pos.X+s.Width; x++ {
		add(x, pos.Y+s.Height)
	}
	for y := pos.Y; y < pos.Y+s.Height; y++ {
		add(pos.X-1, y)
	}
	for y := pos.Y; y < pos.Y+s.Height; y++ {
		add(pos.X+s.Width, y)
	}
	return out, nil
}

// Unresolved returns the ids of stations whose access point fell back to
// their rounded center, in ascending order.
func (r *Resolver) Unresolved() []int {
	out := make([]int, 0, len(r.unresolved))
	for id := range r.unresolved {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// search walks outward from c breadth-first over 8-connected steps and
// returns the first free cell at most radius+1 steps away. A start outside
// the grid finds nothing.
func (r *Resolver) search(c model.Point) (model.Point, bool) {
	if !r.obstacles.InBounds(c.X, c.Y) {
		return model.Point{}, false
	}
	type node struct {
		p     model.Point
		depth int
	}
	visited := map[model.Point]bool{c: true}
	queue := []node{{p: c}}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if r.obstacles.Free(n.p) {
			return n.p, true
		}
		if n.depth > r.radius {
			continue
		}
		for _, d := range bfsDirs {
			next := model.Point{X: n.p.X + d.X, Y: n.p.Y + d.Y}
			if visited[next] || !r.obstacles.InBounds(next.X, next.Y) {
				continue
			}
			visited[next] = true
			queue = append(queue, node{p: next, depth: n.depth + 1})
		}
	}
	return model.Point{}, false
}

// nearestTo returns the candidate closest to center in Manhattan distance.
// The first candidate wins ties.
func nearestTo(cands []model.Point, center model.Vec) model.Point {
	best := cands[0]
	bestDist := math.Inf(1)
	for _, c := range cands {
		d := math.Abs(float64(c.X)-center.X) + math.Abs(float64(c.Y)-center.Y)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
