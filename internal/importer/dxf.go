package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// DXFOptions controls how drawing units map onto grid cells.
type DXFOptions struct {
	CellSize  float64 // drawing units per grid cell
	Clearance int     // applied to every imported station
	CycleTime float64 // applied to every imported station
}

// DefaultDXFOptions treats one drawing unit as one metre and one cell.
func DefaultDXFOptions() DXFOptions {
	return DXFOptions{CellSize: 1, Clearance: 1, CycleTime: 30}
}

type vec2 struct{ X, Y float64 }

// shape is a closed outline in drawing units.
type shape []vec2

func (s shape) bounds() (lo, hi vec2) {
	lo = vec2{math.Inf(1), math.Inf(1)}
	hi = vec2{math.Inf(-1), math.Inf(-1)}
	for _, p := range s {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

func (s shape) area() float64 {
	n := len(s)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += s[i].X*s[j].Y - s[j].X*s[i].Y
	}
	return math.Abs(a) / 2
}

// edge is a loose LINE or ARC piece waiting to be chained into a shape.
type edge struct{ a, b vec2 }

// ImportDXF imports station footprints from a floor-plan drawing. Each
// closed shape (LWPOLYLINE, CIRCLE, or chain of connected LINEs/ARCs)
// becomes one station whose footprint is its bounding box rounded up to
// whole cells. Stations are numbered by descending area.
func ImportDXF(path string, opts DXFOptions) ImportResult {
	result := ImportResult{}
	if opts.CellSize <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid cell size %.3f", opts.CellSize))
		return result
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var shapes []shape
	var edges []edge
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			s := polylineShape(e)
			if !e.Closed {
				for i := 1; i < len(s); i++ {
					edges = append(edges, edge{s[i-1], s[i]})
				}
				continue
			}
			if len(s) >= 3 {
				shapes = append(shapes, s)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}
		case *entity.Circle:
			shapes = append(shapes, arcPoints(vec2{e.Center[0], e.Center[1]}, e.Radius, 0, 2*math.Pi, 64))
		case *entity.Arc:
			start := e.Angle[0] * math.Pi / 180
			end := e.Angle[1] * math.Pi / 180
			if end <= start {
				end += 2 * math.Pi
			}
			pts := arcPoints(vec2{e.Circle.Center[0], e.Circle.Center[1]}, e.Circle.Radius, start, end, 32)
			for i := 1; i < len(pts); i++ {
				edges = append(edges, edge{pts[i-1], pts[i]})
			}
		case *entity.Line:
			edges = append(edges, edge{vec2{e.Start[0], e.Start[1]}, vec2{e.End[0], e.End[1]}})
		}
	}

	shapes = append(shapes, chainEdges(edges, 0.01)...)
	if len(shapes) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}
	sort.SliceStable(shapes, func(i, j int) bool { return shapes[i].area() > shapes[j].area() })

	for _, s := range shapes {
		lo, hi := s.bounds()
		w, h := hi.X-lo.X, hi.Y-lo.Y
		if w < 0.01 || h < 0.01 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f)", w, h))
			continue
		}
		id := len(result.Stations)
		result.Stations = append(result.Stations, model.NewStation(id,
			fmt.Sprintf("DXF Station %d", id+1),
			cellsFor(w, opts.CellSize), cellsFor(h, opts.CellSize),
			opts.Clearance, opts.CycleTime))
	}
	if len(result.Stations) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Cycle time %.1fs and clearance %d applied to all DXF stations", opts.CycleTime, opts.Clearance))
	}
	return result
}

// cellsFor rounds a length up to whole cells, ignoring float noise.
func cellsFor(length, cell float64) int {
	n := int(math.Ceil(length/cell - 1e-9))
	return max(n, 1)
}

// polylineShape flattens an LWPOLYLINE, interpolating bulged edges. The
// closing edge of an open polyline is not interpolated.
func polylineShape(lw *entity.LwPolyline) shape {
	var out shape
	n := len(lw.Vertices)
	for i := 0; i < n; i++ {
		cur := vec2{lw.Vertices[i][0], lw.Vertices[i][1]}
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) < 1e-9 || (!lw.Closed && i == n-1) {
			out = append(out, cur)
			continue
		}
		next := vec2{lw.Vertices[(i+1)%n][0], lw.Vertices[(i+1)%n][1]}
		pts := bulgePoints(cur, next, bulge, 32)
		out = append(out, pts[:len(pts)-1]...)
	}
	return out
}

// bulgePoints samples the arc between p1 and p2 described by a DXF bulge
// (the tangent of a quarter of the included angle).
func bulgePoints(p1, p2 vec2, bulge float64, steps int) []vec2 {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []vec2{p1, p2}
	}

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2
	nx, ny := -dy/chord, dx/chord
	if bulge > 0 {
		nx, ny = -nx, -ny
	}
	off := radius - sagitta
	c := vec2{(p1.X+p2.X)/2 + nx*off, (p1.Y+p2.Y)/2 + ny*off}

	start := math.Atan2(p1.Y-c.Y, p1.X-c.X)
	end := math.Atan2(p2.Y-c.Y, p2.X-c.X)
	if bulge < 0 && end > start {
		end -= 2 * math.Pi
	} else if bulge > 0 && end < start {
		end += 2 * math.Pi
	}
	return arcPoints(c, radius, start, end, steps)
}

// arcPoints samples steps+1 points from angle start to end. A full turn
// yields steps points without repeating the first.
func arcPoints(c vec2, r, start, end float64, steps int) []vec2 {
	full := math.Abs(end-start-2*math.Pi) < 1e-12
	count := steps + 1
	if full {
		count = steps
	}
	pts := make([]vec2, count)
	for i := range pts {
		a := start + float64(i)/float64(steps)*(end-start)
		pts[i] = vec2{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return pts
}

// chainEdges joins loose edges end to end into closed shapes. tolerance is
// the largest gap between endpoints still treated as connected. Open chains
// are dropped.
func chainEdges(edges []edge, tolerance float64) []shape {
	used := make([]bool, len(edges))
	var out []shape

	near := func(a, b vec2) bool { return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance }

	for start := range edges {
		if used[start] {
			continue
		}
		used[start] = true
		chain := shape{edges[start].a, edges[start].b}

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, e := range edges {
				if used[i] {
					continue
				}
				switch {
				case near(tail, e.a):
					chain = append(chain, e.b)
				case near(tail, e.b):
					chain = append(chain, e.a)
				default:
					continue
				}
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) >= 4 && near(chain[0], chain[len(chain)-1]) {
			out = append(out, chain[:len(chain)-1])
		}
	}
	return out
}
