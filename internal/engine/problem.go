package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/piwi3910/PlantLayout/internal/grid"
	"github.com/piwi3910/PlantLayout/internal/model"
)

var (
	// ErrInvalidProblem is returned when the floor, station catalogue or
	// process sequence cannot describe a layout problem.
	ErrInvalidProblem = errors.New("invalid layout problem")
	// ErrInvalidConfig is returned for out-of-range search parameters.
	ErrInvalidConfig = errors.New("invalid optimizer configuration")
	// ErrNoValidLayout is returned when a layout artifact is requested for an
	// individual that does not evaluate as valid.
	ErrNoValidLayout = errors.New("no valid layout")
)

// Problem is one immutable layout problem: a floor and the stations of a
// linear production line, held in process-sequence order.
type Problem struct {
	Width    int
	Height   int
	Stations []model.StationSpec // Stations[i] is the station at Sequence[i]
	Sequence []int

	cycleTimes []float64
	grids      sync.Pool
}

// NewProblem validates its input and orders the stations by sequence.
func NewProblem(width, height int, stations []model.StationSpec, sequence []int) (*Problem, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: floor %dx%d", ErrInvalidProblem, width, height)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: no stations", ErrInvalidProblem)
	}

	byID := make(map[int]model.StationSpec, len(stations))
	for _, s := range stations {
		if s.ID < 0 {
			return nil, fmt.Errorf("%w: negative station id %d", ErrInvalidProblem, s.ID)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate station id %d", ErrInvalidProblem, s.ID)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("%w: station %d has footprint %dx%d", ErrInvalidProblem, s.ID, s.Width, s.Height)
		}
		if s.Clearance < 0 {
			return nil, fmt.Errorf("%w: station %d has negative clearance", ErrInvalidProblem, s.ID)
		}
		if s.CycleTime < 0 {
			return nil, fmt.Errorf("%w: station %d has negative cycle time", ErrInvalidProblem, s.ID)
		}
		byID[s.ID] = s
	}

	if len(sequence) != len(stations) {
		return nil, fmt.Errorf("%w: sequence has %d entries for %d stations", ErrInvalidProblem, len(sequence), len(stations))
	}
	ordered := make([]model.StationSpec, len(sequence))
	cycles := make([]float64, len(sequence))
	seen := make(map[int]bool, len(sequence))
	for i, id := range sequence {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: sequence references unknown station %d", ErrInvalidProblem, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: station %d appears twice in the sequence", ErrInvalidProblem, id)
		}
		seen[id] = true
		ordered[i] = s
		cycles[i] = s.CycleTime
	}

	p := &Problem{
		Width:      width,
		Height:     height,
		Stations:   ordered,
		Sequence:   append([]int(nil), sequence...),
		cycleTimes: cycles,
	}
	p.grids.New = func() any { return grid.New(width, height) }
	return p, nil
}

// Len returns the number of stations, which is also the chromosome length.
func (p *Problem) Len() int {
	return len(p.Stations)
}

// acquireGrid returns a cleared grid from the pool.
func (p *Problem) acquireGrid() *grid.Grid {
	g := p.grids.Get().(*grid.Grid)
	g.Reset()
	return g
}

func (p *Problem) releaseGrid(g *grid.Grid) {
	p.grids.Put(g)
}

// Layout converts a valid individual into the artifact consumed by the router.
func (p *Problem) Layout(ind Individual, fc FitnessConfig, runID string) (model.LayoutResult, error) {
	eval := p.Evaluate(ind, fc)
	if !eval.Valid {
		return model.LayoutResult{}, ErrNoValidLayout
	}

	positions := make(map[int]model.StationPosition, len(ind))
	for i, s := range p.Stations {
		c := s.Center(ind[i])
		positions[s.ID] = model.StationPosition{X: ind[i].X, Y: ind[i].Y, CenterX: c.X, CenterY: c.Y}
	}

	return model.LayoutResult{
		RunID:           runID,
		FactoryWidth:    p.Width,
		FactoryHeight:   p.Height,
		Positions:       positions,
		ProcessSequence: append([]int(nil), p.Sequence...),
		Stations:        append([]model.StationSpec(nil), p.Stations...),
		Fitness:         eval.Fitness,
		TotalDistance:   eval.TotalDistance,
		Throughput:      eval.Throughput,
	}, nil
}
