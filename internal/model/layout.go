package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedLayout is returned when a persisted layout is missing required
// fields or is structurally inconsistent.
var ErrMalformedLayout = errors.New("malformed layout")

// StationPosition is the placed origin and real-valued center of one station.
type StationPosition struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

// UnmarshalJSON requires all four keys. Missing ones are reported rather
// than read as zero.
func (sp *StationPosition) UnmarshalJSON(data []byte) error {
	var raw struct {
		X       *int     `json:"x"`
		Y       *int     `json:"y"`
		CenterX *float64 `json:"center_x"`
		CenterY *float64 `json:"center_y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var missing []string
	if raw.X == nil {
		missing = append(missing, "x")
	}
	if raw.Y == nil {
		missing = append(missing, "y")
	}
	if raw.CenterX == nil {
		missing = append(missing, "center_x")
	}
	if raw.CenterY == nil {
		missing = append(missing, "center_y")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: station position missing %s", ErrMalformedLayout, strings.Join(missing, ", "))
	}
	*sp = StationPosition{X: *raw.X, Y: *raw.Y, CenterX: *raw.CenterX, CenterY: *raw.CenterY}
	return nil
}

// Origin returns the top-left cell of the station body.
func (sp StationPosition) Origin() Placement {
	return Placement{X: sp.X, Y: sp.Y}
}

// Center returns the real-valued center.
func (sp StationPosition) Center() Vec {
	return Vec{X: sp.CenterX, Y: sp.CenterY}
}

// LayoutResult is the finalized layout handed from the optimizer to the router.
// It is the only contract between the two halves of the system.
type LayoutResult struct {
	RunID           string                  `json:"run_id,omitempty"`
	FactoryWidth    int                     `json:"factory_width"`
	FactoryHeight   int                     `json:"factory_height"`
	Positions       map[int]StationPosition `json:"station_positions"`
	ProcessSequence []int                   `json:"process_sequence"`
	Stations        []StationSpec           `json:"stations"`

	// Scores of the layout at the time it was produced. Informational only.
	Fitness       float64 `json:"fitness,omitempty"`
	TotalDistance float64 `json:"total_distance,omitempty"`
	Throughput    float64 `json:"throughput,omitempty"`
}

// StationMap indexes the station catalogue by id.
func (lr LayoutResult) StationMap() map[int]StationSpec {
	m := make(map[int]StationSpec, len(lr.Stations))
	for _, s := range lr.Stations {
		m[s.ID] = s
	}
	return m
}

// centerTolerance bounds the drift allowed between a stored center and the
// one derived from origin and footprint.
const centerTolerance = 1e-6

// Validate checks that every station in the process sequence has a definition
// and an in-bounds position whose center matches its footprint. All failures
// wrap ErrMalformedLayout.
func (lr LayoutResult) Validate() error {
	if lr.FactoryWidth <= 0 || lr.FactoryHeight <= 0 {
		return fmt.Errorf("%w: factory size %dx%d", ErrMalformedLayout, lr.FactoryWidth, lr.FactoryHeight)
	}
	if len(lr.ProcessSequence) == 0 {
		return fmt.Errorf("%w: empty process sequence", ErrMalformedLayout)
	}
	if lr.Positions == nil {
		return fmt.Errorf("%w: missing station positions", ErrMalformedLayout)
	}

	defs := make(map[int]StationSpec, len(lr.Stations))
	for _, s := range lr.Stations {
		if s.ID < 0 {
			return fmt.Errorf("%w: negative station id %d", ErrMalformedLayout, s.ID)
		}
		if _, dup := defs[s.ID]; dup {
			return fmt.Errorf("%w: duplicate station id %d", ErrMalformedLayout, s.ID)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: station %d has footprint %dx%d", ErrMalformedLayout, s.ID, s.Width, s.Height)
		}
		defs[s.ID] = s
	}

	seen := make(map[int]bool, len(lr.ProcessSequence))
	for _, id := range lr.ProcessSequence {
		if seen[id] {
			return fmt.Errorf("%w: station %d appears twice in the sequence", ErrMalformedLayout, id)
		}
		seen[id] = true

		def, ok := defs[id]
		if !ok {
			return fmt.Errorf("%w: no definition for station %d", ErrMalformedLayout, id)
		}
		pos, ok := lr.Positions[id]
		if !ok {
			return fmt.Errorf("%w: no position for station %d", ErrMalformedLayout, id)
		}
		if pos.X < 0 || pos.Y < 0 || pos.X+def.Width > lr.FactoryWidth || pos.Y+def.Height > lr.FactoryHeight {
			return fmt.Errorf("%w: station %d at (%d, %d) leaves the %dx%d floor",
				ErrMalformedLayout, id, pos.X, pos.Y, lr.FactoryWidth, lr.FactoryHeight)
		}
		want := def.Center(pos.Origin())
		if math.Abs(pos.CenterX-want.X) > centerTolerance || math.Abs(pos.CenterY-want.Y) > centerTolerance {
			return fmt.Errorf("%w: station %d center (%g, %g), expected (%g, %g)",
				ErrMalformedLayout, id, pos.CenterX, pos.CenterY, want.X, want.Y)
		}
	}
	return nil
}

// Render returns a text drawing of the floor, one row per line, with each
// occupied cell showing the last two digits of its station id.
func (lr LayoutResult) Render() string {
	cells := make([][]int, lr.FactoryHeight)
	for y := range cells {
		cells[y] = make([]int, lr.FactoryWidth)
		for x := range cells[y] {
			cells[y][x] = -1
		}
	}
	defs := lr.StationMap()
	for id, pos := range lr.Positions {
		def, ok := defs[id]
		if !ok {
			continue
		}
		for x := pos.X; x < pos.X+def.Width; x++ {
			for y := pos.Y; y < pos.Y+def.Height; y++ {
				if x >= 0 && x < lr.FactoryWidth && y >= 0 && y < lr.FactoryHeight {
					cells[y][x] = id
				}
			}
		}
	}

	var b strings.Builder
	for y, row := range cells {
		fmt.Fprintf(&b, "Y%-2d|", y)
		for _, c := range row {
			if c < 0 {
				b.WriteString(" __")
			} else {
				fmt.Fprintf(&b, " %2d", c%100)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
