package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestLayout() LayoutResult {
	return LayoutResult{
		RunID:         "test-run",
		FactoryWidth:  10,
		FactoryHeight: 8,
		Positions: map[int]StationPosition{
			1: {X: 0, Y: 0, CenterX: 1, CenterY: 1},
			2: {X: 5, Y: 4, CenterX: 6.5, CenterY: 5},
		},
		ProcessSequence: []int{1, 2},
		Stations: []StationSpec{
			NewStation(1, "Cut", 2, 2, 1, 20),
			NewStation(2, "Weld", 3, 2, 0, 30),
		},
	}
}

func TestFootprintCenter(t *testing.T) {
	fp := Footprint{Width: 3, Height: 2}
	c := fp.Center(Placement{X: 4, Y: 1})
	assert.InDelta(t, 5.5, c.X, 1e-9)
	assert.InDelta(t, 2.0, c.Y, 1e-9)
}

func TestDistExact(t *testing.T) {
	assert.Equal(t, 3.0, Dist(Vec{X: 1, Y: 1}, Vec{X: 1, Y: 4}))
}

func TestUnplacedSentinel(t *testing.T) {
	assert.False(t, Unplaced.IsPlaced())
	assert.True(t, Placement{X: 0, Y: 0}.IsPlaced())
}

func TestPathContiguous(t *testing.T) {
	good := Path{{0, 0}, {1, 0}, {1, 1}}
	assert.True(t, good.Contiguous())
	assert.Equal(t, 2, good.Steps())

	diagonal := Path{{0, 0}, {1, 1}}
	assert.False(t, diagonal.Contiguous())

	assert.Equal(t, 0, Path{}.Steps())
}

func TestLayoutValidate_OK(t *testing.T) {
	require.NoError(t, makeTestLayout().Validate())
}

func TestLayoutValidate_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LayoutResult)
	}{
		{"zero width", func(l *LayoutResult) { l.FactoryWidth = 0 }},
		{"empty sequence", func(l *LayoutResult) { l.ProcessSequence = nil }},
		{"missing positions", func(l *LayoutResult) { l.Positions = nil }},
		{"unknown station", func(l *LayoutResult) { l.ProcessSequence = []int{1, 2, 3} }},
		{"duplicate in sequence", func(l *LayoutResult) { l.ProcessSequence = []int{1, 1} }},
		{"missing position", func(l *LayoutResult) { delete(l.Positions, 2) }},
		{"out of bounds", func(l *LayoutResult) { l.Positions[2] = StationPosition{X: 8, Y: 4} }},
		{"bad footprint", func(l *LayoutResult) { l.Stations[0].Width = 0 }},
		{"duplicate definition", func(l *LayoutResult) { l.Stations[1].ID = 1 }},
		{"negative id", func(l *LayoutResult) {
			l.Stations[0].ID = -1
			l.Positions[-1] = l.Positions[1]
			l.ProcessSequence = []int{-1, 2}
		}},
		{"center off footprint", func(l *LayoutResult) { l.Positions[2] = StationPosition{X: 5, Y: 4, CenterX: 0, CenterY: 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := makeTestLayout()
			tt.mutate(&l)
			err := l.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedLayout), "got %v", err)
		})
	}
}

func TestStationPositionRequiresAllKeys(t *testing.T) {
	var pos StationPosition
	require.NoError(t, json.Unmarshal([]byte(`{"x":5,"y":4,"center_x":6.5,"center_y":5}`), &pos))
	assert.Equal(t, StationPosition{X: 5, Y: 4, CenterX: 6.5, CenterY: 5}, pos)

	for _, body := range []string{
		`{}`,
		`{"y":4,"center_x":6.5,"center_y":5}`,
		`{"x":5,"center_x":6.5,"center_y":5}`,
		`{"x":5,"y":4,"center_y":5}`,
		`{"x":5,"y":4,"center_x":6.5}`,
	} {
		err := json.Unmarshal([]byte(body), &pos)
		assert.True(t, errors.Is(err, ErrMalformedLayout), "%s: got %v", body, err)
	}
}

func TestLayoutRender(t *testing.T) {
	out := makeTestLayout().Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "Y0 |  1  1 __"), "got %q", lines[0])
	assert.Contains(t, lines[4], " 2  2  2")
}

func TestDefaultStationsUniqueIDs(t *testing.T) {
	stations := DefaultStations()
	require.Len(t, stations, 16)
	seen := map[int]bool{}
	for _, s := range stations {
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
		assert.Positive(t, s.Width)
		assert.Positive(t, s.Height)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, IdentitySequence(stations))
}

func TestNewRunIDUnique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
