package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// ─── CanPlace Tests ─────────────────────────────────────────

func TestCanPlaceEmptyGrid(t *testing.T) {
	g := New(5, 5)
	fp := model.Footprint{Width: 2, Height: 2}

	assert.True(t, g.CanPlace(fp, 0, 0, 0))
	assert.True(t, g.CanPlace(fp, 0, 3, 3))
	assert.False(t, g.CanPlace(fp, 0, 4, 0), "body past right edge")
	assert.False(t, g.CanPlace(fp, 0, 0, 4), "body past bottom edge")
	assert.False(t, g.CanPlace(fp, 0, -1, 0), "negative origin")
}

func TestCanPlaceClearanceIsClippedAtEdges(t *testing.T) {
	g := New(4, 4)
	fp := model.Footprint{Width: 2, Height: 2}

	// A clearance halo hanging off the floor does not block placement.
	assert.True(t, g.CanPlace(fp, 3, 0, 0))
}

func TestCanPlaceRespectsClearance(t *testing.T) {
	g := New(6, 3)
	fp := model.Footprint{Width: 1, Height: 1}
	g.Stamp(7, fp, 2, 1)

	assert.False(t, g.CanPlace(fp, 1, 3, 1), "adjacent cell inside clearance")
	assert.True(t, g.CanPlace(fp, 1, 4, 1), "two cells away clears a one-cell halo")
	assert.True(t, g.CanPlace(fp, 0, 3, 1), "no clearance allows adjacency")
	assert.False(t, g.CanPlace(fp, 0, 2, 1), "body collision")
}

func TestCanPlaceIgnoresNeighbourClearance(t *testing.T) {
	g := New(6, 1)
	// Placed station had clearance 2, but only bodies are stored.
	g.Stamp(1, model.Footprint{Width: 1, Height: 1}, 0, 0)

	assert.True(t, g.CanPlace(model.Footprint{Width: 1, Height: 1}, 0, 1, 0))
}

func TestCanPlaceIsSideEffectFree(t *testing.T) {
	g := New(3, 3)
	before := g.String()
	g.CanPlace(model.Footprint{Width: 2, Height: 2}, 1, 0, 0)
	assert.Equal(t, before, g.String())
}

// ─── Stamp Tests ────────────────────────────────────────────

func TestStampMarksFootprint(t *testing.T) {
	g := New(4, 3)
	g.Stamp(5, model.Footprint{Width: 2, Height: 2}, 1, 1)

	assert.Equal(t, 5, g.Occupant(1, 1))
	assert.Equal(t, 5, g.Occupant(2, 2))
	assert.Equal(t, Empty, g.Occupant(0, 0))
	assert.Equal(t, Empty, g.Occupant(3, 1))
	assert.False(t, g.Free(model.Point{X: 2, Y: 1}))
	assert.True(t, g.Free(model.Point{X: 0, Y: 2}))
	assert.False(t, g.Free(model.Point{X: -1, Y: 0}), "out of bounds is never free")
}

func TestStampClipsOutOfBounds(t *testing.T) {
	g := New(2, 2)
	assert.NotPanics(t, func() {
		g.Stamp(1, model.Footprint{Width: 3, Height: 3}, 1, 1)
	})
	assert.Equal(t, 1, g.Occupant(1, 1))
}

func TestReset(t *testing.T) {
	g := New(2, 2)
	g.Stamp(0, model.Footprint{Width: 2, Height: 2}, 0, 0)
	g.Reset()
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			assert.Equal(t, Empty, g.Occupant(x, y))
		}
	}
}

// ─── LegalOrigins Tests ─────────────────────────────────────

func TestLegalOriginsEmptyGrid(t *testing.T) {
	g := New(4, 2)
	origins := g.LegalOrigins(model.Footprint{Width: 2, Height: 1}, 0)

	// x in [0,2], y in [0,1]; x is the outer loop.
	expected := []model.Placement{
		{X: 0, Y: 0}, {X: 0, Y: 1},
		{X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 2, Y: 0}, {X: 2, Y: 1},
	}
	assert.Equal(t, expected, origins)
}

func TestLegalOriginsMatchCanPlace(t *testing.T) {
	g := New(6, 5)
	g.Stamp(0, model.Footprint{Width: 2, Height: 2}, 2, 1)
	fp := model.Footprint{Width: 2, Height: 1}

	origins := g.LegalOrigins(fp, 1)
	require.NotEmpty(t, origins)
	set := map[model.Placement]bool{}
	for _, o := range origins {
		set[o] = true
		assert.True(t, g.CanPlace(fp, 1, o.X, o.Y))
	}
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			if g.CanPlace(fp, 1, x, y) {
				assert.True(t, set[model.Placement{X: x, Y: y}], "missing origin (%d,%d)", x, y)
			}
		}
	}
}

func TestLegalOriginsNoneWhenFull(t *testing.T) {
	g := New(2, 2)
	g.Stamp(0, model.Footprint{Width: 2, Height: 2}, 0, 0)
	assert.Empty(t, g.LegalOrigins(model.Footprint{Width: 1, Height: 1}, 0))
}

func TestLegalOriginsFootprintLargerThanGrid(t *testing.T) {
	g := New(2, 2)
	assert.Empty(t, g.LegalOrigins(model.Footprint{Width: 3, Height: 1}, 0))
}

// Two 2x1 stations on a 4x2 floor can sit side by side or stacked.
func TestTwoStationFloorAdmitsStackedLayout(t *testing.T) {
	g := New(4, 2)
	fp := model.Footprint{Width: 2, Height: 1}
	require.True(t, g.CanPlace(fp, 0, 0, 0))
	g.Stamp(0, fp, 0, 0)

	origins := g.LegalOrigins(fp, 0)
	assert.Contains(t, origins, model.Placement{X: 2, Y: 0})
	assert.Contains(t, origins, model.Placement{X: 0, Y: 1})

	stacked := fp.Center(model.Placement{X: 0, Y: 1})
	first := fp.Center(model.Placement{X: 0, Y: 0})
	assert.Equal(t, 1.0, model.Dist(first, stacked))
}

func TestCells(t *testing.T) {
	g := New(3, 3)
	cells := g.Cells(model.Footprint{Width: 2, Height: 2}, 2, 2)
	assert.Equal(t, []model.Point{{X: 2, Y: 2}}, cells)
}
