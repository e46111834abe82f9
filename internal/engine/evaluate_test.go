package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// twoStationProblem is a 4x2 floor with two 2x1 stations and no clearance.
func twoStationProblem(t *testing.T) *Problem {
	t.Helper()
	p, err := NewProblem(4, 2, []model.StationSpec{
		model.NewStation(0, "P", 2, 1, 0, 20),
		model.NewStation(1, "Q", 2, 1, 0, 30),
	}, []int{0, 1})
	require.NoError(t, err)
	return p
}

func TestLineThroughputZeroDistance(t *testing.T) {
	centers := []model.Vec{{X: 1, Y: 1}, {X: 1, Y: 1}}
	tp := LineThroughput([]float64{20, 30}, centers, 0.5)
	if tp != 120 {
		t.Errorf("expected throughput 120, got %f", tp)
	}
}

func TestLineThroughputIncludesInboundTravel(t *testing.T) {
	centers := []model.Vec{{X: 0, Y: 0}, {X: 0, Y: 10}}
	// Stage 1 costs 30 + 10/0.5 = 50 seconds.
	tp := LineThroughput([]float64{20, 30}, centers, 0.5)
	assert.InDelta(t, 72.0, tp, 1e-9)
}

func TestLineThroughputDegenerate(t *testing.T) {
	far := []model.Vec{{X: 0, Y: 0}, {X: 3, Y: 4}}
	same := []model.Vec{{X: 0, Y: 0}, {X: 0, Y: 0}}

	assert.Equal(t, 0.0, LineThroughput([]float64{20, 30}, far, 0), "zero speed with distance")
	assert.Equal(t, 120.0, LineThroughput([]float64{20, 30}, same, 0), "zero speed without distance")
	assert.Equal(t, 0.0, LineThroughput([]float64{0, 0}, same, 1), "zero bottleneck")
	assert.Equal(t, 0.0, LineThroughput(nil, nil, 1), "empty line")
	assert.Equal(t, 0.0, LineThroughput([]float64{1}, same, 1), "length mismatch")
}

func TestTotalDistance(t *testing.T) {
	d := TotalDistance([]model.Vec{{X: 1.0, Y: 1.0}, {X: 1.0, Y: 4.0}})
	if d != 3.0 {
		t.Errorf("expected distance 3.0, got %f", d)
	}

	d = TotalDistance([]model.Vec{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 0}})
	assert.InDelta(t, 9.0, d, 1e-9)

	assert.True(t, math.IsInf(TotalDistance([]model.Vec{{X: 1, Y: 1}}), 1))
	assert.True(t, math.IsInf(TotalDistance(nil), 1))
}

func TestScoreBonus(t *testing.T) {
	fc := DefaultFitnessConfig()
	assert.InDelta(t, 30.0-0.05, fc.Score(30, 10), 1e-9, "below target")
	assert.InDelta(t, 40.0-0.05+8.0, fc.Score(40, 10), 1e-9, "above target")
	assert.InDelta(t, 35.0+7.0, fc.Score(35, 0), 1e-9, "target is inclusive")
}

func TestEvaluateStackedLayout(t *testing.T) {
	p := twoStationProblem(t)
	eval := p.Evaluate(Individual{{X: 0, Y: 0}, {X: 0, Y: 1}}, DefaultFitnessConfig())

	require.True(t, eval.Valid)
	assert.InDelta(t, 1.0, eval.TotalDistance, 1e-9)
	// Bottleneck: 30 + 1/0.5 = 32 seconds.
	assert.InDelta(t, 112.5, eval.Throughput, 1e-9)
	assert.InDelta(t, 112.5-0.005+112.5*0.2, eval.Fitness, 1e-9)
}

func TestEvaluateSideBySideLayout(t *testing.T) {
	p := twoStationProblem(t)
	eval := p.Evaluate(Individual{{X: 0, Y: 0}, {X: 2, Y: 0}}, DefaultFitnessConfig())

	require.True(t, eval.Valid)
	assert.InDelta(t, 2.0, eval.TotalDistance, 1e-9)

	stacked := p.Evaluate(Individual{{X: 0, Y: 0}, {X: 0, Y: 1}}, DefaultFitnessConfig())
	assert.Greater(t, stacked.Fitness, eval.Fitness, "shorter flow must score higher")
}

func TestEvaluateInvalid(t *testing.T) {
	p := twoStationProblem(t)
	fc := DefaultFitnessConfig()

	tests := []struct {
		name string
		ind  Individual
	}{
		{"overlap", Individual{{X: 0, Y: 0}, {X: 1, Y: 0}}},
		{"unplaced", Individual{{X: 0, Y: 0}, model.Unplaced}},
		{"out of bounds", Individual{{X: 0, Y: 0}, {X: 3, Y: 0}}},
		{"short chromosome", Individual{{X: 0, Y: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := p.Evaluate(tt.ind, fc)
			assert.False(t, eval.Valid)
			assert.True(t, math.IsInf(eval.Fitness, -1))
			assert.True(t, math.IsInf(eval.TotalDistance, 1))
			assert.Equal(t, 0.0, eval.Throughput)
		})
	}
}

func TestEvaluateReplayChecksClearance(t *testing.T) {
	p, err := NewProblem(5, 1, []model.StationSpec{
		model.NewStation(0, "A", 1, 1, 0, 10),
		model.NewStation(1, "B", 1, 1, 1, 10),
	}, []int{0, 1})
	require.NoError(t, err)

	fc := DefaultFitnessConfig()
	assert.False(t, p.Evaluate(Individual{{X: 0, Y: 0}, {X: 1, Y: 0}}, fc).Valid, "B's halo touches A")
	assert.True(t, p.Evaluate(Individual{{X: 0, Y: 0}, {X: 2, Y: 0}}, fc).Valid)
}

func TestEvaluateSingleStationIsInvalid(t *testing.T) {
	p, err := NewProblem(3, 3, []model.StationSpec{model.NewStation(0, "Solo", 1, 1, 0, 10)}, []int{0})
	require.NoError(t, err)
	assert.False(t, p.Evaluate(Individual{{X: 1, Y: 1}}, DefaultFitnessConfig()).Valid)
}

func TestLayoutArtifact(t *testing.T) {
	p := twoStationProblem(t)
	fc := DefaultFitnessConfig()

	lr, err := p.Layout(Individual{{X: 0, Y: 0}, {X: 2, Y: 1}}, fc, "run-1")
	require.NoError(t, err)
	require.NoError(t, lr.Validate())

	assert.Equal(t, "run-1", lr.RunID)
	assert.Equal(t, 4, lr.FactoryWidth)
	assert.Equal(t, []int{0, 1}, lr.ProcessSequence)
	assert.Equal(t, model.StationPosition{X: 2, Y: 1, CenterX: 3, CenterY: 1.5}, lr.Positions[1])
	assert.Len(t, lr.Stations, 2)
	assert.Positive(t, lr.Throughput)

	_, err = p.Layout(Individual{{X: 0, Y: 0}, {X: 0, Y: 0}}, fc, "run-2")
	assert.True(t, errors.Is(err, ErrNoValidLayout))
}
