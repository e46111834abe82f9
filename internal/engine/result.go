package engine

import (
	"math"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// Result is the final state of one search run.
type Result struct {
	Best           Individual // best-ever individual, nil if none scored above -Inf
	BestEval       Evaluation
	BestGeneration int // -1 when Best is nil
	History        []model.GenerationStats
	Generations    int // generations evaluated
	Interrupted    bool
	Seed           int64
}

// Found reports whether the run produced a valid layout.
func (r *Result) Found() bool {
	return r.Best != nil && r.BestEval.Valid
}

// BestSoFar returns the best-ever fitness after each generation. The series
// is non-decreasing.
func (r *Result) BestSoFar() []float64 {
	out := make([]float64, len(r.History))
	best := math.Inf(-1)
	for i, h := range r.History {
		if h.BestFitness > best {
			best = h.BestFitness
		}
		out[i] = best
	}
	return out
}
