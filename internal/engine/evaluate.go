package engine

import (
	"math"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// FitnessConfig holds the scoring weights and line parameters.
type FitnessConfig struct {
	ThroughputWeight float64 `toml:"throughput_weight" env:"THROUGHPUT_WEIGHT" validate:"gte=0"`
	DistanceWeight   float64 `toml:"distance_weight" env:"DISTANCE_WEIGHT" validate:"gte=0"`
	BonusFactor      float64 `toml:"bonus_factor" env:"BONUS_FACTOR" validate:"gte=0"`
	TargetThroughput float64 `toml:"target_throughput" env:"TARGET_THROUGHPUT" validate:"gte=0"` // units per hour
	TravelSpeed      float64 `toml:"travel_speed" env:"TRAVEL_SPEED" validate:"gte=0"`           // grid cells per second
}

// DefaultFitnessConfig returns the standard scoring parameters.
func DefaultFitnessConfig() FitnessConfig {
	return FitnessConfig{
		ThroughputWeight: 1.0,
		DistanceWeight:   0.005,
		BonusFactor:      0.2,
		TargetThroughput: 35,
		TravelSpeed:      0.5,
	}
}

// Score combines throughput and distance into a fitness value.
func (fc FitnessConfig) Score(throughput, distance float64) float64 {
	f := fc.ThroughputWeight*throughput - fc.DistanceWeight*distance
	if throughput >= fc.TargetThroughput {
		f += throughput * fc.BonusFactor
	}
	return f
}

// Evaluation is the derived score of one individual.
type Evaluation struct {
	Fitness       float64 `json:"fitness"`
	TotalDistance float64 `json:"total_distance"`
	Throughput    float64 `json:"throughput"` // units per hour
	Valid         bool    `json:"valid"`
}

// Invalid is the sentinel returned for any degenerate individual.
func Invalid() Evaluation {
	return Evaluation{
		Fitness:       math.Inf(-1),
		TotalDistance: math.Inf(1),
		Throughput:    0,
		Valid:         false,
	}
}

// Evaluate replays the placements of ind onto a fresh grid and scores the
// resulting layout. It never fails: any illegal, unplaced or degenerate
// layout yields Invalid().
func (p *Problem) Evaluate(ind Individual, fc FitnessConfig) Evaluation {
	if len(ind) != len(p.Stations) {
		return Invalid()
	}

	g := p.acquireGrid()
	defer p.releaseGrid(g)

	centers := make([]model.Vec, len(ind))
	for i, s := range p.Stations {
		pl := ind[i]
		if !pl.IsPlaced() || !g.CanPlace(s.Footprint, s.Clearance, pl.X, pl.Y) {
			return Invalid()
		}
		g.Stamp(s.ID, s.Footprint, pl.X, pl.Y)
		centers[i] = s.Center(pl)
	}

	dist := TotalDistance(centers)
	tp := LineThroughput(p.cycleTimes, centers, fc.TravelSpeed)
	if math.IsInf(dist, 0) || math.IsNaN(dist) || tp <= 0 {
		return Invalid()
	}

	return Evaluation{
		Fitness:       fc.Score(tp, dist),
		TotalDistance: dist,
		Throughput:    tp,
		Valid:         true,
	}
}

// TotalDistance sums the Euclidean distance between consecutive centers. A
// line of fewer than two stations has no flow and scores +Inf.
func TotalDistance(centers []model.Vec) float64 {
	if len(centers) < 2 {
		return math.Inf(1)
	}
	var total float64
	for i := 1; i < len(centers); i++ {
		total += model.Dist(centers[i-1], centers[i])
	}
	return total
}

// LineThroughput returns the hourly output of a paced line. The cadence is
// set by the slowest stage, where each stage costs its cycle time plus the
// inbound travel from the previous station. Degenerate input returns 0.
func LineThroughput(cycleTimes []float64, centers []model.Vec, speed float64) float64 {
	if len(cycleTimes) == 0 || len(cycleTimes) != len(centers) {
		return 0
	}

	var bottleneck float64
	for i, ct := range cycleTimes {
		stage := ct
		if i > 0 {
			d := model.Dist(centers[i-1], centers[i])
			if d != 0 {
				if speed <= 0 {
					return 0
				}
				stage += d / speed
			}
		}
		if stage > bottleneck {
			bottleneck = stage
		}
	}

	if bottleneck <= 0 {
		return 0
	}
	return 3600.0 / bottleneck
}
