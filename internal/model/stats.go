package model

// GenerationStats is the per-generation record kept by the genetic search.
// Non-finite values are kept as-is: BestDistance is +Inf and AvgFitness is
// -Inf when a generation has no valid individual.
type GenerationStats struct {
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"best_fitness"`
	AvgFitness     float64 `json:"avg_fitness"`
	BestDistance   float64 `json:"best_distance"`
	BestThroughput float64 `json:"best_throughput"`
	ValidRatio     float64 `json:"valid_ratio"` // fraction of the population, 0..1
}
