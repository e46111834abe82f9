package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/PlantLayout/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GeneticConfig holds parameters for the genetic layout search.
type GeneticConfig struct {
	PopulationSize   int     `toml:"population_size" env:"POPULATION_SIZE" validate:"gte=1"`
	Generations      int     `toml:"generations" env:"GENERATIONS" validate:"gte=1"`
	MutationRate     float64 `toml:"mutation_rate" env:"MUTATION_RATE" validate:"gte=0,lte=1"`                // chance a child is mutated at all
	GeneMutationRate float64 `toml:"gene_mutation_rate" env:"GENE_MUTATION_RATE" validate:"gte=0,lte=1"` // chance each gene of a mutated child is redrawn
	CrossoverRate    float64 `toml:"crossover_rate" env:"CROSSOVER_RATE" validate:"gte=0,lte=1"`
	EliteCount       int     `toml:"elite_count" env:"ELITE_COUNT" validate:"gte=0"`
	TournamentSize   int     `toml:"tournament_size" env:"TOURNAMENT_SIZE" validate:"gte=1"`
	Seed             int64   `toml:"seed" env:"SEED"`                          // 0 derives a seed from the clock
	Workers          int     `toml:"workers" env:"WORKERS" validate:"gte=0"` // 0 uses GOMAXPROCS, 1 evaluates sequentially
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize:   300,
		Generations:      300,
		MutationRate:     0.5,
		GeneMutationRate: 0.05,
		CrossoverRate:    0.8,
		EliteCount:       5,
		TournamentSize:   5,
	}
}

// Validate checks parameter ranges. Failures wrap ErrInvalidConfig.
func (c GeneticConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.EliteCount > c.PopulationSize {
		return fmt.Errorf("%w: elite count %d exceeds population size %d", ErrInvalidConfig, c.EliteCount, c.PopulationSize)
	}
	return nil
}

// Validate checks parameter ranges. Failures wrap ErrInvalidConfig.
func (fc FitnessConfig) Validate() error {
	if err := validate.Struct(fc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Individual is one candidate layout: Individual[i] is the origin of the
// station at position i of the process sequence, or model.Unplaced.
type Individual []model.Placement

// Clone returns a deep copy.
func (ind Individual) Clone() Individual {
	out := make(Individual, len(ind))
	copy(out, ind)
	return out
}

// scored pairs an individual with its evaluation.
type scored struct {
	ind  Individual
	eval Evaluation
}

// Optimizer runs the genetic layout search for one problem.
type Optimizer struct {
	problem *Problem
	genetic GeneticConfig
	fitness FitnessConfig
	logger  *log.Logger
	rng     *rand.Rand
	seed    int64
}

// New creates an optimizer. A nil logger falls back to log.Default().
func New(problem *Problem, gc GeneticConfig, fc FitnessConfig, logger *log.Logger) (*Optimizer, error) {
	if problem == nil {
		return nil, fmt.Errorf("%w: nil problem", ErrInvalidProblem)
	}
	if err := gc.Validate(); err != nil {
		return nil, err
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	seed := gc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Optimizer{
		problem: problem,
		genetic: gc,
		fitness: fc,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
		seed:    seed,
	}, nil
}

// Seed returns the seed driving this optimizer's random stream.
func (o *Optimizer) Seed() int64 {
	return o.seed
}

// Run executes the search. Cancelling ctx stops the run at the next
// generation boundary: the generation being evaluated is always finished
// and recorded first. The returned Result is never nil when err is nil.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		BestEval:       Invalid(),
		BestGeneration: -1,
		Seed:           o.seed,
	}

	o.logger.Info("starting layout search",
		"stations", o.problem.Len(),
		"floor", fmt.Sprintf("%dx%d", o.problem.Width, o.problem.Height),
		"population", o.genetic.PopulationSize,
		"generations", o.genetic.Generations,
		"seed", o.seed)

	population := o.initPopulation()

	for gen := 0; gen < o.genetic.Generations; gen++ {
		current, err := o.evaluatePopulation(population)
		if err != nil {
			return nil, err
		}

		stats := summarize(gen, current)
		res.History = append(res.History, stats)
		res.Generations = gen + 1

		for _, s := range current {
			if s.eval.Fitness > res.BestEval.Fitness {
				res.Best = s.ind.Clone()
				res.BestEval = s.eval
				res.BestGeneration = gen
			}
		}
		if res.BestGeneration == gen {
			o.logger.Info("new best layout",
				"generation", gen,
				"fitness", fmt.Sprintf("%.3f", res.BestEval.Fitness),
				"distance", fmt.Sprintf("%.2f", res.BestEval.TotalDistance),
				"throughput", fmt.Sprintf("%.2f", res.BestEval.Throughput))
		}
		o.logger.Debug("generation complete",
			"generation", gen,
			"best", stats.BestFitness,
			"avg", stats.AvgFitness,
			"valid", fmt.Sprintf("%.0f%%", stats.ValidRatio*100))

		if ctx.Err() != nil {
			res.Interrupted = true
			o.logger.Warn("search interrupted", "generation", gen)
			break
		}
		if gen == o.genetic.Generations-1 {
			break
		}

		population = o.reproduce(current)
	}

	if res.Found() {
		o.logger.Info("layout search finished",
			"generations", res.Generations,
			"best_generation", res.BestGeneration,
			"fitness", fmt.Sprintf("%.3f", res.BestEval.Fitness))
	} else {
		o.logger.Warn("layout search finished without a valid layout", "generations", res.Generations)
	}
	return res, nil
}

// evaluatePopulation scores every individual. Results keep population order
// so the outcome does not depend on the number of workers.
func (o *Optimizer) evaluatePopulation(population []Individual) ([]scored, error) {
	out := make([]scored, len(population))

	workers := o.genetic.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers <= 1 {
		for i, ind := range population {
			out[i] = scored{ind: ind, eval: o.problem.Evaluate(ind, o.fitness)}
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, ind := range population {
		g.Go(func() error {
			out[i] = scored{ind: ind, eval: o.problem.Evaluate(ind, o.fitness)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to evaluate population: %w", err)
	}
	return out, nil
}

// summarize builds the per-generation statistics record.
func summarize(gen int, current []scored) model.GenerationStats {
	stats := model.GenerationStats{
		Generation:   gen,
		BestFitness:  math.Inf(-1),
		AvgFitness:   math.Inf(-1),
		BestDistance: math.Inf(1),
	}
	if len(current) == 0 {
		return stats
	}

	best := -1
	var sum float64
	valid := 0
	for i, s := range current {
		if best < 0 || s.eval.Fitness > current[best].eval.Fitness {
			best = i
		}
		if s.eval.Valid {
			sum += s.eval.Fitness
			valid++
		}
	}

	stats.BestFitness = current[best].eval.Fitness
	stats.BestDistance = current[best].eval.TotalDistance
	stats.BestThroughput = current[best].eval.Throughput
	if valid > 0 {
		stats.AvgFitness = sum / float64(valid)
	}
	stats.ValidRatio = float64(valid) / float64(len(current))
	return stats
}

// initPopulation creates the initial random population.
func (o *Optimizer) initPopulation() []Individual {
	population := make([]Individual, o.genetic.PopulationSize)
	for i := range population {
		population[i] = o.randomIndividual()
	}
	return population
}

// randomIndividual places stations greedily in sequence order, each at a
// uniformly random legal origin given the stations already placed.
func (o *Optimizer) randomIndividual() Individual {
	g := o.problem.acquireGrid()
	defer o.problem.releaseGrid(g)

	ind := make(Individual, o.problem.Len())
	for i, s := range o.problem.Stations {
		origins := g.LegalOrigins(s.Footprint, s.Clearance)
		if len(origins) == 0 {
			ind[i] = model.Unplaced
			continue
		}
		pl := origins[o.rng.Intn(len(origins))]
		ind[i] = pl
		g.Stamp(s.ID, s.Footprint, pl.X, pl.Y)
	}
	return ind
}

// reproduce builds the next population from the evaluated current one.
func (o *Optimizer) reproduce(current []scored) []Individual {
	size := o.genetic.PopulationSize
	next := make([]Individual, 0, size)
	next = append(next, o.elites(current)...)

	pool := make([]scored, 0, len(current))
	for _, s := range current {
		if s.eval.Valid {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		o.logger.Warn("no valid individuals, selecting from the whole generation")
		pool = current
	}

	if len(pool) > 0 {
		for len(next) < size {
			p1 := o.tournamentSelect(pool)
			p2 := o.tournamentSelect(pool)

			c1, c2 := o.crossover(p1, p2)
			if o.rng.Float64() < o.genetic.MutationRate {
				o.mutate(c1)
			}
			if o.rng.Float64() < o.genetic.MutationRate {
				o.mutate(c2)
			}

			next = append(next, c1)
			if len(next) < size {
				next = append(next, c2)
			}
		}
	}

	if len(next) < size {
		o.logger.Warn("padding population with random individuals", "missing", size-len(next))
		for len(next) < size {
			next = append(next, o.randomIndividual())
		}
	}
	if len(next) > size {
		next = next[:size]
	}
	return next
}

// elites returns copies of the valid individuals among the top EliteCount
// ranks. Invalid individuals in those ranks are skipped, not replaced by
// the next valid one.
func (o *Optimizer) elites(current []scored) []Individual {
	ranked := make([]scored, len(current))
	copy(ranked, current)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].eval.Fitness > ranked[j].eval.Fitness
	})

	n := min(o.genetic.EliteCount, len(ranked))
	out := make([]Individual, 0, n)
	for i := 0; i < n; i++ {
		if ranked[i].eval.Valid {
			out = append(out, ranked[i].ind.Clone())
		}
	}
	return out
}

// tournamentSelect samples distinct members of the pool and returns the
// fittest. The first sampled member wins ties.
func (o *Optimizer) tournamentSelect(pool []scored) Individual {
	k := min(o.genetic.TournamentSize, len(pool))
	picks := o.rng.Perm(len(pool))[:k]

	best := pool[picks[0]]
	for _, idx := range picks[1:] {
		if pool[idx].eval.Fitness > best.eval.Fitness {
			best = pool[idx]
		}
	}
	return best.ind
}

// crossover performs single-point crossover with the configured
// probability. Children are always fresh copies.
func (o *Optimizer) crossover(a, b Individual) (Individual, Individual) {
	c1, c2 := a.Clone(), b.Clone()
	n := len(a)
	if n < 2 || len(b) != n || o.rng.Float64() >= o.genetic.CrossoverRate {
		return c1, c2
	}

	cut := 1 + o.rng.Intn(n-1)
	for i := cut; i < n; i++ {
		c1[i], c2[i] = b[i], a[i]
	}
	return c1, c2
}

// mutate redraws genes in place. Each redrawn gene moves to a random legal
// origin given every other placed gene; with no legal origin it is kept.
func (o *Optimizer) mutate(ind Individual) {
	for i := range ind {
		if o.rng.Float64() >= o.genetic.GeneMutationRate {
			continue
		}

		g := o.problem.acquireGrid()
		for j, pl := range ind {
			if j == i || !pl.IsPlaced() {
				continue
			}
			s := o.problem.Stations[j]
			g.Stamp(s.ID, s.Footprint, pl.X, pl.Y)
		}

		s := o.problem.Stations[i]
		origins := g.LegalOrigins(s.Footprint, s.Clearance)
		if len(origins) > 0 {
			ind[i] = origins[o.rng.Intn(len(origins))]
		}
		o.problem.releaseGrid(g)
	}
}
