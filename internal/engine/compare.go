package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ComparisonScenario defines a named set of search parameters to compare.
type ComparisonScenario struct {
	Name    string
	Genetic GeneticConfig
	Fitness FitnessConfig
}

// ComparisonResult holds the search result and headline numbers for a
// single scenario.
type ComparisonResult struct {
	Scenario       ComparisonScenario
	Result         *Result
	Fitness        float64
	TotalDistance  float64
	Throughput     float64
	ValidRatio     float64 // of the last evaluated generation
	BestGeneration int
}

// CompareScenarios runs the search once per scenario and returns the results
// in scenario order. Scenarios run concurrently and share the problem, which
// is read-only during a search.
func CompareScenarios(ctx context.Context, problem *Problem, scenarios []ComparisonScenario, logger *log.Logger) ([]ComparisonResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	results := make([]ComparisonResult, len(scenarios))

	var g errgroup.Group
	for i, scenario := range scenarios {
		opt, err := New(problem, scenario.Genetic, scenario.Fitness, logger.With("scenario", scenario.Name))
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		g.Go(func() error {
			res, err := opt.Run(ctx)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", scenario.Name, err)
			}
			cr := ComparisonResult{
				Scenario:       scenario,
				Result:         res,
				Fitness:        res.BestEval.Fitness,
				TotalDistance:  res.BestEval.TotalDistance,
				Throughput:     res.BestEval.Throughput,
				BestGeneration: res.BestGeneration,
			}
			if n := len(res.History); n > 0 {
				cr.ValidRatio = res.History[n-1].ValidRatio
			}
			results[i] = cr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios around the
// given parameters. Every scenario shares one seed so that differences come
// from the parameters rather than the random stream.
func BuildDefaultScenarios(base GeneticConfig, fitness FitnessConfig) []ComparisonScenario {
	if base.Seed == 0 {
		base.Seed = time.Now().UnixNano()
	}

	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Genetic: base, Fitness: fitness},
	}

	// Scenario: gentler mutation
	lowMut := base
	lowMut.MutationRate = base.MutationRate * 0.5
	scenarios = append(scenarios, ComparisonScenario{
		Name:    fmt.Sprintf("Mutation %.2f (half)", lowMut.MutationRate),
		Genetic: lowMut,
		Fitness: fitness,
	})

	// Scenario: no elitism
	if base.EliteCount > 0 {
		noElite := base
		noElite.EliteCount = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:    "No Elitism",
			Genetic: noElite,
			Fitness: fitness,
		})
	}

	// Scenario: stronger selection pressure
	strong := base
	strong.TournamentSize = base.TournamentSize * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:    fmt.Sprintf("Tournament %d", strong.TournamentSize),
		Genetic: strong,
		Fitness: fitness,
	})

	// Scenario: half the population, twice the generations
	if base.PopulationSize >= 2 {
		narrow := base
		narrow.PopulationSize = base.PopulationSize / 2
		narrow.Generations = base.Generations * 2
		narrow.EliteCount = min(base.EliteCount, narrow.PopulationSize)
		scenarios = append(scenarios, ComparisonScenario{
			Name:    fmt.Sprintf("Population %d x %d generations", narrow.PopulationSize, narrow.Generations),
			Genetic: narrow,
			Fitness: fitness,
		})
	}

	return scenarios
}
