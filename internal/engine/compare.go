package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/piwi3910/SquarePack/internal/model"
)

// Scenario is a named configuration to compare against others.
type Scenario struct {
	Name   string
	Config model.Config
}

// ComparisonResult holds the outcome of evolving one scenario for a fixed
// number of generations.
type ComparisonResult struct {
	Scenario    Scenario
	Seed        uint64
	BestFitness float64
	MeanFitness float64
	Valid       bool
	Disasters   int
	Err         error
}

// CompareScenarios runs every scenario for generations steps and returns the
// results in scenario order. A scenario whose config is rejected or whose run
// fails carries the error in Err; the others still run.
func CompareScenarios(ctx context.Context, scenarios []Scenario, generations int, logger *slog.Logger) []ComparisonResult {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result := ComparisonResult{Scenario: scenario}

		e, err := New(scenario.Config, WithLogger(logger.With("scenario", scenario.Name)))
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}
		result.Seed = e.Seed()

		pop, err := e.Initialize()
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}

		disasters := 0
		for i := 0; i < generations && ctx.Err() == nil; i++ {
			next, report, err := e.Step(pop)
			if err != nil {
				result.Err = err
				break
			}
			pop = next
			if report.Disaster {
				disasters++
			}
		}

		best, mean, _ := pop.Stats()
		result.BestFitness = best
		result.MeanFitness = mean
		result.Valid = best <= model.ValidFitness
		result.Disasters = disasters
		results = append(results, result)
	}

	return results
}

// BuildDefaultScenarios derives what-if variants from the base config, varying
// the parameters that most change convergence.
func BuildDefaultScenarios(base model.Config) []Scenario {
	scenarios := []Scenario{
		{Name: "Current Settings", Config: base},
	}

	// Plain elitism without predation or disasters
	plain := base
	plain.PredationRate = 0
	plain.DisasterProbability = 0
	scenarios = append(scenarios, Scenario{Name: "No Predation/Disaster", Config: plain})

	// Double the mutation rate
	if base.MutationRate < 0.5 {
		hot := base
		hot.MutationRate = base.MutationRate * 2
		scenarios = append(scenarios, Scenario{
			Name:   fmt.Sprintf("Mutation %.2f", hot.MutationRate),
			Config: hot,
		})
	}

	// Larger population
	big := base
	big.PopulationSize = base.PopulationSize * 2
	scenarios = append(scenarios, Scenario{
		Name:   fmt.Sprintf("Population %d", big.PopulationSize),
		Config: big,
	})

	return scenarios
}
