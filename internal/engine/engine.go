// Package engine evolves populations of square packings with a parallel
// generational genetic algorithm: elitism, random predation, tournament
// selection, uniform crossover, per-square mutation and occasional
// hypermutation ("disaster") generations.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

var (
	// ErrPopulationSize is returned when Step receives a population whose
	// length differs from the configured size.
	ErrPopulationSize = errors.New("population has the wrong size")
	// ErrStaleGene is returned when Step receives a gene whose fitness was not
	// recomputed after its last change.
	ErrStaleGene = errors.New("gene fitness is stale")
)

// StepReport describes what happened during one generation.
type StepReport struct {
	Generation   int           // Index of the generation produced by the step
	Elites       int           // Individuals carried over unchanged
	Survivors    int           // Elites plus non-elites that escaped predation
	Killed       int           // Non-elites culled by predation
	Offspring    int           // Children bred and evaluated
	Disaster     bool          // Hypermutation rate was used
	MutationRate float64       // Rate applied to the offspring
	Duration     time.Duration // Wall time of the step
}

// Engine runs the generational algorithm for one configuration. An Engine is
// not safe for concurrent use: Step must be called from a single goroutine.
type Engine struct {
	cfg     model.Config
	workers int
	seed    uint64
	logger  *slog.Logger
	layout  []geometry.Square

	rng     *Rand   // predation shuffle, disaster draw, initial population
	streams []*Rand // one per worker

	generation int

	// evaluate computes a gene's fitness; replaced in tests to inject faults.
	evaluate func(g *Gene) error
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for run and generation events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSeedLayout makes the first individual of the initial population start
// from the given squares instead of the grid layout.
func WithSeedLayout(squares []geometry.Square) Option {
	return func(e *Engine) {
		e.layout = append([]geometry.Square(nil), squares...)
	}
}

// New validates cfg and builds an Engine. Configurations whose elitism and
// predation rates would leave an empty breeding pool are rejected here.
func New(cfg model.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		workers: cfg.Workers,
		seed:    resolveSeed(cfg.Seed),
		logger:  slog.Default(),
	}
	if e.workers == 0 {
		e.workers = defaultWorkers()
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rng, e.streams = newStreams(e.seed, e.workers)
	e.evaluate = func(g *Gene) error { return g.Evaluate(e.cfg) }

	e.logger.Info("engine configured",
		"genes", cfg.GeneSize,
		"square_side", cfg.SquareSide,
		"box_side", cfg.BoxSide,
		"population", cfg.PopulationSize,
		"elites", cfg.EliteCount(),
		"survivors", cfg.SurvivorCount(),
		"workers", e.workers,
		"seed", e.seed,
	)
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() model.Config { return e.cfg }

// Seed returns the seed actually in use, which differs from the configured one
// when that was zero.
func (e *Engine) Seed() uint64 { return e.seed }

// Workers returns the size of the worker pool.
func (e *Engine) Workers() int { return e.workers }

// Generation returns the number of steps performed so far.
func (e *Engine) Generation() int { return e.generation }

// Initialize creates the first population: one grid-seeded (or layout-seeded)
// individual and PopulationSize-1 random ones, evaluated and sorted.
func (e *Engine) Initialize() (Population, error) {
	pop := make(Population, e.cfg.PopulationSize)

	if len(e.layout) > 0 {
		pop[0] = NewLayoutGene(e.cfg, e.layout, e.rng)
	} else {
		var gridded bool
		pop[0], gridded = NewGridGene(e.cfg, e.rng)
		if !gridded {
			e.logger.Warn("grid seed does not fit the container, using a random individual",
				"genes", e.cfg.GeneSize, "square_side", e.cfg.SquareSide, "box_side", e.cfg.BoxSide)
		}
	}
	for i := 1; i < len(pop); i++ {
		pop[i] = NewRandomGene(e.cfg, e.rng)
	}

	if err := e.evaluateRange(pop); err != nil {
		return nil, fmt.Errorf("failed to evaluate initial population: %w", err)
	}
	pop.Sort()
	e.generation = 0
	return pop, nil
}

// Adopt prepares an externally supplied population (for example a loaded
// checkpoint) for Step: every gene is re-evaluated and the population sorted.
// The generation counter continues from generation, and the random streams are
// re-derived from the seed and generation so a resumed run does not replay the
// draws of the run that produced the checkpoint.
func (e *Engine) Adopt(pop Population, generation int) (Population, error) {
	if len(pop) != e.cfg.PopulationSize {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrPopulationSize, len(pop), e.cfg.PopulationSize)
	}
	e.rng, e.streams = newStreams(streamSeed(e.seed, generation), e.workers)
	out := pop.Clone()
	for i := range out {
		if len(out[i].Squares) != e.cfg.GeneSize {
			out[i] = NewLayoutGene(e.cfg, out[i].Squares, e.rng)
		}
	}
	if err := e.evaluateRange(out); err != nil {
		return nil, fmt.Errorf("failed to evaluate adopted population: %w", err)
	}
	out.Sort()
	e.generation = generation
	return out, nil
}

// Step produces the next generation from pop, which must be sorted and fully
// evaluated. pop itself is never modified; on error it remains the current
// population.
func (e *Engine) Step(pop Population) (Population, StepReport, error) {
	start := time.Now()
	report := StepReport{Generation: e.generation + 1}

	if err := pop.checkReady(e.cfg.PopulationSize); err != nil {
		return nil, report, err
	}

	size := e.cfg.PopulationSize
	next := make(Population, size)

	// Elites
	eliteCount := e.cfg.EliteCount()
	for i := 0; i < eliteCount; i++ {
		next[i] = pop[i].Clone()
	}

	// Predation: cull a random share of the non-elites
	nonElite := make([]int, 0, size-eliteCount)
	for i := eliteCount; i < size; i++ {
		nonElite = append(nonElite, i)
	}
	e.rng.Shuffle(len(nonElite), func(i, j int) {
		nonElite[i], nonElite[j] = nonElite[j], nonElite[i]
	})
	killed := int(float64(len(nonElite)) * e.cfg.PredationRate)
	survivors := eliteCount
	for _, idx := range nonElite[:len(nonElite)-killed] {
		next[survivors] = pop[idx].Clone()
		survivors++
	}
	if survivors == 0 {
		return nil, report, model.ErrEmptySurvivorPool
	}

	// Disaster
	rate := e.cfg.MutationRate
	disaster := e.rng.UniformReal(0, 1) < e.cfg.DisasterProbability
	if disaster {
		rate = e.cfg.DisasterHypermutationRate
		e.logger.Info("disaster event", "generation", report.Generation, "mutation_rate", rate)
	}

	// Breeding
	pool := next[:survivors]
	children := next[survivors:]
	err := runSharded(len(children), e.workers, func(w int, shard Shard) error {
		rng := e.streams[w]
		for i := shard.Lo; i < shard.Hi; i++ {
			p1 := tournamentSelect(pool, e.cfg.TournamentSize, rng)
			p2 := tournamentSelect(pool, e.cfg.TournamentSize, rng)
			child := Crossover(p1, p2, rng)
			child.Mutate(e.cfg, rate, rng)
			children[i] = child
		}
		return nil
	})
	if err != nil {
		e.logger.Error("breeding failed", "generation", report.Generation, "error", err)
		return nil, report, fmt.Errorf("failed to breed generation %d: %w", report.Generation, err)
	}

	// Re-evaluate offspring only
	if err := e.evaluateRange(children); err != nil {
		e.logger.Error("evaluation failed", "generation", report.Generation, "error", err)
		return nil, report, fmt.Errorf("failed to evaluate generation %d: %w", report.Generation, err)
	}

	next.Sort()
	e.generation++

	report.Elites = eliteCount
	report.Survivors = survivors
	report.Killed = killed
	report.Offspring = len(children)
	report.Disaster = disaster
	report.MutationRate = rate
	report.Duration = time.Since(start)

	best, mean, _ := next.Stats()
	e.logger.Debug("generation complete",
		"generation", report.Generation,
		"best", best,
		"mean", mean,
		"offspring", report.Offspring,
		"duration", report.Duration,
	)
	return next, report, nil
}

// evaluateRange recomputes fitness for every gene of genes in parallel.
func (e *Engine) evaluateRange(genes []Gene) error {
	return runSharded(len(genes), e.workers, func(_ int, shard Shard) error {
		for i := shard.Lo; i < shard.Hi; i++ {
			if err := e.evaluate(&genes[i]); err != nil {
				return fmt.Errorf("gene %d: %w", i, err)
			}
		}
		return nil
	})
}

// tournamentSelect samples size individuals from pool with replacement and
// returns the one with the lowest fitness.
func tournamentSelect(pool []Gene, size int, rng Source) *Gene {
	best := &pool[rng.UniformInt(0, len(pool)-1)]
	for i := 1; i < size; i++ {
		candidate := &pool[rng.UniformInt(0, len(pool)-1)]
		if candidate.Fitness < best.Fitness {
			best = candidate
		}
	}
	return best
}

// Snapshot builds the read-only view of pop published after a step.
func (e *Engine) Snapshot(runID string, pop Population, report StepReport, elapsed time.Duration) model.Snapshot {
	best, mean, worst := pop.Stats()
	squares := make([]geometry.Square, len(pop[0].Squares))
	copy(squares, pop[0].Squares)
	return model.Snapshot{
		RunID:        runID,
		Generation:   e.generation,
		BestSquares:  squares,
		BestFitness:  best,
		MeanFitness:  mean,
		WorstFitness: worst,
		Disaster:     report.Disaster,
		MutationRate: report.MutationRate,
		BoxSide:      e.cfg.BoxSide,
		SquareSide:   e.cfg.SquareSide,
		Elapsed:      elapsed,
		StepDuration: report.Duration,
	}
}
