package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/piwi3910/SquarePack/internal/model"
)

// Sink receives every published snapshot of a run.
type Sink interface {
	Record(s model.Snapshot) error
	Close() error
}

// Runner drives an Engine generation by generation, publishing a snapshot
// after each one and forwarding it to the configured sinks.
type Runner struct {
	engine      *Engine
	publisher   *Publisher
	sinks       []Sink
	logger      *slog.Logger
	runID       string
	generations int
	stopOnValid bool
	onStep      func(Population, StepReport)

	started time.Time
	last    model.Snapshot
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithPublisher sets the publisher renderers read from.
func WithPublisher(p *Publisher) RunnerOption {
	return func(r *Runner) { r.publisher = p }
}

// WithSinks appends statistics sinks.
func WithSinks(sinks ...Sink) RunnerOption {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithRunLogger sets the logger for run-level events.
func WithRunLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) { r.runID = id }
}

// WithGenerations limits the run to n steps. Zero runs until the context is
// cancelled.
func WithGenerations(n int) RunnerOption {
	return func(r *Runner) { r.generations = n }
}

// WithStopOnValid ends the run as soon as the best packing is valid.
func WithStopOnValid() RunnerOption {
	return func(r *Runner) { r.stopOnValid = true }
}

// WithStepHook registers a callback invoked after every successful step with
// the new population. Used for periodic checkpoints.
func WithStepHook(fn func(Population, StepReport)) RunnerOption {
	return func(r *Runner) { r.onStep = fn }
}

// NewRunner wraps e. The generation limit defaults to the engine config.
func NewRunner(e *Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine:      e,
		publisher:   NewPublisher(),
		logger:      e.logger,
		runID:       model.NewRunID(),
		generations: e.cfg.Generations,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID returns the identifier stamped on every snapshot of this run.
func (r *Runner) RunID() string { return r.runID }

// Publisher returns the publisher snapshots are written to.
func (r *Runner) Publisher() *Publisher { return r.publisher }

// Last returns the most recent snapshot produced by Run.
func (r *Runner) Last() model.Snapshot { return r.last.Clone() }

// Run evolves pop until the generation limit is reached, the context is
// cancelled or a step fails. The context is only checked between generations.
// Cancellation is not an error: the last complete population is returned with
// a nil error. On a step error the last complete population is returned with
// the error.
func (r *Runner) Run(ctx context.Context, pop Population) (Population, error) {
	r.started = time.Now()
	if err := r.emit(r.engine.Snapshot(r.runID, pop, StepReport{MutationRate: r.engine.cfg.MutationRate}, 0)); err != nil {
		return pop, err
	}

	r.logger.Info("run started", "run_id", r.runID, "generations", r.generations, "seed", r.engine.Seed())
	steps := 0
	for r.generations == 0 || steps < r.generations {
		if ctx.Err() != nil {
			r.logger.Info("run cancelled", "run_id", r.runID, "generation", r.engine.Generation())
			return pop, nil
		}

		next, report, err := r.engine.Step(pop)
		if err != nil {
			return pop, err
		}
		pop = next
		steps++

		if err := r.emit(r.engine.Snapshot(r.runID, pop, report, time.Since(r.started))); err != nil {
			return pop, err
		}
		if r.onStep != nil {
			r.onStep(pop, report)
		}
		if r.stopOnValid && r.last.Valid() {
			r.logger.Info("valid packing found", "run_id", r.runID, "generation", report.Generation)
			break
		}
	}

	r.logger.Info("run finished",
		"run_id", r.runID,
		"generation", r.engine.Generation(),
		"best", r.last.BestFitness,
		"elapsed", time.Since(r.started),
	)
	return pop, nil
}

// Close closes every sink and joins their errors.
func (r *Runner) Close() error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) emit(s model.Snapshot) error {
	r.last = s
	r.publisher.Publish(s)
	for _, sink := range r.sinks {
		if err := sink.Record(s); err != nil {
			return fmt.Errorf("failed to record generation %d: %w", s.Generation, err)
		}
	}
	return nil
}
