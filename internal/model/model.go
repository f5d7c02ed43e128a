package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/SquarePack/internal/geometry"
)

// ValidFitness is the fitness below which a packing is considered free of
// overlap and fully inside the container.
const ValidFitness = 1e-6

// DXF layer names used for exported packings.
const (
	LayerContainer = "CONTAINER"
	LayerSquares   = "SQUARES"
)

// NewRunID returns a short identifier for a packing run.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// Snapshot is a read-only view of one generation, handed to renderers and
// statistics sinks. It owns its BestSquares slice.
type Snapshot struct {
	RunID        string            `json:"run_id"`
	Generation   int               `json:"generation"`
	BestSquares  []geometry.Square `json:"best_squares"`
	BestFitness  float64           `json:"best_fitness"`
	MeanFitness  float64           `json:"mean_fitness"`
	WorstFitness float64           `json:"worst_fitness"`
	Disaster     bool              `json:"disaster"`      // Hypermutation was active for this generation
	MutationRate float64           `json:"mutation_rate"` // Rate applied to this generation's offspring
	BoxSide      float64           `json:"box_side"`
	SquareSide   float64           `json:"square_side"`
	Elapsed      time.Duration     `json:"elapsed"`
	StepDuration time.Duration     `json:"step_duration"` // Wall time of the step that produced this generation
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	cp := s
	if s.BestSquares != nil {
		cp.BestSquares = make([]geometry.Square, len(s.BestSquares))
		copy(cp.BestSquares, s.BestSquares)
	}
	return cp
}

// Valid reports whether the best packing has no overlap and no square
// outside the container.
func (s Snapshot) Valid() bool {
	return s.BestFitness <= ValidFitness
}

// Stats extracts the per-generation numbers of the snapshot.
func (s Snapshot) Stats() GenerationStats {
	return GenerationStats{
		Generation:   s.Generation,
		BestFitness:  s.BestFitness,
		MeanFitness:  s.MeanFitness,
		WorstFitness: s.WorstFitness,
		Disaster:     s.Disaster,
	}
}

// GenerationStats is one row of the run history.
type GenerationStats struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	Disaster     bool    `json:"disaster"`
}

// RunSummary describes a finished (or interrupted) run for reports.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Generations int           `json:"generations"`
	BestFitness float64       `json:"best_fitness"`
	Disasters   int           `json:"disasters"`
	Valid       bool          `json:"valid"`
	Duration    time.Duration `json:"duration"`
	Config      Config        `json:"config"`
}

// Summarize builds a RunSummary from the final snapshot and the history.
func Summarize(cfg Config, last Snapshot, history []GenerationStats) RunSummary {
	disasters := 0
	for _, h := range history {
		if h.Disaster {
			disasters++
		}
	}
	return RunSummary{
		RunID:       last.RunID,
		Generations: last.Generation,
		BestFitness: last.BestFitness,
		Disasters:   disasters,
		Valid:       last.Valid(),
		Duration:    last.Elapsed,
		Config:      cfg,
	}
}
