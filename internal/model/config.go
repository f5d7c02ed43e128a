package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned (wrapped) by Config.Validate for any rejected
// configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrEmptySurvivorPool is returned when elitism and predation together would
// leave no individual to breed from.
var ErrEmptySurvivorPool = errors.New("survivor pool is empty: elitism and predation rates leave no parents")

// Config holds every parameter of a packing run. It is read once at start-up
// and never mutated while the run is in progress.
type Config struct {
	// Problem
	GeneSize   int     `json:"gene_size" env:"GENE_SIZE" validate:"gte=1"`     // N: number of squares to pack
	SquareSide float64 `json:"square_side" env:"SQUARE_SIDE" validate:"gt=0"` // s: side of every small square
	BoxSide    float64 `json:"box_side" env:"BOX_SIDE" validate:"gt=0"`       // L: side of the container

	// Population
	PopulationSize int     `json:"population_size" env:"POPULATION_SIZE" validate:"gte=2"`
	ElitismRate    float64 `json:"elitism_rate" env:"ELITISM_RATE" validate:"gte=0,lte=1"`     // Fraction carried over unchanged
	PredationRate  float64 `json:"predation_rate" env:"PREDATION_RATE" validate:"gte=0,lte=1"` // Fraction of non-elites culled
	TournamentSize int     `json:"tournament_size" env:"TOURNAMENT_SIZE" validate:"gte=1"`

	// Mutation
	MutationRate              float64 `json:"mutation_rate" env:"MUTATION_RATE" validate:"gte=0,lte=1"` // Per-square probability
	RotationalSnapProbability float64 `json:"rotational_snap_probability" env:"ROTATIONAL_SNAP_PROBABILITY" validate:"gte=0,lte=1"`
	NudgeFraction             float64 `json:"nudge_fraction" env:"NUDGE_FRACTION" validate:"gte=0,lte=1"` // Max nudge as a fraction of BoxSide
	DisasterProbability       float64 `json:"disaster_probability" env:"DISASTER_PROBABILITY" validate:"gte=0,lte=1"`
	DisasterHypermutationRate float64 `json:"disaster_hypermutation_rate" env:"DISASTER_HYPERMUTATION_RATE" validate:"gte=0,lte=1"`

	// Fitness
	OverlapWeight     float64 `json:"overlap_weight" env:"OVERLAP_WEIGHT" validate:"gte=0"`
	OutOfBoundsWeight float64 `json:"out_of_bounds_weight" env:"OUT_OF_BOUNDS_WEIGHT" validate:"gte=0"`

	// Execution
	Workers     int    `json:"workers" env:"WORKERS" validate:"gte=0"`         // 0 = one per available CPU
	Seed        uint64 `json:"seed" env:"SEED"`                                // 0 = seed from the clock
	Generations int    `json:"generations" env:"GENERATIONS" validate:"gte=0"` // steps per run, 0 = until stopped
	LogLevel    string `json:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns the parameters of the reference 17-square problem.
func DefaultConfig() Config {
	return Config{
		GeneSize:   17,
		SquareSide: 1.0,
		BoxSide:    5.0,

		PopulationSize: 150,
		ElitismRate:    0.1,
		PredationRate:  0.1,
		TournamentSize: 5,

		MutationRate:              0.05,
		RotationalSnapProbability: 0.5,
		NudgeFraction:             0.1,
		DisasterProbability:       0.02,
		DisasterHypermutationRate: 0.5,

		OverlapWeight:     5,
		OutOfBoundsWeight: 300,

		Workers:     0,
		Seed:        0,
		Generations: 0,
		LogLevel:    "info",
	}
}

// EliteCount is floor(PopulationSize * ElitismRate).
func (c Config) EliteCount() int {
	return int(float64(c.PopulationSize) * c.ElitismRate)
}

// SurvivorCount returns the size of the breeding pool: the elites plus the
// non-elites left after predation.
func (c Config) SurvivorCount() int {
	elites := c.EliteCount()
	nonElites := c.PopulationSize - elites
	killed := int(float64(nonElites) * c.PredationRate)
	return elites + nonElites - killed
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and the cross-field rules the engine relies on.
// Every error wraps ErrInvalidConfig; an empty survivor pool also wraps
// ErrEmptySurvivorPool.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.SurvivorCount() < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrEmptySurvivorPool)
	}
	return nil
}
