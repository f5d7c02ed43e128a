package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// ErrNonFiniteFitness is returned when a gene's fitness evaluates to NaN or
// infinity, which only happens for corrupted square coordinates.
var ErrNonFiniteFitness = errors.New("fitness is not finite")

// Gene is one candidate packing: exactly GeneSize squares plus the fitness
// computed for them. Fitness is meaningful only while the gene is evaluated;
// any change to Squares through Mutate makes it stale.
type Gene struct {
	Squares []geometry.Square `json:"squares"`
	Fitness float64           `json:"fitness"`

	evaluated bool
}

// Stale reports whether the fitness is out of date with the squares.
func (g *Gene) Stale() bool {
	return !g.evaluated
}

// NewRandomGene places every square uniformly at random in the container.
func NewRandomGene(cfg model.Config, rng Source) Gene {
	g := Gene{Squares: make([]geometry.Square, cfg.GeneSize)}
	g.Randomize(cfg, rng)
	return g
}

// Randomize redraws every square's centre in [0,L]^2 and rotation in [0,2pi).
func (g *Gene) Randomize(cfg model.Config, rng Source) {
	for i := range g.Squares {
		g.Squares[i] = geometry.Square{
			Center: geometry.Point{
				X: rng.UniformReal(0, cfg.BoxSide),
				Y: rng.UniformReal(0, cfg.BoxSide),
			},
			Theta: rng.UniformReal(0, 2*math.Pi),
			Side:  cfg.SquareSide,
		}
	}
	g.evaluated = false
}

// NewGridGene lays the squares out on a centred ceil(sqrt(N)) grid with no
// rotation. When the grid does not fit in the container it falls back to a
// random gene and reports false.
func NewGridGene(cfg model.Config, rng Source) (Gene, bool) {
	dim := int(math.Ceil(math.Sqrt(float64(cfg.GeneSize))))
	spacing := cfg.SquareSide
	if float64(dim)*spacing > cfg.BoxSide {
		return NewRandomGene(cfg, rng), false
	}

	start := math.Max(0, (cfg.BoxSide-float64(dim)*spacing)/2)
	half := spacing / 2

	g := Gene{Squares: make([]geometry.Square, 0, cfg.GeneSize)}
	for row := 0; row < dim && len(g.Squares) < cfg.GeneSize; row++ {
		for col := 0; col < dim && len(g.Squares) < cfg.GeneSize; col++ {
			g.Squares = append(g.Squares, geometry.NewSquare(
				start+float64(col)*spacing+half,
				start+float64(row)*spacing+half,
				0,
				cfg.SquareSide,
			))
		}
	}
	return g, true
}

// NewLayoutGene builds a gene from an externally supplied layout. Missing
// squares are drawn at random, extra ones are dropped, sides are forced to
// SquareSide and centres clamped into the container.
func NewLayoutGene(cfg model.Config, layout []geometry.Square, rng Source) Gene {
	g := NewRandomGene(cfg, rng)
	for i := 0; i < len(layout) && i < cfg.GeneSize; i++ {
		sq := layout[i]
		sq.Side = cfg.SquareSide
		sq.Center.X = geometry.Clamp(sq.Center.X, 0, cfg.BoxSide)
		sq.Center.Y = geometry.Clamp(sq.Center.Y, 0, cfg.BoxSide)
		g.Squares[i] = sq
	}
	return g
}

// Evaluate recomputes the fitness:
//
//	OverlapWeight * sum_{i<j} overlap(i, j) + OutOfBoundsWeight * sum_i (s^2 - overlap(i, box))
//
// Lower is better and zero means a valid packing.
func (g *Gene) Evaluate(cfg model.Config) error {
	g.evaluated = false
	for i, sq := range g.Squares {
		if !finite(sq.Center.X) || !finite(sq.Center.Y) || !finite(sq.Theta) || !finite(sq.Side) {
			return fmt.Errorf("%w: square %d", ErrNonFiniteFitness, i)
		}
	}
	box := geometry.Container(cfg.BoxSide)

	overlap := 0.0
	outside := 0.0
	for i, sq := range g.Squares {
		for j := i + 1; j < len(g.Squares); j++ {
			overlap += geometry.OverlapArea(sq, g.Squares[j])
		}
		outside += sq.Area() - geometry.OverlapArea(sq, box)
	}

	fitness := cfg.OverlapWeight*overlap + cfg.OutOfBoundsWeight*outside
	if !finite(fitness) {
		return fmt.Errorf("%w: %v", ErrNonFiniteFitness, fitness)
	}
	// Round-off on the bounds term can dip just below zero.
	g.Fitness = math.Max(0, fitness)
	g.evaluated = true
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Crossover builds a child taking each slot from a or b with equal
// probability. The child is stale until evaluated.
func Crossover(a, b *Gene, rng Source) Gene {
	child := Gene{Squares: make([]geometry.Square, len(a.Squares))}
	for i := range child.Squares {
		if rng.UniformReal(0, 1) < 0.5 {
			child.Squares[i] = a.Squares[i]
		} else {
			child.Squares[i] = b.Squares[i]
		}
	}
	return child
}

const (
	mutateNudge = iota
	mutateTeleport
	mutateRotate
)

// Mutate visits every square and, with probability rate, applies one of:
// a bounded nudge of the centre, a jump to a fresh random centre, or a
// rotation change (snap to the nearest quarter turn or redraw). Centres are
// clamped to the container afterwards. A zero rate draws nothing.
func (g *Gene) Mutate(cfg model.Config, rate float64, rng Source) {
	if rate <= 0 {
		return
	}
	reach := cfg.NudgeFraction * cfg.BoxSide
	for i := range g.Squares {
		if rng.UniformReal(0, 1) >= rate {
			continue
		}
		sq := &g.Squares[i]
		switch rng.UniformInt(mutateNudge, mutateRotate) {
		case mutateNudge:
			sq.Center.X += rng.UniformReal(-reach, reach)
			sq.Center.Y += rng.UniformReal(-reach, reach)
		case mutateTeleport:
			sq.Center.X = rng.UniformReal(0, cfg.BoxSide)
			sq.Center.Y = rng.UniformReal(0, cfg.BoxSide)
		case mutateRotate:
			if rng.UniformReal(0, 1) < cfg.RotationalSnapProbability {
				sq.Theta = math.Round(sq.Theta/(math.Pi/2)) * (math.Pi / 2)
			} else {
				sq.Theta = rng.UniformReal(0, 2*math.Pi)
			}
		}
		sq.Center.X = geometry.Clamp(sq.Center.X, 0, cfg.BoxSide)
		sq.Center.Y = geometry.Clamp(sq.Center.Y, 0, cfg.BoxSide)
		g.evaluated = false
	}
}

// Clone returns a deep copy, including the evaluation state.
func (g *Gene) Clone() Gene {
	squares := make([]geometry.Square, len(g.Squares))
	copy(squares, g.Squares)
	return Gene{Squares: squares, Fitness: g.Fitness, evaluated: g.evaluated}
}
