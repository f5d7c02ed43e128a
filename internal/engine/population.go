package engine

import (
	"fmt"
	"sort"
)

// Population is the ranked collection of genes under evolution. After every
// Step it is sorted ascending by fitness, so index 0 is the best packing.
type Population []Gene

// Sort orders the population ascending by fitness. Ties keep their current
// relative order.
func (p Population) Sort() {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].Fitness < p[j].Fitness
	})
}

// Best returns the first gene. The population must be sorted and non-empty.
func (p Population) Best() *Gene {
	return &p[0]
}

// Stats returns the best, mean and worst fitness of the population.
func (p Population) Stats() (best, mean, worst float64) {
	if len(p) == 0 {
		return 0, 0, 0
	}
	best, worst = p[0].Fitness, p[0].Fitness
	sum := 0.0
	for i := range p {
		f := p[i].Fitness
		sum += f
		if f < best {
			best = f
		}
		if f > worst {
			worst = f
		}
	}
	return best, sum / float64(len(p)), worst
}

// Clone returns a deep copy of every gene.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i := range p {
		out[i] = p[i].Clone()
	}
	return out
}

// checkReady verifies the population has the configured size and that every
// gene carries a current fitness.
func (p Population) checkReady(size int) error {
	if len(p) != size {
		return fmt.Errorf("%w: have %d, want %d", ErrPopulationSize, len(p), size)
	}
	for i := range p {
		if p[i].Stale() {
			return fmt.Errorf("%w: index %d", ErrStaleGene, i)
		}
	}
	return nil
}
