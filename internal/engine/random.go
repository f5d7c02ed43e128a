package engine

import (
	"math/rand/v2"
)

// Source is the randomness capability consumed by every stochastic operator.
// Implementations are not safe for concurrent use; each worker owns one.
type Source interface {
	// UniformReal returns a value in [lo, hi).
	UniformReal(lo, hi float64) float64
	// UniformInt returns a value in [lo, hi], both ends inclusive.
	UniformInt(lo, hi int) int
	// Shuffle permutes n elements through swap.
	Shuffle(n int, swap func(i, j int))
}

// Rand is a PCG-backed Source.
type Rand struct {
	r *rand.Rand
}

// NewRand returns a Source for the given seed and stream number. Equal
// (seed, stream) pairs produce equal sequences.
func NewRand(seed, stream uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, stream))}
}

func (r *Rand) UniformReal(lo, hi float64) float64 {
	return lo + r.r.Float64()*(hi-lo)
}

func (r *Rand) UniformInt(lo, hi int) int {
	return lo + r.r.IntN(hi-lo+1)
}

func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.r.Shuffle(n, swap)
}

// resolveSeed replaces a zero seed with a random one.
func resolveSeed(seed uint64) uint64 {
	for seed == 0 {
		seed = rand.Uint64()
	}
	return seed
}

// newStreams derives the engine's main stream and one independent stream per
// worker from a single seed.
func newStreams(seed uint64, workers int) (*Rand, []*Rand) {
	primary := NewRand(seed, 0)
	streams := make([]*Rand, workers)
	for i := range streams {
		streams[i] = NewRand(seed, uint64(i)+1)
	}
	return primary, streams
}

// streamSeed derives the stream seed for a run continuing after generation
// steps. Generation 0 keeps the seed, so fresh runs are unaffected.
func streamSeed(seed uint64, generation int) uint64 {
	if generation <= 0 {
		return seed
	}
	// splitmix64 finaliser
	z := seed + uint64(generation)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
