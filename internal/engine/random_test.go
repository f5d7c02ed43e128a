package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandSameSeedSameSequence(t *testing.T) {
	a := NewRand(99, 3)
	b := NewRand(99, 3)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.UniformReal(0, 1), b.UniformReal(0, 1))
	}
}

func TestRandStreamsDiffer(t *testing.T) {
	primary, workers := newStreams(99, 2)

	assert.NotEqual(t, primary.UniformReal(0, 1), workers[0].UniformReal(0, 1))
	assert.NotEqual(t, workers[0].UniformReal(0, 1), workers[1].UniformReal(0, 1))
}

func TestRandRanges(t *testing.T) {
	r := NewRand(1, 0)

	for i := 0; i < 1000; i++ {
		v := r.UniformReal(-2, 3)
		assert.GreaterOrEqual(t, v, -2.0)
		assert.Less(t, v, 3.0)

		n := r.UniformInt(4, 6)
		assert.GreaterOrEqual(t, n, 4)
		assert.LessOrEqual(t, n, 6)
	}
}

func TestResolveSeed(t *testing.T) {
	assert.Equal(t, uint64(17), resolveSeed(17))
	assert.NotZero(t, resolveSeed(0))
}

func TestStreamSeed(t *testing.T) {
	assert.Equal(t, uint64(17), streamSeed(17, 0))
	assert.NotEqual(t, uint64(17), streamSeed(17, 1))
	assert.NotEqual(t, streamSeed(17, 1), streamSeed(17, 2))
	assert.Equal(t, streamSeed(17, 9), streamSeed(17, 9))
}

func TestUniformIntPassesChiSquared(t *testing.T) {
	const buckets = 6
	counts := make([]int, buckets)
	r := NewRand(12345, 0)

	for i := 0; i < 60000; i++ {
		counts[r.UniformInt(0, buckets-1)]++
	}

	// Critical value for 5 degrees of freedom at p = 0.001.
	assert.Less(t, chiSquared(counts), 20.52)
}

func TestChiSquared(t *testing.T) {
	assert.Equal(t, 0.0, chiSquared(nil))
	assert.Equal(t, 0.0, chiSquared([]int{10, 10, 10}))
	// Expected 10 each: (20-10)^2/10 + (0-10)^2/10 = 20.
	assert.InDelta(t, 20.0, chiSquared([]int{20, 0}), 1e-12)
}

// chiSquared returns Pearson's statistic of counts against a uniform
// expectation over len(counts) buckets.
func chiSquared(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(counts) == 0 {
		return 0
	}
	expected := float64(total) / float64(len(counts))
	stat := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}
	return stat
}
