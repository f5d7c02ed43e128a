package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardsCoverExactly(t *testing.T) {
	for _, n := range []int{0, 1, 7, 135, 150} {
		for _, workers := range []int{1, 3, 8, 200} {
			t.Run(fmt.Sprintf("n=%d/workers=%d", n, workers), func(t *testing.T) {
				shards := Shards(n, workers)
				require.Len(t, shards, workers)

				next := 0
				minLen, maxLen := n, 0
				for _, s := range shards {
					assert.Equal(t, next, s.Lo, "shards must be contiguous")
					assert.GreaterOrEqual(t, s.Hi, s.Lo)
					next = s.Hi
					minLen = min(minLen, s.Len())
					maxLen = max(maxLen, s.Len())
				}
				assert.Equal(t, n, next)
				assert.LessOrEqual(t, maxLen-minLen, 1)
			})
		}
	}
}

func TestShardsClampsWorkers(t *testing.T) {
	shards := Shards(5, 0)
	require.Len(t, shards, 1)
	assert.Equal(t, Shard{Lo: 0, Hi: 5}, shards[0])
}

func TestRunShardedVisitsEverySlotOnce(t *testing.T) {
	const n = 97
	var hits [n]int32

	err := runSharded(n, 6, func(_ int, shard Shard) error {
		for i := shard.Lo; i < shard.Hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
		return nil
	})

	require.NoError(t, err)
	for i, h := range hits {
		assert.Equal(t, int32(1), h, "slot %d", i)
	}
}

func TestRunShardedReturnsWorkerError(t *testing.T) {
	boom := errors.New("boom")

	err := runSharded(10, 4, func(worker int, _ Shard) error {
		if worker == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
}

func TestRunShardedRecoversPanic(t *testing.T) {
	err := runSharded(10, 4, func(worker int, _ Shard) error {
		if worker == 1 {
			panic("index out of range")
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkerPanic)
	assert.Contains(t, err.Error(), "index out of range")
}
