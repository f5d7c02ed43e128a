package engine

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrWorkerPanic wraps a panic recovered inside a worker goroutine.
var ErrWorkerPanic = errors.New("worker panicked")

// Shard is the half-open index range [Lo, Hi) owned by one worker.
type Shard struct {
	Lo, Hi int
}

// Len returns the number of slots in the shard.
func (s Shard) Len() int { return s.Hi - s.Lo }

// Shards splits n slots into workers contiguous, disjoint ranges that cover
// [0, n) exactly. Sizes differ by at most one; some may be empty when
// workers > n.
func Shards(n, workers int) []Shard {
	if workers < 1 {
		workers = 1
	}
	out := make([]Shard, workers)
	for w := range out {
		out[w] = Shard{Lo: w * n / workers, Hi: (w + 1) * n / workers}
	}
	return out
}

// defaultWorkers returns the worker count used when the config leaves it at 0.
func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// runSharded runs fn once per non-empty shard of n slots, each in its own
// goroutine, and blocks until all of them return. The first error, or a
// recovered panic, is returned after every worker has stopped.
func runSharded(n, workers int, fn func(worker int, shard Shard) error) error {
	var g errgroup.Group
	for w, shard := range Shards(n, workers) {
		if shard.Len() == 0 {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanic, w, r)
				}
			}()
			return fn(w, shard)
		})
	}
	return g.Wait()
}
