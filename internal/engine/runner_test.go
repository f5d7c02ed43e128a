package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

type recordingSink struct {
	snaps    []model.Snapshot
	recErr   error
	closeErr error
	closed   bool
}

func (s *recordingSink) Record(snap model.Snapshot) error {
	s.snaps = append(s.snaps, snap)
	return s.recErr
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.closeErr
}

func TestPublisherLatestIsIsolated(t *testing.T) {
	p := NewPublisher()
	_, ok := p.Latest()
	assert.False(t, ok)

	snap := model.Snapshot{
		Generation:  3,
		BestSquares: []geometry.Square{geometry.NewSquare(1, 1, 0, 1)},
	}
	p.Publish(snap)
	snap.BestSquares[0].Center.X = 9

	got, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, 1.0, got.BestSquares[0].Center.X)

	got.BestSquares[0].Center.X = 7
	again, _ := p.Latest()
	assert.Equal(t, 1.0, again.BestSquares[0].Center.X)
	assert.Equal(t, 3, again.Generation)
}

func TestRunnerRecordsEveryGeneration(t *testing.T) {
	e := newTestEngine(t, smallConfig())
	pop, err := e.Initialize()
	require.NoError(t, err)

	sink := &recordingSink{}
	steps := 0
	r := NewRunner(e,
		WithGenerations(4),
		WithSinks(sink),
		WithRunID("abc"),
		WithStepHook(func(Population, StepReport) { steps++ }),
	)

	final, err := r.Run(context.Background(), pop)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	require.Len(t, sink.snaps, 5)
	for i, s := range sink.snaps {
		assert.Equal(t, i, s.Generation)
		assert.Equal(t, "abc", s.RunID)
	}
	assert.Equal(t, 4, steps)
	assert.True(t, sink.closed)
	assert.Len(t, final, len(pop))

	latest, ok := r.Publisher().Latest()
	require.True(t, ok)
	assert.Equal(t, 4, latest.Generation)
	assert.Equal(t, final[0].Fitness, r.Last().BestFitness)
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	e := newTestEngine(t, smallConfig())
	pop, err := e.Initialize()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	final, err := NewRunner(e, WithSinks(sink)).Run(ctx, pop)

	require.NoError(t, err)
	assert.Equal(t, pop, final)
	assert.Len(t, sink.snaps, 1)
	assert.Equal(t, 0, e.Generation())
}

func TestRunnerCancelFromHookFinishesGeneration(t *testing.T) {
	e := newTestEngine(t, smallConfig())
	pop, err := e.Initialize()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRunner(e, WithStepHook(func(_ Population, report StepReport) {
		if report.Generation == 2 {
			cancel()
		}
	}))

	_, err = r.Run(ctx, pop)

	require.NoError(t, err)
	assert.Equal(t, 2, e.Generation())
}

func TestRunnerStopsOnValidPacking(t *testing.T) {
	e := newTestEngine(t, smallConfig())
	pop, err := e.Initialize()
	require.NoError(t, err)

	_, err = NewRunner(e, WithGenerations(50), WithStopOnValid()).Run(context.Background(), pop)

	require.NoError(t, err)
	// The grid seed is already valid, so the first step ends the run.
	assert.Equal(t, 1, e.Generation())
}

func TestRunnerPropagatesSinkError(t *testing.T) {
	e := newTestEngine(t, smallConfig())
	pop, err := e.Initialize()
	require.NoError(t, err)

	boom := errors.New("disk full")
	_, err = NewRunner(e, WithSinks(&recordingSink{recErr: boom})).Run(context.Background(), pop)

	assert.ErrorIs(t, err, boom)
}

func TestRunnerCloseJoinsErrors(t *testing.T) {
	e := newTestEngine(t, smallConfig())
	first := errors.New("first")
	second := errors.New("second")
	r := NewRunner(e, WithSinks(&recordingSink{closeErr: first}, &recordingSink{closeErr: second}))

	err := r.Close()

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestCompareScenarios(t *testing.T) {
	base := smallConfig()
	scenarios := BuildDefaultScenarios(base)
	require.GreaterOrEqual(t, len(scenarios), 3)
	assert.Equal(t, "Current Settings", scenarios[0].Name)

	bad := base
	bad.PopulationSize = 1
	scenarios = append(scenarios, Scenario{Name: "Broken", Config: bad})

	results := CompareScenarios(context.Background(), scenarios, 3, quietLogger())

	require.Len(t, results, len(scenarios))
	for _, r := range results[:len(results)-1] {
		assert.NoError(t, r.Err, r.Scenario.Name)
		assert.True(t, r.Valid, r.Scenario.Name)
		assert.Equal(t, base.Seed, r.Seed)
	}
	assert.ErrorIs(t, results[len(results)-1].Err, model.ErrInvalidConfig)
}

func TestBuildDefaultScenariosVariesParameters(t *testing.T) {
	base := model.DefaultConfig()
	scenarios := BuildDefaultScenarios(base)

	require.Len(t, scenarios, 4)
	assert.Equal(t, 0.0, scenarios[1].Config.PredationRate)
	assert.Equal(t, 0.0, scenarios[1].Config.DisasterProbability)
	assert.Equal(t, 0.1, scenarios[2].Config.MutationRate)
	assert.Equal(t, 300, scenarios[3].Config.PopulationSize)
}
