package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SquarePack/internal/geometry"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestDefaultConfigCounts(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15, cfg.EliteCount())
	// 135 non-elites, 13 culled
	assert.Equal(t, 137, cfg.SurvivorCount())
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero genes", func(c *Config) { c.GeneSize = 0 }},
		{"negative side", func(c *Config) { c.SquareSide = -1 }},
		{"zero box", func(c *Config) { c.BoxSide = 0 }},
		{"tiny population", func(c *Config) { c.PopulationSize = 1 }},
		{"elitism above one", func(c *Config) { c.ElitismRate = 1.5 }},
		{"negative mutation", func(c *Config) { c.MutationRate = -0.1 }},
		{"zero tournament", func(c *Config) { c.TournamentSize = 0 }},
		{"negative weight", func(c *Config) { c.OverlapWeight = -2 }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestValidateRejectsEmptySurvivorPool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ElitismRate = 0
	cfg.PredationRate = 1

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptySurvivorPool)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateAcceptsFullPredationWithElites(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredationRate = 1
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.EliteCount(), cfg.SurvivorCount())
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	s := Snapshot{BestSquares: []geometry.Square{geometry.NewSquare(1, 1, 0, 1)}}
	cp := s.Clone()
	cp.BestSquares[0].Center.X = 42

	assert.Equal(t, 1.0, s.BestSquares[0].Center.X)
}

func TestSummarizeCountsDisasters(t *testing.T) {
	history := []GenerationStats{
		{Generation: 1}, {Generation: 2, Disaster: true}, {Generation: 3, Disaster: true},
	}
	last := Snapshot{RunID: "abc", Generation: 3, BestFitness: 0}

	sum := Summarize(DefaultConfig(), last, history)
	assert.Equal(t, 2, sum.Disasters)
	assert.True(t, sum.Valid)
	assert.Equal(t, 3, sum.Generations)
}

func TestNewRunIDLength(t *testing.T) {
	id := NewRunID()
	assert.Len(t, id, 8)
	assert.NotEqual(t, id, NewRunID())
}
