package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/SquarePack/internal/engine"
	"github.com/piwi3910/SquarePack/internal/model"
)

// CheckpointVersion is written into every checkpoint file.
const CheckpointVersion = "1.0.0"

// ErrCheckpointVersion is returned for checkpoints written by an incompatible
// version.
var ErrCheckpointVersion = errors.New("unsupported checkpoint version")

// Checkpoint is a saved population that a later run can resume from.
type Checkpoint struct {
	Version    string            `json:"version"`
	CreatedAt  string            `json:"created_at"`
	RunID      string            `json:"run_id"`
	Seed       uint64            `json:"seed"`
	Generation int               `json:"generation"`
	Config     model.Config      `json:"config"`
	Population engine.Population `json:"population"`
}

// SaveCheckpoint writes the population of generation to path.
func SaveCheckpoint(path, runID string, seed uint64, generation int, cfg model.Config, pop engine.Population) error {
	cp := Checkpoint{
		Version:    CheckpointVersion,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		RunID:      runID,
		Seed:       seed,
		Generation: generation,
		Config:     cfg,
		Population: pop,
	}
	if err := writeJSON(path, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint. Fitness values in the file are not
// trusted: pass the population through Engine.Adopt before stepping it.
func LoadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	if cp.Version == "" {
		return Checkpoint{}, fmt.Errorf("invalid checkpoint file: missing version field")
	}
	if cp.Version != CheckpointVersion {
		return Checkpoint{}, fmt.Errorf("%w: %q, want %q", ErrCheckpointVersion, cp.Version, CheckpointVersion)
	}
	if len(cp.Population) == 0 {
		return Checkpoint{}, fmt.Errorf("invalid checkpoint file: empty population")
	}
	return cp, nil
}
