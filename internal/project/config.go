package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/piwi3910/SquarePack/internal/model"
)

// EnvPrefix prefixes every environment variable that overrides a Config field,
// e.g. SQUAREPACK_POPULATION_SIZE.
const EnvPrefix = "SQUAREPACK_"

// LoadConfig builds a run configuration from defaults, then the JSON file at
// path (skipped when path is empty or the file does not exist), then the
// SQUAREPACK_* environment. The result is validated.
func LoadConfig(path string) (model.Config, error) {
	cfg := model.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return model.Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return model.Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return model.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays SQUAREPACK_* environment variables onto cfg. Unset
// variables leave the field unchanged.
func ApplyEnv(cfg *model.Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return fmt.Errorf("failed to read environment: %w", aggErr.Errors[0])
		}
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// SaveConfig writes cfg to path as indented JSON, creating parent directories.
func SaveConfig(path string, cfg model.Config) error {
	return writeJSON(path, cfg)
}
