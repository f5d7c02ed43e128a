package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SquarePack/internal/model"
	"github.com/piwi3910/SquarePack/internal/project"
)

func writeSmallConfig(t *testing.T) string {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.GeneSize = 5
	cfg.BoxSide = 2.5
	cfg.PopulationSize = 16
	cfg.Workers = 2
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, project.SaveConfig(path, cfg))
	return path
}

func TestRunWritesOutputsAndResumes(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeSmallConfig(t)
	out := func(name string) string { return filepath.Join(dir, name) }

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", cfgPath,
		"-generations", "4",
		"-seed", "11",
		"-log-level", "error",
		"-dat", out("evolution.dat"),
		"-xlsx", out("stats.xlsx"),
		"-pdf", out("report.pdf"),
		"-dxf", out("best.dxf"),
		"-checkpoint", out("checkpoint.json"),
		"-checkpoint-every", "2",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	for _, name := range []string{"evolution.dat", "stats.xlsx", "report.pdf", "best.dxf", "checkpoint.json"} {
		info, err := os.Stat(out(name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
	assert.Contains(t, stdout.String(), "generation 4")
	assert.Contains(t, stdout.String(), "seed 11")

	cp, err := project.LoadCheckpoint(out("checkpoint.json"))
	require.NoError(t, err)
	assert.Equal(t, 4, cp.Generation)
	assert.Equal(t, uint64(11), cp.Seed)
	assert.Len(t, cp.Population, 16)

	stdout.Reset()
	err = run(context.Background(), []string{
		"-resume", out("checkpoint.json"),
		"-generations", "2",
		"-log-level", "error",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "run "+cp.RunID)
	assert.Contains(t, stdout.String(), "generation 6")
}

func TestRunCancelledContextStillReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"-config", writeSmallConfig(t), "-log-level", "error"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "generation 0")
}

func TestRunCompare(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", writeSmallConfig(t),
		"-compare",
		"-generations", "2",
		"-seed", "3",
		"-log-level", "error",
	}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "SCENARIO")
	assert.Contains(t, stdout.String(), "Current Settings")
	assert.Contains(t, stdout.String(), "No Predation/Disaster")
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"extra argument", []string{"extra"}},
		{"bad log format", []string{"-log-format", "xml"}},
		{"bad log level", []string{"-log-level", "loud"}},
		{"invalid workers", []string{"-workers", "-1"}},
		{"missing checkpoint", []string{"-resume", "/does/not/exist.json"}},
		{"missing seed layout", []string{"-seed-layout", "/does/not/exist.csv", "-generations", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Error(t, err)
		})
	}
}
