package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// buildTestSnapshot creates a realistic final snapshot with one square poking
// out of the container.
func buildTestSnapshot() model.Snapshot {
	return model.Snapshot{
		RunID:      "a1b2c3d4",
		Generation: 250,
		BestSquares: []geometry.Square{
			geometry.NewSquare(0.5, 0.5, 0, 1),
			geometry.NewSquare(1.6, 0.6, 0.3, 1),
			geometry.NewSquare(2.5, 2.5, 0.785, 1),
			geometry.NewSquare(4.9, 4.9, 0, 1),
		},
		BestFitness:  37.5,
		MeanFitness:  120.25,
		WorstFitness: 900,
		BoxSide:      5,
		SquareSide:   1,
		Elapsed:      3 * time.Second,
	}
}

func buildTestHistory(n int) []model.GenerationStats {
	rows := make([]model.GenerationStats, n)
	for i := range rows {
		rows[i] = model.GenerationStats{
			Generation:   i,
			BestFitness:  100 / float64(i+1),
			MeanFitness:  200 / float64(i+1),
			WorstFitness: 400 / float64(i+1),
			Disaster:     i%17 == 0,
		}
	}
	return rows
}

func buildTestSummary(snap model.Snapshot, history []model.GenerationStats) model.RunSummary {
	cfg := model.DefaultConfig()
	cfg.GeneSize = len(snap.BestSquares)
	cfg.Seed = 42
	return model.Summarize(cfg, snap, history)
}

func assertFileWritten(t *testing.T, path string, minSize int64) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file was not created: %v", err)
	}
	if info.Size() < minSize {
		t.Errorf("file seems too small: %d bytes", info.Size())
	}
}

func TestExportPDF_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	snap := buildTestSnapshot()
	history := buildTestHistory(251)

	if err := ExportPDF(path, snap, buildTestSummary(snap, history), history); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	assertFileWritten(t, path, 500)
}

func TestExportPDF_EmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	err := ExportPDF(path, model.Snapshot{}, model.RunSummary{}, nil)
	if err == nil {
		t.Fatal("expected error for empty snapshot, got nil")
	}
}

func TestExportPDF_ManySquaresNoHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")

	// More squares than colors and table rows
	snap := buildTestSnapshot()
	snap.BestSquares = nil
	for i := 0; i < 60; i++ {
		snap.BestSquares = append(snap.BestSquares,
			geometry.NewSquare(float64(i%8)+0.5, float64(i/8)+0.5, float64(i)*0.1, 1))
	}
	snap.BoxSide = 8
	snap.BestFitness = 0

	if err := ExportPDF(path, snap, buildTestSummary(snap, nil), nil); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	assertFileWritten(t, path, 500)
}

func TestSampleHistory(t *testing.T) {
	history := buildTestHistory(101)

	got := sampleHistory(history, 20)

	if len(got) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(got))
	}
	if got[0].Generation != 0 || got[19].Generation != 100 {
		t.Errorf("first and last rows must be kept, got %d and %d", got[0].Generation, got[19].Generation)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Generation <= got[i-1].Generation {
			t.Errorf("rows out of order at %d", i)
		}
	}

	short := buildTestHistory(5)
	if len(sampleHistory(short, 20)) != 5 {
		t.Error("short histories should be returned whole")
	}
}

func TestLabelFontSize(t *testing.T) {
	tests := []struct {
		size float64
		want float64
	}{
		{50, 9},
		{20, 7},
		{10, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.size), func(t *testing.T) {
			if got := labelFontSize(tt.size); got != tt.want {
				t.Errorf("labelFontSize(%v) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestNewRunLabel(t *testing.T) {
	snap := buildTestSnapshot()
	summary := buildTestSummary(snap, buildTestHistory(10))

	label := NewRunLabel(summary)

	if label.RunID != "a1b2c3d4" || label.Generation != 250 || label.Squares != 4 || label.Seed != 42 {
		t.Errorf("unexpected label %+v", label)
	}
	if label.Valid {
		t.Error("fitness 37.5 is not a valid packing")
	}
}
