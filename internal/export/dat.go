package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/piwi3910/SquarePack/internal/model"
)

// DATHeader is the first line of every generation statistics file.
const DATHeader = "# Generation MaxFitness AvgFitness"

// DATWriter collects per-generation statistics and writes them as a
// whitespace-separated text file, suitable for gnuplot, when closed.
// Rows are sorted by generation and the initial population (generation 0)
// is left out.
type DATWriter struct {
	path string

	mu     sync.Mutex
	rows   []model.GenerationStats
	closed bool
}

// NewDATWriter returns a sink that writes to path on Close.
func NewDATWriter(path string) *DATWriter {
	return &DATWriter{path: path}
}

// Record buffers the snapshot's statistics.
func (w *DATWriter) Record(s model.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("dat writer for %s is closed", w.path)
	}
	w.rows = append(w.rows, s.Stats())
	return nil
}

// Close writes the file. Calling Close more than once is a no-op.
func (w *DATWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return WriteDAT(w.path, w.rows)
}

// WriteDAT writes rows to path in the generation statistics format.
func WriteDAT(path string, rows []model.GenerationStats) error {
	sorted := append([]model.GenerationStats(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Generation < sorted[j].Generation
	})

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create statistics file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	fmt.Fprintln(bw, DATHeader)
	for _, r := range sorted {
		if r.Generation <= 0 {
			continue
		}
		fmt.Fprintf(bw, "%d %g %g\n", r.Generation, r.BestFitness, r.MeanFitness)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write statistics file: %w", err)
	}
	return f.Close()
}
