package export

import (
	"errors"
	"sync"

	"github.com/piwi3910/SquarePack/internal/model"
)

// History is an in-memory statistics sink. It keeps one row per recorded
// generation and hands the full series to its outputs when closed.
type History struct {
	mu      sync.Mutex
	rows    []model.GenerationStats
	outputs []func([]model.GenerationStats) error
}

// NewHistory returns a History that calls each output with the recorded rows
// on Close.
func NewHistory(outputs ...func([]model.GenerationStats) error) *History {
	return &History{outputs: outputs}
}

// Record appends the snapshot's statistics.
func (h *History) Record(s model.Snapshot) error {
	h.mu.Lock()
	h.rows = append(h.rows, s.Stats())
	h.mu.Unlock()
	return nil
}

// Stats returns a copy of the recorded rows in recording order.
func (h *History) Stats() []model.GenerationStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.GenerationStats(nil), h.rows...)
}

// Close runs every output, joining their errors.
func (h *History) Close() error {
	rows := h.Stats()
	var errs []error
	for _, out := range h.outputs {
		if err := out(rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
