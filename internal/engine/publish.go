package engine

import (
	"sync"

	"github.com/piwi3910/SquarePack/internal/model"
)

// Publisher holds the most recent snapshot of a run. The engine goroutine
// writes it; renderers and sinks on other goroutines read it. Readers always
// receive their own copy.
type Publisher struct {
	mu     sync.RWMutex
	latest model.Snapshot
	ok     bool
}

// NewPublisher returns an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish replaces the stored snapshot with a copy of s.
func (p *Publisher) Publish(s model.Snapshot) {
	cp := s.Clone()
	p.mu.Lock()
	p.latest = cp
	p.ok = true
	p.mu.Unlock()
}

// Latest returns a copy of the last published snapshot, or false when nothing
// has been published yet.
func (p *Publisher) Latest() (model.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ok {
		return model.Snapshot{}, false
	}
	return p.latest.Clone(), true
}
