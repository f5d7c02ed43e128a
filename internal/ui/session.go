package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/piwi3910/SquarePack/internal/engine"
	"github.com/piwi3910/SquarePack/internal/export"
	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// ErrRunInProgress is returned by Session.Start while a run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Report is the outcome of the most recent run of a Session.
type Report struct {
	Last       model.Snapshot
	Summary    model.RunSummary
	History    []model.GenerationStats
	Population engine.Population
	Seed       uint64
	Err        error
}

// Session runs one packing search at a time on a background goroutine and
// keeps the result of the last one. Snapshots are published to a single
// Publisher shared by all runs of the session.
type Session struct {
	logger    *slog.Logger
	publisher *engine.Publisher

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	report  Report
	hasData bool
}

// NewSession returns an idle session.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{logger: logger, publisher: engine.NewPublisher()}
}

// Publisher returns the publisher every run writes its snapshots to.
func (s *Session) Publisher() *engine.Publisher { return s.publisher }

// Running reports whether a run is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Start validates cfg and begins a run seeded with layout (may be nil).
// onDone, if set, is called from the run goroutine after the report is
// stored.
func (s *Session) Start(cfg model.Config, layout []geometry.Square, onDone func(Report)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrRunInProgress
	}

	opts := []engine.Option{engine.WithLogger(s.logger)}
	if len(layout) > 0 {
		opts = append(opts, engine.WithSeedLayout(layout))
	}
	e, err := engine.New(cfg, opts...)
	if err != nil {
		return err
	}
	pop, err := e.Initialize()
	if err != nil {
		return err
	}

	history := export.NewHistory()
	runner := engine.NewRunner(e,
		engine.WithPublisher(s.publisher),
		engine.WithSinks(history),
		engine.WithRunLogger(s.logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		final, runErr := runner.Run(ctx, pop)
		if err := runner.Close(); err != nil {
			s.logger.Error("failed to close run sinks", "error", err)
		}

		last := runner.Last()
		rows := history.Stats()
		runCfg := e.Config()
		runCfg.Seed = e.Seed()
		report := Report{
			Last:       last,
			Summary:    model.Summarize(runCfg, last, rows),
			History:    rows,
			Population: final,
			Seed:       e.Seed(),
			Err:        runErr,
		}

		s.mu.Lock()
		s.report = report
		s.hasData = true
		s.cancel = nil
		s.done = nil
		s.mu.Unlock()
		cancel()

		if onDone != nil {
			onDone(report)
		}
	}()
	return nil
}

// Stop asks the active run to finish after its current generation and
// waits for it. It is a no-op when idle.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the active run, if any, has finished.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Report returns the result of the last finished run.
func (s *Session) Report() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasData {
		return Report{}, false
	}
	r := s.report
	r.Last = r.Last.Clone()
	r.History = append([]model.GenerationStats(nil), r.History...)
	r.Population = r.Population.Clone()
	return r, true
}
