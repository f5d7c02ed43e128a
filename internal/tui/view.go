// Package tui renders the best packing of a running search in the terminal.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// Cell markers returned by Rasterize.
const (
	cellEmpty   = -1
	cellOverlap = -2
	cellOutside = -3
)

// statusRows is the number of text lines drawn above the container.
const statusRows = 3

var palette = []tcell.Color{
	tcell.ColorSteelBlue,
	tcell.ColorSeaGreen,
	tcell.ColorGoldenrod,
	tcell.ColorMediumPurple,
	tcell.ColorDarkCyan,
	tcell.ColorPeru,
	tcell.ColorOliveDrab,
	tcell.ColorSlateGray,
}

// NewScreen opens and initialises the terminal.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise terminal: %w", err)
	}
	return screen, nil
}

// Source provides the latest snapshot of a run.
type Source interface {
	Latest() (model.Snapshot, bool)
}

// View polls a Source and draws the best packing as coloured terminal
// cells. Pressing Esc, q or Ctrl-C calls the cancel function.
type View struct {
	screen  tcell.Screen
	source  Source
	refresh time.Duration
	cancel  context.CancelFunc
	logger  *slog.Logger

	lastGen int
	drawn   bool
}

// New returns a View drawing on an initialised screen.
func New(screen tcell.Screen, source Source, refresh time.Duration, cancel context.CancelFunc, logger *slog.Logger) *View {
	if refresh <= 0 {
		refresh = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &View{screen: screen, source: source, refresh: refresh, cancel: cancel, logger: logger, lastGen: -1}
}

// Run draws until ctx is done or the user quits. The screen is finalised
// before Run returns.
func (v *View) Run(ctx context.Context) error {
	defer v.screen.Fini()
	v.screen.SetStyle(tcell.StyleDefault)
	v.screen.Clear()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(v.refresh)
	defer ticker.Stop()

	v.draw(true)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if isQuit(ev) {
					v.logger.Info("interrupted from terminal")
					if v.cancel != nil {
						v.cancel()
					}
					return nil
				}
			case *tcell.EventResize:
				v.screen.Sync()
				v.draw(true)
			}
		case <-ticker.C:
			v.draw(false)
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// draw repaints the screen when a new generation has been published or
// when force is set.
func (v *View) draw(force bool) {
	snap, ok := v.source.Latest()
	if !ok {
		if force || !v.drawn {
			v.screen.Clear()
			drawText(v.screen, 0, 0, tcell.StyleDefault, "waiting for first generation...")
			v.screen.Show()
			v.drawn = true
		}
		return
	}
	if !force && snap.Generation == v.lastGen {
		return
	}
	v.lastGen = snap.Generation

	v.screen.Clear()
	w, h := v.screen.Size()
	drawStatus(v.screen, snap)

	grid := Rasterize(snap, w, h-statusRows)
	for r, row := range grid {
		for c, idx := range row {
			ch, style := cellGlyph(idx)
			v.screen.SetContent(c, r+statusRows, ch, nil, style)
		}
	}
	v.screen.Show()
}

func drawStatus(s tcell.Screen, snap model.Snapshot) {
	bold := tcell.StyleDefault.Bold(true)
	drawText(s, 0, 0, bold, fmt.Sprintf("run %s  generation %d  %s", snap.RunID, snap.Generation, snap.Elapsed.Round(time.Millisecond)))

	state := "searching"
	stateStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	if snap.Valid() {
		state = "VALID"
		stateStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	}
	line := fmt.Sprintf("best %.6g  mean %.6g  worst %.6g  mutation %.3f  ", snap.BestFitness, snap.MeanFitness, snap.WorstFitness, snap.MutationRate)
	drawText(s, 0, 1, tcell.StyleDefault, line)
	drawText(s, len(line), 1, stateStyle, state)
	if snap.Disaster {
		drawText(s, len(line)+len(state)+2, 1, tcell.StyleDefault.Foreground(tcell.ColorRed), "DISASTER")
	}
	drawText(s, 0, 2, tcell.StyleDefault.Dim(true), "q/Esc to stop")
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func cellGlyph(idx int) (rune, tcell.Style) {
	switch idx {
	case cellEmpty:
		return '·', tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	case cellOverlap:
		return '▓', tcell.StyleDefault.Foreground(tcell.ColorRed)
	case cellOutside:
		return ' ', tcell.StyleDefault
	default:
		return '█', tcell.StyleDefault.Foreground(palette[idx%len(palette)])
	}
}

// Rasterize maps the container of snap onto a cols x rows character grid.
// Terminal cells are about twice as tall as wide, so the container spans
// two columns per row. Each cell holds the index of the square covering its
// centre, cellEmpty for free container space, cellOverlap where two or more
// squares meet and cellOutside beyond the container.
func Rasterize(snap model.Snapshot, cols, rows int) [][]int {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	side := rows
	if 2*side > cols {
		side = cols / 2
	}
	if side <= 0 || snap.BoxSide <= 0 {
		return nil
	}
	boxCols := 2 * side

	grid := make([][]int, side)
	for r := range grid {
		grid[r] = make([]int, cols)
		for c := range grid[r] {
			if c >= boxCols {
				grid[r][c] = cellOutside
				continue
			}
			p := geometry.Point{
				X: (float64(c) + 0.5) / float64(boxCols) * snap.BoxSide,
				Y: (float64(side-r) - 0.5) / float64(side) * snap.BoxSide,
			}
			grid[r][c] = cellAt(p, snap.BestSquares)
		}
	}
	return grid
}

func cellAt(p geometry.Point, squares []geometry.Square) int {
	hit := cellEmpty
	for i, sq := range squares {
		if !geometry.PointInSquare(p, sq) {
			continue
		}
		if hit != cellEmpty {
			return cellOverlap
		}
		hit = i
	}
	return hit
}
