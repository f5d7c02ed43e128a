package widgets

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

func TestFitFrame(t *testing.T) {
	f := fitFrame(fyne.NewSize(216, 116), 5)

	if f.side != 100 {
		t.Fatalf("expected side 100, got %v", f.side)
	}
	if f.originX != 58 || f.originY != 8 {
		t.Errorf("expected origin (58, 8), got (%v, %v)", f.originX, f.originY)
	}
	if f.scale != 20 {
		t.Errorf("expected scale 20, got %v", f.scale)
	}

	// Packing origin is the bottom-left corner on screen.
	p := f.toScreen(geometry.Point{X: 0, Y: 0})
	if p.X != 58 || p.Y != 108 {
		t.Errorf("origin maps to %v", p)
	}
	p = f.toScreen(geometry.Point{X: 5, Y: 5})
	if p.X != 158 || p.Y != 8 {
		t.Errorf("far corner maps to %v", p)
	}
}

func TestFitFrameTooSmall(t *testing.T) {
	f := fitFrame(fyne.NewSize(10, 10), 5)
	if f.side != 0 || f.scale != 0 {
		t.Errorf("expected empty frame, got %+v", f)
	}
}

func TestCoverColor(t *testing.T) {
	squares := []geometry.Square{
		geometry.NewSquare(1, 1, 0, 2),
		geometry.NewSquare(2.5, 1, 0, 2),
	}

	if got := coverColor(geometry.Point{X: 0.5, Y: 1}, squares); got != squareColors[0] {
		t.Errorf("expected first square color, got %v", got)
	}
	if got := coverColor(geometry.Point{X: 3.2, Y: 1}, squares); got != squareColors[1] {
		t.Errorf("expected second square color, got %v", got)
	}
	if got := coverColor(geometry.Point{X: 1.75, Y: 1}, squares); got != overlapColor {
		t.Errorf("expected overlap color, got %v", got)
	}
	if got := coverColor(geometry.Point{X: 1, Y: 4}, squares); got != color.Transparent {
		t.Errorf("expected transparent, got %v", got)
	}
}

func TestPackingCanvasRendersSnapshot(t *testing.T) {
	test.NewTempApp(t)

	pc := NewPackingCanvas()
	pc.Resize(fyne.NewSize(300, 300))
	r := test.TempWidgetRenderer(t, pc)

	if n := len(r.Objects()); n != 1 {
		t.Fatalf("expected placeholder only, got %d objects", n)
	}

	pc.SetSnapshot(model.Snapshot{
		BoxSide: 5,
		BestSquares: []geometry.Square{
			geometry.NewSquare(1, 1, 0, 1),
			geometry.NewSquare(3, 3, 0.5, 1),
		},
	})
	r.Refresh()

	// Background, raster, then four edges and a label per square.
	if n := len(r.Objects()); n != 2+2*5 {
		t.Errorf("expected %d objects, got %d", 2+2*5, n)
	}

	pc.SetShowVertices(true)
	r.Refresh()
	if n := len(r.Objects()); n != 2+2*9 {
		t.Errorf("expected %d objects with vertices, got %d", 2+2*9, n)
	}

	snap, ok := pc.Snapshot()
	if !ok || len(snap.BestSquares) != 2 {
		t.Error("snapshot should be retained")
	}
}
