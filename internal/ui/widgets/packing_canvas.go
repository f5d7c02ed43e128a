package widgets

import (
	"fmt"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// Square colors cycle through these for visual distinction.
var squareColors = []color.NRGBA{
	{R: 76, G: 175, B: 80, A: 200},  // green
	{R: 33, G: 150, B: 243, A: 200}, // blue
	{R: 255, G: 152, B: 0, A: 200},  // orange
	{R: 156, G: 39, B: 176, A: 200}, // purple
	{R: 0, G: 188, B: 212, A: 200},  // cyan
	{R: 255, G: 235, B: 59, A: 200}, // yellow
	{R: 121, G: 85, B: 72, A: 200},  // brown
}

var (
	containerColor = color.NRGBA{R: 235, G: 235, B: 235, A: 255}
	overlapColor   = color.NRGBA{R: 244, G: 67, B: 54, A: 230}
	outlineColor   = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	borderColor    = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
)

const canvasPadding = 8

// PackingCanvas draws the best packing of a snapshot: the container, every
// square filled in its own color and overlapping areas in red.
type PackingCanvas struct {
	widget.BaseWidget

	mu           sync.RWMutex
	snap         model.Snapshot
	hasSnap      bool
	showVertices bool
}

// NewPackingCanvas returns an empty canvas.
func NewPackingCanvas() *PackingCanvas {
	pc := &PackingCanvas{}
	pc.ExtendBaseWidget(pc)
	return pc
}

// SetSnapshot replaces the displayed packing. It must be called on the Fyne
// goroutine.
func (pc *PackingCanvas) SetSnapshot(s model.Snapshot) {
	pc.mu.Lock()
	pc.snap = s.Clone()
	pc.hasSnap = true
	pc.mu.Unlock()
	pc.Refresh()
}

// SetShowVertices toggles the corner markers.
func (pc *PackingCanvas) SetShowVertices(show bool) {
	pc.mu.Lock()
	pc.showVertices = show
	pc.mu.Unlock()
	pc.Refresh()
}

// Snapshot returns the displayed snapshot.
func (pc *PackingCanvas) Snapshot() (model.Snapshot, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.snap.Clone(), pc.hasSnap
}

func (pc *PackingCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &packingCanvasRenderer{pc: pc}
	r.raster = canvas.NewRasterWithPixels(r.pixel)
	r.rebuild(pc.Size())
	return r
}

// frame maps packing coordinates onto the widget: y grows upwards in the
// packing and downwards on screen.
type frame struct {
	originX, originY float32 // screen position of the container's top-left corner
	side             float32 // container side on screen
	scale            float32 // screen units per packing unit
	boxSide          float64
}

func fitFrame(size fyne.Size, boxSide float64) frame {
	side := size.Width
	if size.Height < side {
		side = size.Height
	}
	side -= 2 * canvasPadding
	if side < 0 {
		side = 0
	}
	f := frame{
		originX: (size.Width - side) / 2,
		originY: (size.Height - side) / 2,
		side:    side,
		boxSide: boxSide,
	}
	if boxSide > 0 {
		f.scale = side / float32(boxSide)
	}
	return f
}

func (f frame) toScreen(p geometry.Point) fyne.Position {
	return fyne.NewPos(
		f.originX+float32(p.X)*f.scale,
		f.originY+f.side-float32(p.Y)*f.scale,
	)
}

type packingCanvasRenderer struct {
	pc      *PackingCanvas
	raster  *canvas.Raster
	objects []fyne.CanvasObject

	// Read by the raster callback
	mu      sync.RWMutex
	squares []geometry.Square
	boxSide float64
}

func (r *packingCanvasRenderer) rebuild(size fyne.Size) {
	snap, ok := r.pc.Snapshot()
	r.pc.mu.RLock()
	showVertices := r.pc.showVertices
	r.pc.mu.RUnlock()

	r.objects = nil
	if !ok || snap.BoxSide <= 0 {
		msg := canvas.NewText("Press Start to run the search", borderColor)
		msg.TextSize = 12
		msg.Move(fyne.NewPos(canvasPadding, canvasPadding))
		r.objects = append(r.objects, msg)
		return
	}

	r.mu.Lock()
	r.squares = snap.BestSquares
	r.boxSide = snap.BoxSide
	r.mu.Unlock()

	f := fitFrame(size, snap.BoxSide)

	bg := canvas.NewRectangle(containerColor)
	bg.StrokeColor = borderColor
	bg.StrokeWidth = 2
	bg.Resize(fyne.NewSize(f.side, f.side))
	bg.Move(fyne.NewPos(f.originX, f.originY))
	r.objects = append(r.objects, bg)

	r.raster.Resize(fyne.NewSize(f.side, f.side))
	r.raster.Move(fyne.NewPos(f.originX, f.originY))
	r.raster.Refresh()
	r.objects = append(r.objects, r.raster)

	for i, sq := range snap.BestSquares {
		verts := sq.Vertices()
		for j := range verts {
			line := canvas.NewLine(outlineColor)
			line.StrokeWidth = 1
			line.Position1 = f.toScreen(verts[j])
			line.Position2 = f.toScreen(verts[(j+1)%len(verts)])
			r.objects = append(r.objects, line)

			if showVertices {
				dot := canvas.NewCircle(outlineColor)
				p := f.toScreen(verts[j])
				dot.Resize(fyne.NewSize(4, 4))
				dot.Move(fyne.NewPos(p.X-2, p.Y-2))
				r.objects = append(r.objects, dot)
			}
		}

		if f.scale*float32(sq.Side) > 18 {
			label := canvas.NewText(fmt.Sprintf("%d", i+1), outlineColor)
			label.TextSize = 10
			c := f.toScreen(sq.Center)
			label.Move(fyne.NewPos(c.X-4, c.Y-7))
			r.objects = append(r.objects, label)
		}
	}
}

// pixel colors one raster pixel by the squares covering its centre.
func (r *packingCanvasRenderer) pixel(x, y, w, h int) color.Color {
	if w <= 0 || h <= 0 {
		return color.Transparent
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := geometry.Point{
		X: (float64(x) + 0.5) / float64(w) * r.boxSide,
		Y: (1 - (float64(y)+0.5)/float64(h)) * r.boxSide,
	}
	return coverColor(p, r.squares)
}

func coverColor(p geometry.Point, squares []geometry.Square) color.Color {
	hit := -1
	for i, sq := range squares {
		if !geometry.PointInSquare(p, sq) {
			continue
		}
		if hit >= 0 {
			return overlapColor
		}
		hit = i
	}
	if hit < 0 {
		return color.Transparent
	}
	return squareColors[hit%len(squareColors)]
}

func (r *packingCanvasRenderer) Layout(size fyne.Size)        { r.rebuild(size) }
func (r *packingCanvasRenderer) Refresh()                     { r.rebuild(r.pc.Size()) }
func (r *packingCanvasRenderer) Destroy()                     {}
func (r *packingCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *packingCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(240, 240)
}
