package importer

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

func saveDrawing(t *testing.T, d *drawing.Drawing) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.dxf")
	require.NoError(t, d.SaveAs(path))
	return path
}

func TestImportDXF_PolylinesAndLines(t *testing.T) {
	d := dxf.NewDrawing()
	_, err := d.AddLayer(model.LayerContainer, dxf.DefaultColor, dxf.DefaultLineType, true)
	require.NoError(t, err)
	_, err = d.LwPolyline(true, []float64{0, 0}, []float64{5, 0}, []float64{5, 5}, []float64{0, 5})
	require.NoError(t, err)

	_, err = d.AddLayer(model.LayerSquares, dxf.DefaultColor, dxf.DefaultLineType, true)
	require.NoError(t, err)
	_, err = d.LwPolyline(true, []float64{1, 1}, []float64{2, 1}, []float64{2, 2}, []float64{1, 2})
	require.NoError(t, err)

	// A diamond drawn as four separate lines
	corners := [][2]float64{{4, 3}, {4.5, 3.5}, {4, 4}, {3.5, 3.5}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		_, err = d.Line(a[0], a[1], 0, b[0], b[1], 0)
		require.NoError(t, err)
	}

	result := ImportDXF(saveDrawing(t, d))

	require.Empty(t, result.Errors)
	require.Len(t, result.Squares, 2)

	sq := result.Squares[0]
	assert.InDelta(t, 1.5, sq.Center.X, 1e-6)
	assert.InDelta(t, 1.5, sq.Center.Y, 1e-6)
	assert.InDelta(t, 1.0, sq.Side, 1e-6)
	assert.InDelta(t, 0.0, sq.Theta, 1e-6)

	diamond := result.Squares[1]
	assert.InDelta(t, 4.0, diamond.Center.X, 1e-6)
	assert.InDelta(t, 3.5, diamond.Center.Y, 1e-6)
	assert.InDelta(t, math.Sqrt2/2, diamond.Side, 1e-6)
	assert.InDelta(t, math.Pi/4, diamond.Theta, 1e-6)
}

func TestImportDXF_SkipsNonSquares(t *testing.T) {
	d := dxf.NewDrawing()
	_, err := d.LwPolyline(true, []float64{0, 0}, []float64{3, 0}, []float64{3, 1}, []float64{0, 1})
	require.NoError(t, err)
	_, err = d.LwPolyline(true, []float64{0, 0}, []float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)

	result := ImportDXF(saveDrawing(t, d))

	assert.Empty(t, result.Squares)
	assert.Len(t, result.Warnings, 2)
	assert.NotEmpty(t, result.Errors)
}

func TestImportDXF_FileNotFound(t *testing.T) {
	result := ImportDXF(filepath.Join(t.TempDir(), "nope.dxf"))
	assert.NotEmpty(t, result.Errors)
}

func TestOutlineToSquare(t *testing.T) {
	want := geometry.NewSquare(2, 3, 0.4, 1.5)
	v := want.Vertices()

	got, ok := outlineToSquare(v[:])

	require.True(t, ok)
	assert.InDelta(t, want.Center.X, got.Center.X, 1e-9)
	assert.InDelta(t, want.Center.Y, got.Center.Y, 1e-9)
	assert.InDelta(t, want.Side, got.Side, 1e-9)
	assert.InDelta(t, want.Theta, got.Theta, 1e-9)
}

func TestChainSegmentsIgnoresOpenChains(t *testing.T) {
	segs := []segment{
		{start: geometry.Point{X: 0, Y: 0}, end: geometry.Point{X: 1, Y: 0}},
		{start: geometry.Point{X: 1, Y: 0}, end: geometry.Point{X: 1, Y: 1}},
	}
	assert.Empty(t, chainSegments(segs, 0.01))
}
