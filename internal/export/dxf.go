package export

import (
	"fmt"

	"github.com/yofu/dxf"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// ExportDXF writes the container and every square as closed LWPOLYLINEs on
// separate layers, in packing units. The file can be read back as a seed
// layout.
func ExportDXF(path string, boxSide float64, squares []geometry.Square) error {
	if len(squares) == 0 {
		return fmt.Errorf("no squares to export")
	}

	d := dxf.NewDrawing()

	if _, err := d.AddLayer(model.LayerContainer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add container layer: %w", err)
	}
	box := geometry.Container(boxSide)
	if _, err := d.LwPolyline(true, polylineVertices(box)...); err != nil {
		return fmt.Errorf("failed to draw container: %w", err)
	}

	if _, err := d.AddLayer(model.LayerSquares, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add squares layer: %w", err)
	}
	for i, sq := range squares {
		if _, err := d.LwPolyline(true, polylineVertices(sq)...); err != nil {
			return fmt.Errorf("failed to draw square %d: %w", i+1, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

func polylineVertices(sq geometry.Square) [][]float64 {
	verts := sq.Vertices()
	out := make([][]float64, len(verts))
	for i, v := range verts {
		out[i] = []float64{v.X, v.Y}
	}
	return out
}
