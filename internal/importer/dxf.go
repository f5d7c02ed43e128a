package importer

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// squareTolerance is the relative error allowed between the sides and
// diagonals of a shape before it is rejected as not square.
const squareTolerance = 1e-3

// segment represents a line segment between two 2D points, used for
// chaining disconnected LINE entities into closed outlines.
type segment struct {
	start geometry.Point
	end   geometry.Point
}

// ImportDXF reads a seed layout from a DXF file. Every closed four-vertex
// LWPOLYLINE, or chain of four connected LINEs, that forms a square becomes
// one square of the layout. Shapes on the container layer are ignored.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines [][]geometry.Point
	var segments []segment

	for _, ent := range entities {
		if layer := ent.Layer(); layer != nil && layer.Name() == model.LayerContainer {
			continue
		}
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outlines = append(outlines, lwPolylinePoints(e))

		case *entity.Line:
			segments = append(segments, segment{
				start: geometry.Point{X: e.Start[0], Y: e.Start[1]},
				end:   geometry.Point{X: e.End[0], Y: e.End[1]},
			})

		case *entity.Circle, *entity.Arc:
			result.Warnings = append(result.Warnings, "Skipped curved entity")

		default:
			// Unsupported entity types are silently skipped
		}
	}

	outlines = append(outlines, chainSegments(segments, 0.01)...)

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	for i, outline := range outlines {
		sq, ok := outlineToSquare(outline)
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped shape %d: not a square (%d vertices)", i+1, len(outline)))
			continue
		}
		result.Squares = append(result.Squares, sq)
	}

	if len(result.Squares) == 0 {
		result.Errors = append(result.Errors, "No squares found in DXF file")
	}
	return result
}

// lwPolylinePoints returns the vertices of a DXF LWPOLYLINE, dropping a
// repeated closing vertex. Bulges are ignored: a square has straight edges.
func lwPolylinePoints(lw *entity.LwPolyline) []geometry.Point {
	pts := make([]geometry.Point, 0, len(lw.Vertices))
	for _, v := range lw.Vertices {
		if len(v) < 2 {
			continue
		}
		pts = append(pts, geometry.Point{X: v[0], Y: v[1]})
	}
	if len(pts) > 1 && pointsClose(pts[0], pts[len(pts)-1], geometry.Epsilon) {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// outlineToSquare recovers centre, rotation and side from four corners
// listed in boundary order.
func outlineToSquare(pts []geometry.Point) (geometry.Square, bool) {
	if len(pts) != 4 {
		return geometry.Square{}, false
	}

	edge := pts[1].Sub(pts[0])
	side := math.Hypot(edge.X, edge.Y)
	if side < 0.01 {
		return geometry.Square{}, false
	}
	for i := 0; i < 4; i++ {
		e := pts[(i+1)%4].Sub(pts[i])
		if math.Abs(math.Hypot(e.X, e.Y)-side) > squareTolerance*side {
			return geometry.Square{}, false
		}
	}
	for i := 0; i < 2; i++ {
		d := pts[i+2].Sub(pts[i])
		if math.Abs(math.Hypot(d.X, d.Y)-side*math.Sqrt2) > squareTolerance*side {
			return geometry.Square{}, false
		}
	}

	var center geometry.Point
	for _, p := range pts {
		center = center.Add(p)
	}
	center.X /= 4
	center.Y /= 4

	theta := math.Mod(math.Atan2(edge.Y, edge.X), math.Pi/2)
	if theta < 0 {
		theta += math.Pi / 2
	}
	return geometry.Square{Center: center, Theta: theta, Side: side}, true
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
func chainSegments(segs []segment, tolerance float64) [][]geometry.Point {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines [][]geometry.Point

	for start := range segs {
		if used[start] {
			continue
		}
		chain := []geometry.Point{segs[start].start, segs[start].end}
		used[start] = true

		// Try to extend the chain
		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		// Only closed chains describe a shape
		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b geometry.Point, tolerance float64) bool {
	d := a.Sub(b)
	return math.Hypot(d.X, d.Y) <= tolerance
}
