// Package geometry implements the overlap kernel for arbitrarily rotated
// squares: vertex generation, point containment, segment intersection and
// the area of the polygon shared by two squares.
package geometry

import (
	"math"
	"sort"
)

// Epsilon is the tolerance used for every floating point comparison in the
// kernel. Values closer than Epsilon are treated as equal.
const Epsilon = 1e-9

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Square is a square of side Side centred on Center and rotated by Theta
// radians counter-clockwise.
type Square struct {
	Center Point   `json:"center"`
	Theta  float64 `json:"theta"`
	Side   float64 `json:"side"`
}

// NewSquare builds a square from its centre coordinates, rotation and side.
func NewSquare(x, y, theta, side float64) Square {
	return Square{Center: Point{X: x, Y: y}, Theta: theta, Side: side}
}

// Container returns the axis-aligned square of side l whose lower-left
// corner sits at the origin.
func Container(l float64) Square {
	return Square{Center: Point{X: l / 2, Y: l / 2}, Side: l}
}

// Area returns the area of the square.
func (s Square) Area() float64 { return s.Side * s.Side }

// Vertices returns the four corners of the square in counter-clockwise order,
// starting from the corner that is lower-left before rotation.
func (s Square) Vertices() [4]Point {
	h := s.Side / 2
	sin, cos := math.Sincos(s.Theta)
	corners := [4]Point{{-h, -h}, {h, -h}, {h, h}, {-h, h}}

	var out [4]Point
	for i, c := range corners {
		x := clean(c.X*cos - c.Y*sin)
		y := clean(c.X*sin + c.Y*cos)
		out[i] = Point{X: s.Center.X + x, Y: s.Center.Y + y}
	}
	return out
}

// clean snaps near-zero values to exactly zero.
func clean(v float64) float64 {
	if math.Abs(v) < Epsilon {
		return 0
	}
	return v
}

// PointInSquare reports whether p lies inside sq or on its boundary.
func PointInSquare(p Point, sq Square) bool {
	dx := p.X - sq.Center.X
	dy := p.Y - sq.Center.Y
	sin, cos := math.Sincos(-sq.Theta)
	localX := dx*cos - dy*sin
	localY := dx*sin + dy*cos
	h := sq.Side / 2
	return math.Abs(localX) <= h+Epsilon && math.Abs(localY) <= h+Epsilon
}

// SegmentIntersect returns the intersection point of segments p1-p2 and
// q1-q2. Parallel or degenerate segments never intersect.
func SegmentIntersect(p1, p2, q1, q2 Point) (Point, bool) {
	a1 := p2.Y - p1.Y
	b1 := p1.X - p2.X
	c1 := a1*p1.X + b1*p1.Y

	a2 := q2.Y - q1.Y
	b2 := q1.X - q2.X
	c2 := a2*q1.X + b2*q1.Y

	det := a1*b2 - a2*b1
	if math.Abs(det) < Epsilon {
		return Point{}, false
	}

	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det

	if between(p1.X, p2.X, x) && between(p1.Y, p2.Y, y) &&
		between(q1.X, q2.X, x) && between(q1.Y, q2.Y, y) {
		return Point{X: clean(x), Y: clean(y)}, true
	}
	return Point{}, false
}

func between(a, b, v float64) bool {
	return math.Min(a, b)-Epsilon <= v && v <= math.Max(a, b)+Epsilon
}

// OverlapPolygon collects the vertices of the region shared by a and b: every
// edge/edge intersection plus the corners of each square lying inside the
// other. Points closer than Epsilon are merged; order is unspecified.
func OverlapPolygon(a, b Square) []Point {
	va := a.Vertices()
	vb := b.Vertices()

	points := make([]Point, 0, 16)
	for i := 0; i < 4; i++ {
		p1, p2 := va[i], va[(i+1)%4]
		for j := 0; j < 4; j++ {
			q1, q2 := vb[j], vb[(j+1)%4]
			if pt, ok := SegmentIntersect(p1, p2, q1, q2); ok {
				points = appendUnique(points, pt)
			}
		}
	}
	for _, v := range va {
		if PointInSquare(v, b) {
			points = appendUnique(points, v)
		}
	}
	for _, v := range vb {
		if PointInSquare(v, a) {
			points = appendUnique(points, v)
		}
	}
	return points
}

func appendUnique(points []Point, p Point) []Point {
	for _, q := range points {
		if math.Abs(q.X-p.X) < Epsilon && math.Abs(q.Y-p.Y) < Epsilon {
			return points
		}
	}
	return append(points, p)
}

// PolygonArea returns the area of the convex polygon spanned by points.
// Fewer than three points enclose no area. The input slice is reordered in
// place by angle around its centroid.
func PolygonArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	var centroid Point
	for _, p := range points {
		centroid.X += p.X
		centroid.Y += p.Y
	}
	centroid.X /= float64(n)
	centroid.Y /= float64(n)

	sort.SliceStable(points, func(i, j int) bool {
		ai := math.Atan2(points[i].Y-centroid.Y, points[i].X-centroid.X)
		aj := math.Atan2(points[j].Y-centroid.Y, points[j].X-centroid.X)
		return ai < aj
	})

	sum := 0.0
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return clean(math.Abs(sum / 2))
}

// Contains reports whether every vertex of inner lies inside outer.
func Contains(inner, outer Square) bool {
	for _, v := range inner.Vertices() {
		if !PointInSquare(v, outer) {
			return false
		}
	}
	return true
}

// OverlapArea returns the area shared by a and b. When one square contains
// the other the contained area is returned without building the polygon.
func OverlapArea(a, b Square) float64 {
	if Contains(b, a) {
		return b.Area()
	}
	if Contains(a, b) {
		return a.Area()
	}
	return PolygonArea(OverlapPolygon(a, b))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
