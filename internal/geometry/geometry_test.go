package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerticesUnrotated(t *testing.T) {
	sq := NewSquare(0.5, 0.5, 0, 1)
	v := sq.Vertices()

	assert.Equal(t, Point{0, 0}, v[0])
	assert.Equal(t, Point{1, 0}, v[1])
	assert.Equal(t, Point{1, 1}, v[2])
	assert.Equal(t, Point{0, 1}, v[3])
}

func TestVerticesQuarterTurnMatchesUnrotated(t *testing.T) {
	a := NewSquare(2, 3, 0, 2).Vertices()
	b := NewSquare(2, 3, math.Pi/2, 2).Vertices()

	// A quarter turn shifts the vertex list by one position.
	for i := 0; i < 4; i++ {
		assert.InDelta(t, a[(i+1)%4].X, b[i].X, 1e-12)
		assert.InDelta(t, a[(i+1)%4].Y, b[i].Y, 1e-12)
	}
}

func TestVerticesDiamond(t *testing.T) {
	v := NewSquare(0, 0, math.Pi/4, math.Sqrt2).Vertices()
	assert.InDelta(t, 0.0, v[0].X, 1e-12)
	assert.InDelta(t, -1.0, v[0].Y, 1e-12)
	assert.InDelta(t, 1.0, v[1].X, 1e-12)
	assert.InDelta(t, 0.0, v[1].Y, 1e-12)
}

func TestPointInSquare(t *testing.T) {
	sq := NewSquare(0.5, 0.5, 0, 1)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"centre", Point{0.5, 0.5}, true},
		{"corner", Point{1, 1}, true},
		{"edge", Point{1, 0.3}, true},
		{"just inside tolerance", Point{1 + Epsilon/2, 0.5}, true},
		{"outside", Point{1.01, 0.5}, false},
		{"far away", Point{-3, 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInSquare(tt.p, sq))
		})
	}
}

func TestPointInRotatedSquare(t *testing.T) {
	diamond := NewSquare(0, 0, math.Pi/4, math.Sqrt2)

	assert.True(t, PointInSquare(Point{0.9, 0}, diamond))
	assert.False(t, PointInSquare(Point{0.6, 0.6}, diamond), "outside the diamond but inside its bounding box")
}

func TestSegmentIntersectCrossing(t *testing.T) {
	p, ok := SegmentIntersect(Point{0, 0}, Point{2, 2}, Point{0, 2}, Point{2, 0})
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.X, 1e-12)
	assert.InDelta(t, 1.0, p.Y, 1e-12)
}

func TestSegmentIntersectParallelIsNoIntersection(t *testing.T) {
	_, ok := SegmentIntersect(Point{0, 0}, Point{1, 0}, Point{0, 1}, Point{1, 1})
	assert.False(t, ok)

	// Collinear overlap is degenerate too.
	_, ok = SegmentIntersect(Point{0, 0}, Point{2, 0}, Point{1, 0}, Point{3, 0})
	assert.False(t, ok)
}

func TestSegmentIntersectOutsideSegments(t *testing.T) {
	// The infinite lines meet at (3, 3), beyond both segments.
	_, ok := SegmentIntersect(Point{0, 0}, Point{1, 1}, Point{6, 0}, Point{5, 1})
	assert.False(t, ok)
}

func TestSegmentIntersectAtEndpoint(t *testing.T) {
	p, ok := SegmentIntersect(Point{0, 0}, Point{1, 0}, Point{1, 0}, Point{1, 1})
	require.True(t, ok)
	assert.Equal(t, Point{1, 0}, p)
}

func TestPolygonAreaFewerThanThreePoints(t *testing.T) {
	assert.Equal(t, 0.0, PolygonArea(nil))
	assert.Equal(t, 0.0, PolygonArea([]Point{{0, 0}, {1, 1}}))
}

func TestPolygonAreaUnorderedInput(t *testing.T) {
	pts := []Point{{1, 1}, {0, 0}, {0, 1}, {1, 0}}
	assert.InDelta(t, 1.0, PolygonArea(pts), 1e-12)

	tri := []Point{{0, 0}, {4, 0}, {0, 3}}
	assert.InDelta(t, 6.0, PolygonArea(tri), 1e-12)
}

func TestContains(t *testing.T) {
	box := Container(5)
	assert.True(t, Contains(NewSquare(0.5, 0.5, 0, 1), box), "touching the walls counts as inside")
	assert.True(t, Contains(NewSquare(2.5, 2.5, math.Pi/4, 1), box))
	assert.False(t, Contains(NewSquare(0.2, 2.5, 0, 1), box))
	assert.False(t, Contains(box, NewSquare(2.5, 2.5, 0, 1)))
}

func TestOverlapAreaFixtures(t *testing.T) {
	a := NewSquare(0.5, 0.5, 0, 1)

	tests := []struct {
		name string
		b    Square
		want float64
	}{
		{"identical", NewSquare(0.5, 0.5, 0, 1), 1.0},
		{"disjoint", NewSquare(2.0, 2.0, 0, 1), 0.0},
		{"half overlap", NewSquare(1.0, 0.5, 0, 1), 0.5},
		{"quarter overlap", NewSquare(1.0, 1.0, 0, 1), 0.25},
		{"shared edge", NewSquare(1.5, 0.5, 0, 1), 0.0},
		{"shared corner", NewSquare(1.5, 1.5, 0, 1), 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, OverlapArea(a, tt.b), 1e-9)
		})
	}
}

func TestOverlapAreaRotatedAgainstAxisAligned(t *testing.T) {
	// A unit square rotated 45 degrees about the same centre as an
	// axis-aligned unit square covers a regular octagon.
	a := NewSquare(0, 0, 0, 1)
	b := NewSquare(0, 0, math.Pi/4, 1)
	want := 2 * (math.Sqrt2 - 1)
	assert.InDelta(t, want, OverlapArea(a, b), 1e-9)
}

func TestOverlapAreaSymmetric(t *testing.T) {
	squares := []Square{
		NewSquare(0.5, 0.5, 0, 1),
		NewSquare(0.9, 0.7, 0.3, 1),
		NewSquare(1.2, 0.4, 1.1, 1),
		NewSquare(0.6, 1.1, 2.5, 1),
		NewSquare(3, 3, 0.7, 1),
		NewSquare(1.0, 1.0, math.Pi/4, 2),
	}
	for i := range squares {
		for j := range squares {
			ab := OverlapArea(squares[i], squares[j])
			ba := OverlapArea(squares[j], squares[i])
			assert.InDelta(t, ab, ba, 1e-9, "pair %d,%d", i, j)
		}
	}
}

func TestOverlapAreaSelfIsFullArea(t *testing.T) {
	for _, sq := range []Square{
		NewSquare(0, 0, 0, 1),
		NewSquare(4.2, -1, 0.77, 1),
		NewSquare(1, 2, 3*math.Pi/2, 2.5),
	} {
		assert.InDelta(t, sq.Area(), OverlapArea(sq, sq), 1e-9)
	}
}

func TestOverlapAreaContainedUsesInnerArea(t *testing.T) {
	outer := NewSquare(2, 2, 0.4, 3)
	inner := NewSquare(2.1, 1.9, 1.3, 1)
	require.True(t, Contains(inner, outer))

	assert.Equal(t, inner.Area(), OverlapArea(outer, inner))
	assert.Equal(t, inner.Area(), OverlapArea(inner, outer))
}

func TestOverlapAreaNeverExceedsSmallerSquare(t *testing.T) {
	a := NewSquare(1, 1, 0.2, 1)
	for theta := 0.0; theta < 2*math.Pi; theta += 0.37 {
		for dx := -1.2; dx <= 1.2; dx += 0.3 {
			b := NewSquare(1+dx, 1+dx/2, theta, 1)
			area := OverlapArea(a, b)
			assert.GreaterOrEqual(t, area, 0.0)
			assert.LessOrEqual(t, area, 1.0+1e-9)
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 5))
	assert.Equal(t, 5.0, Clamp(7, 0, 5))
	assert.Equal(t, 2.5, Clamp(2.5, 0, 5))
}
