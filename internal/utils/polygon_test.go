package utils

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want float64
	}{
		{"empty", nil, 0},
		{"segment", []Point{{0, 0}, {5, 5}}, 0},
		{"unit square", []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 1},
		{"clockwise rectangle", []Point{{0, 0}, {0, 3}, {4, 3}, {4, 0}}, 12},
		{"triangle", []Point{{0, 0}, {4, 0}, {0, 3}}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PolygonArea(tt.pts), 1e-9)
		})
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Point{{0, 0}, {2, 0}, {1, 1}, {2, 2}, {0, 2}, {1, 0}, {0, 0}}
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 4.0, PolygonArea(hull), 1e-9)
	for _, p := range hull {
		assert.NotEqual(t, Point{1, 1}, p, "interior point must not be on the hull")
	}
}

// A jagged blob outline with thousands of points still yields the hull of
// its extreme corners.
func TestConvexHullLargeJaggedContour(t *testing.T) {
	var pts []Point
	for i := range 4000 {
		x := float64(i % 200)
		y := float64((i * 37) % 100)
		pts = append(pts, Point{x, y})
	}
	pts = append(pts, Point{-1, -1}, Point{201, -1}, Point{201, 101}, Point{-1, 101})
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 202.0*102.0, PolygonArea(hull), 1e-9)
}

func TestSortPointsOrdersByXThenY(t *testing.T) {
	p := []Point{{2, 1}, {0, 5}, {2, 0}, {1, 1}, {0, 2}}
	sortPoints(p)
	assert.Equal(t, []Point{{0, 2}, {0, 5}, {1, 1}, {2, 0}, {2, 1}}, p)
}

func TestMinimumAreaRectangle_Degenerate(t *testing.T) {
	_, ok := MinimumAreaRectangle(nil)
	assert.False(t, ok)

	r, ok := MinimumAreaRectangle([]Point{{3, 4}})
	require.True(t, ok)
	assert.Equal(t, 0.0, r.Width)
	assert.Equal(t, 0.0, r.Height)

	r, ok = MinimumAreaRectangle([]Point{{0, 0}, {10, 0}, {5, 0}})
	require.True(t, ok)
	assert.InDelta(t, 10.0, r.LongSide(), 1e-9)
	assert.InDelta(t, 0.0, r.ShortSide(), 1e-9)
}

func TestMinimumAreaRectangle_AxisAligned(t *testing.T) {
	pts := []Point{{10, 20}, {50, 20}, {50, 35}, {10, 35}, {30, 20}, {30, 30}}
	r, ok := MinimumAreaRectangle(pts)
	require.True(t, ok)
	assert.InDelta(t, 40.0, r.LongSide(), 1e-9)
	assert.InDelta(t, 15.0, r.ShortSide(), 1e-9)
	box := BoundingBox(r.Corners.Points())
	assert.InDelta(t, 10.0, box.MinX, 1e-9)
	assert.InDelta(t, 35.0, box.MaxY, 1e-9)
}

func TestMinimumAreaRectangle_RotatedProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("recovers side lengths of a rotated rectangle", prop.ForAll(
		func(w, h int, deg float64) bool {
			theta := deg * math.Pi / 180
			c, s := math.Cos(theta), math.Sin(theta)
			rot := func(x, y float64) Point {
				return Point{X: 200 + x*c - y*s, Y: 200 + x*s + y*c}
			}
			fw, fh := float64(w), float64(h)
			pts := []Point{rot(0, 0), rot(fw, 0), rot(fw, fh), rot(0, fh), rot(fw/2, fh/2)}
			r, ok := MinimumAreaRectangle(pts)
			if !ok {
				return false
			}
			return math.Abs(r.LongSide()-math.Max(fw, fh)) < 1e-6 &&
				math.Abs(r.ShortSide()-math.Min(fw, fh)) < 1e-6
		},
		gen.IntRange(2, 120),
		gen.IntRange(2, 120),
		gen.Float64Range(0, 179),
	))

	properties.TestingRun(t)
}
