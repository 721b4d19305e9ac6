package utils

import (
	"cmp"
	"math"
	"slices"
)

// RotatedRect is a minimum-area enclosing rectangle. Corners run around the
// rectangle; Width is the length of edge c0-c1, Height of edge c1-c2.
type RotatedRect struct {
	Corners Quad
	Width   float64
	Height  float64
}

// LongSide returns the longer of the two side lengths.
func (r RotatedRect) LongSide() float64 { return math.Max(r.Width, r.Height) }

// ShortSide returns the shorter of the two side lengths.
func (r RotatedRect) ShortSide() float64 { return math.Min(r.Width, r.Height) }

// PolygonArea returns the absolute enclosed area of a closed polygon using
// the shoelace formula. Fewer than three points enclose no area.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) * 0.5
}

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull in CCW order without
// duplicating the first point at the end.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n <= 1 {
		return append([]Point(nil), pts...)
	}
	p := make([]Point, n)
	copy(p, pts)
	sortPoints(p)
	p = removeDuplicatePoints(p)
	if len(p) <= 1 {
		return p
	}
	lower := buildHalfHull(p, false)
	upper := buildHalfHull(p, true)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func removeDuplicatePoints(p []Point) []Point {
	q := p[:1]
	for _, pt := range p[1:] {
		last := q[len(q)-1]
		if pt.X != last.X || pt.Y != last.Y {
			q = append(q, pt)
		}
	}
	return q
}

func buildHalfHull(p []Point, reverse bool) []Point {
	half := make([]Point, 0, len(p))
	for i := range p {
		pt := p[i]
		if reverse {
			pt = p[len(p)-1-i]
		}
		for len(half) >= 2 && cross(half[len(half)-2], half[len(half)-1], pt) <= 0 {
			half = half[:len(half)-1]
		}
		half = append(half, pt)
	}
	return half
}

func sortPoints(p []Point) {
	slices.SortFunc(p, func(a, b Point) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Y, b.Y)
	})
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// MinimumAreaRectangle computes the minimum-area enclosing rectangle using a
// rotating calipers approach over the convex hull. A single point yields a
// zero-size rectangle and collinear input a zero-height one.
func MinimumAreaRectangle(pts []Point) (RotatedRect, bool) {
	hull := ConvexHull(pts)
	switch len(hull) {
	case 0:
		return RotatedRect{}, false
	case 1:
		p := hull[0]
		return RotatedRect{Corners: Quad{p, p, p, p}}, true
	case 2:
		a, b := hull[0], hull[1]
		return RotatedRect{Corners: Quad{a, b, b, a}, Width: Distance(a, b)}, true
	}
	return findMinimumAreaRectangle(hull), true
}

func findMinimumAreaRectangle(hull []Point) RotatedRect {
	bestArea := math.Inf(1)
	var bestU, bestV Point
	var bestMinS, bestMaxS, bestMinT, bestMaxT float64
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		dx := b.X - a.X
		dy := b.Y - a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		ux, uy := dx/l, dy/l
		vx, vy := -uy, ux
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			minS, maxS = math.Min(minS, s), math.Max(maxS, s)
			minT, maxT = math.Min(minT, t), math.Max(maxT, t)
		}
		area := (maxS - minS) * (maxT - minT)
		if area < bestArea {
			bestArea = area
			bestU = Point{ux, uy}
			bestV = Point{vx, vy}
			bestMinS, bestMaxS, bestMinT, bestMaxT = minS, maxS, minT, maxT
		}
	}
	at := func(s, t float64) Point {
		return Point{X: bestU.X*s + bestV.X*t, Y: bestU.Y*s + bestV.Y*t}
	}
	return RotatedRect{
		Corners: Quad{
			at(bestMinS, bestMinT),
			at(bestMaxS, bestMinT),
			at(bestMaxS, bestMaxT),
			at(bestMinS, bestMaxT),
		},
		Width:  bestMaxS - bestMinS,
		Height: bestMaxT - bestMinT,
	}
}
