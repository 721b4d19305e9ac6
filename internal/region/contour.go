package region

import (
	"image"

	"github.com/MeKo-Tech/placa/internal/utils"
)

// Contour is the ordered outer boundary of one component in pixel
// coordinates. Runs of collinear boundary pixels keep only their endpoints.
type Contour []image.Point

// Area returns the enclosed area by the shoelace formula over pixel centers.
func (c Contour) Area() float64 {
	return utils.PolygonArea(c.Points())
}

// Points converts the contour to float points.
func (c Contour) Points() []utils.Point {
	pts := make([]utils.Point, len(c))
	for i, p := range c {
		pts[i] = utils.FromImagePoint(p)
	}
	return pts
}

// traceContourMoore walks the outer boundary of the labeled component with
// Moore-neighbor tracing, starting at its first raster pixel with the
// backtrack to the west. Tracing stops once the start pixel is about to be
// left through the same first move again.
func traceContourMoore(labels []int, w, h int, st compStats) Contour {
	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == st.label
	}

	sx, sy := st.startX, st.startY
	if !isLabel(sx, sy) {
		return nil
	}
	pts := make(Contour, 0, 64)
	pts = addPoint(pts, image.Pt(sx, sy))

	cx, cy := sx, sy
	bx, by := sx-1, sy
	var firstX, firstY int
	maxSteps := 4*st.count + 8
	for step := range maxSteps {
		nx, ny, nbx, nby, found := nextBoundaryPixel(isLabel, cx, cy, bx, by)
		if !found {
			break // isolated pixel
		}
		if step == 0 {
			firstX, firstY = nx, ny
		} else if cx == sx && cy == sy && nx == firstX && ny == firstY {
			break
		}
		cx, cy, bx, by = nx, ny, nbx, nby
		if last := pts[len(pts)-1]; last.X != cx || last.Y != cy {
			pts = addPoint(pts, image.Pt(cx, cy))
		}
	}
	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return closeCollinear(pts)
}

// addPoint appends p, dropping the previous point when it lies strictly
// between its neighbors on a straight run.
func addPoint(pts Contour, p image.Point) Contour {
	if n := len(pts); n >= 2 && straightThrough(pts[n-2], pts[n-1], p) {
		pts = pts[:n-1]
	}
	return append(pts, p)
}

func straightThrough(a, b, c image.Point) bool {
	v1x, v1y := b.X-a.X, b.Y-a.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y
	return v1x*v2y-v1y*v2x == 0 && v1x*v2x+v1y*v2y > 0
}

// closeCollinear drops the wrap-around points made redundant once the
// contour is closed.
func closeCollinear(pts Contour) Contour {
	for len(pts) >= 3 {
		n := len(pts)
		switch {
		case straightThrough(pts[n-2], pts[n-1], pts[0]):
			pts = pts[:n-1]
		case straightThrough(pts[n-1], pts[0], pts[1]):
			pts = pts[1:]
		default:
			return pts
		}
	}
	return pts
}

// nextBoundaryPixel scans the 8-neighborhood of (cx, cy) clockwise starting
// just after the backtrack pixel.
func nextBoundaryPixel(isLabel func(x, y int) bool, cx, cy, bx, by int) (int, int, int, int, bool) {
	start := 0
	for i, d := range neighbors8 {
		if d[0] == bx-cx && d[1] == by-cy {
			start = (i + 1) % 8
			break
		}
	}
	px, py := bx, by
	for k := range 8 {
		d := neighbors8[(start+k)%8]
		tx, ty := cx+d[0], cy+d[1]
		if isLabel(tx, ty) {
			return tx, ty, px, py, true
		}
		px, py = tx, ty
	}
	return 0, 0, bx, by, false
}
