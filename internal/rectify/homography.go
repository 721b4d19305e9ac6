package rectify

import (
	"math"

	"github.com/MeKo-Tech/placa/internal/utils"
)

// pivotTolerance is the smallest usable pivot relative to the largest
// coefficient of the system.
const pivotTolerance = 1e-12

// Transform is a row-major 3x3 perspective matrix.
type Transform [9]float64

// Apply maps (x, y). A point on the line at infinity maps to NaN.
func (t Transform) Apply(x, y float64) (float64, float64) {
	denom := t[6]*x + t[7]*y + t[8]
	if denom == 0 {
		return math.NaN(), math.NaN()
	}
	return (t[0]*x + t[1]*y + t[2]) / denom, (t[3]*x + t[4]*y + t[5]) / denom
}

// ApplyPoint maps p.
func (t Transform) ApplyPoint(p utils.Point) utils.Point {
	x, y := t.Apply(p.X, p.Y)
	return utils.Pt(x, y)
}

func (t Transform) isFinite() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// computeHomography computes the matrix mapping p[i] -> q[i] with h22 = 1.
// It reports false when the correspondences do not determine a transform.
func computeHomography(p, q [4]utils.Point) (Transform, bool) {
	var a [8][8]float64
	var b [8]float64
	for i := range 4 {
		sx, sy := p[i].X, p[i].Y
		dx, dy := q[i].X, q[i].Y
		r := 2 * i
		// dx = (h0 sx + h1 sy + h2) / (h6 sx + h7 sy + 1)
		a[r] = [8]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx}
		b[r] = dx
		// dy = (h3 sx + h4 sy + h5) / (h6 sx + h7 sy + 1)
		a[r+1] = [8]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy}
		b[r+1] = dy
	}

	h, ok := solve8x8(a, b)
	if !ok {
		return Transform{}, false
	}
	t := Transform{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}
	return t, t.isFinite()
}

// solve8x8 runs Gauss-Jordan elimination with partial pivoting.
func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	scale := 0.0
	for r := range 8 {
		for c := range 8 {
			scale = math.Max(scale, math.Abs(a[r][c]))
		}
	}
	minPivot := scale * pivotTolerance
	for col := range 8 {
		pivot := findPivotRow(&a, col, minPivot)
		if pivot < 0 {
			return [8]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		div := a[col][col]
		for c := col; c < 8; c++ {
			a[col][c] /= div
		}
		b[col] /= div

		for r := range 8 {
			if r == col || a[r][col] == 0 {
				continue
			}
			f := a[r][col]
			for c := col; c < 8; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}
	return b, true
}

func findPivotRow(a *[8][8]float64, col int, minPivot float64) int {
	best, bestAbs := -1, minPivot
	for r := col; r < 8; r++ {
		if v := math.Abs(a[r][col]); v > bestAbs {
			best, bestAbs = r, v
		}
	}
	return best
}

// collinearCorners reports whether any three corners of q are (nearly) on
// one line, in which case no invertible homography involves q.
func collinearCorners(q [4]utils.Point) bool {
	scale := 0.0
	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			scale = math.Max(scale, utils.Distance(q[i], q[j]))
		}
	}
	if scale == 0 {
		return true
	}
	tol := scale * scale * 1e-9
	for skip := range 4 {
		var tri []utils.Point
		for i := range 4 {
			if i != skip {
				tri = append(tri, q[i])
			}
		}
		area := (tri[1].X-tri[0].X)*(tri[2].Y-tri[0].Y) - (tri[1].Y-tri[0].Y)*(tri[2].X-tri[0].X)
		if math.Abs(area) <= tol {
			return true
		}
	}
	return false
}
