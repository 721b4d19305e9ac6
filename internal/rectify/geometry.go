package rectify

import (
	"math"
	"sort"

	"github.com/MeKo-Tech/placa/internal/utils"
)

// OrderedQuad is a quadrilateral with labeled corners.
type OrderedQuad struct {
	TopLeft     utils.Point `json:"top_left"`
	TopRight    utils.Point `json:"top_right"`
	BottomRight utils.Point `json:"bottom_right"`
	BottomLeft  utils.Point `json:"bottom_left"`
}

// Quad returns the corners in TL, TR, BR, BL order.
func (o OrderedQuad) Quad() utils.Quad {
	return utils.Quad{o.TopLeft, o.TopRight, o.BottomRight, o.BottomLeft}
}

// OrderPoints labels the corners: the two smallest x form the left pair,
// the two largest the right pair, and each pair is split by y. Ties are
// broken on the other coordinate so every permutation of the input yields
// the same result.
func OrderPoints(q utils.Quad) OrderedQuad {
	pts := q
	sort.Slice(pts[:], func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	left := [2]utils.Point{pts[0], pts[1]}
	right := [2]utils.Point{pts[2], pts[3]}
	byY := func(pair *[2]utils.Point) {
		a, b := pair[0], pair[1]
		if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
			pair[0], pair[1] = b, a
		}
	}
	byY(&left)
	byY(&right)
	return OrderedQuad{
		TopLeft:     left[0],
		TopRight:    right[0],
		BottomRight: right[1],
		BottomLeft:  left[1],
	}
}

// ExpandQuad pushes every corner m pixels outward along both axes.
func ExpandQuad(o OrderedQuad, m float64) OrderedQuad {
	return OrderedQuad{
		TopLeft:     utils.Pt(o.TopLeft.X-m, o.TopLeft.Y-m),
		TopRight:    utils.Pt(o.TopRight.X+m, o.TopRight.Y-m),
		BottomRight: utils.Pt(o.BottomRight.X+m, o.BottomRight.Y+m),
		BottomLeft:  utils.Pt(o.BottomLeft.X-m, o.BottomLeft.Y+m),
	}
}

// TargetSize derives the output size from the longest horizontal and
// vertical edges. Height is fixed; width follows the edge aspect.
func TargetSize(o OrderedQuad, cfg Config) (int, int, float64) {
	maxW := math.Max(utils.Distance(o.BottomRight, o.BottomLeft), utils.Distance(o.TopRight, o.TopLeft))
	maxH := math.Max(utils.Distance(o.TopRight, o.BottomRight), utils.Distance(o.TopLeft, o.BottomLeft))
	aspect := cfg.FallbackAspect
	if maxH > 0 {
		aspect = maxW / maxH
	}
	w := max(cfg.MinWidth, int(math.Round(float64(cfg.TargetHeight)*aspect)))
	return w, cfg.TargetHeight, aspect
}

func (o OrderedQuad) isFinite() bool {
	for _, p := range o.Quad() {
		if !p.IsFinite() {
			return false
		}
	}
	return true
}
