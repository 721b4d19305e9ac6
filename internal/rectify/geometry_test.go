package rectify

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/placa/internal/utils"
)

// permutations returns all 24 orderings of q.
func permutations(q utils.Quad) []utils.Quad {
	var out []utils.Quad
	var rec func(prefix []utils.Point, rest []utils.Point)
	rec = func(prefix []utils.Point, rest []utils.Point) {
		if len(rest) == 0 {
			out = append(out, utils.Quad{prefix[0], prefix[1], prefix[2], prefix[3]})
			return
		}
		for i := range rest {
			next := append(append([]utils.Point(nil), rest[:i]...), rest[i+1:]...)
			rec(append(append([]utils.Point(nil), prefix...), rest[i]), next)
		}
	}
	rec(nil, q.Points())
	return out
}

func TestOrderPointsAxisAligned(t *testing.T) {
	want := OrderedQuad{
		TopLeft:     utils.Pt(10, 20),
		TopRight:    utils.Pt(110, 20),
		BottomRight: utils.Pt(110, 60),
		BottomLeft:  utils.Pt(10, 60),
	}
	perms := permutations(want.Quad())
	assert.Len(t, perms, 24)
	for _, q := range perms {
		assert.Equal(t, want, OrderPoints(q), "input %v", q)
	}
}

func TestOrderPointsTilted(t *testing.T) {
	q := utils.Quad{{X: 120, Y: 80}, {X: 20, Y: 40}, {X: 130, Y: 30}, {X: 10, Y: 95}}
	got := OrderPoints(q)
	assert.Equal(t, utils.Pt(20, 40), got.TopLeft)
	assert.Equal(t, utils.Pt(10, 95), got.BottomLeft)
	assert.Equal(t, utils.Pt(130, 30), got.TopRight)
	assert.Equal(t, utils.Pt(120, 80), got.BottomRight)
}

func TestOrderPointsPermutationInvariant(t *testing.T) {
	properties := gopter.NewProperties(nil)

	coord := gen.Float64Range(-500, 500)
	properties.Property("all 24 orderings label corners identically", prop.ForAll(
		func(x0, y0, x1, y1, x2, y2, x3, y3 float64) bool {
			q := utils.Quad{{X: x0, Y: y0}, {X: x1, Y: y1}, {X: x2, Y: y2}, {X: x3, Y: y3}}
			want := OrderPoints(q)
			for _, p := range permutations(q) {
				if OrderPoints(p) != want {
					return false
				}
			}
			return true
		},
		coord, coord, coord, coord, coord, coord, coord, coord,
	))

	properties.Property("ties on x still yield one labeling", prop.ForAll(
		func(x, y0, y1, x2, y2 int) bool {
			q := utils.Quad{
				{X: float64(x), Y: float64(y0)}, {X: float64(x), Y: float64(y1)},
				{X: float64(x2), Y: float64(y2)}, {X: float64(x), Y: float64(y2)},
			}
			want := OrderPoints(q)
			for _, p := range permutations(q) {
				if OrderPoints(p) != want {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 5), gen.IntRange(0, 5), gen.IntRange(0, 5), gen.IntRange(0, 5), gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

func TestExpandQuad(t *testing.T) {
	o := OrderedQuad{
		TopLeft:     utils.Pt(10, 10),
		TopRight:    utils.Pt(50, 10),
		BottomRight: utils.Pt(50, 30),
		BottomLeft:  utils.Pt(10, 30),
	}
	got := ExpandQuad(o, 8)
	assert.Equal(t, utils.Pt(2, 2), got.TopLeft)
	assert.Equal(t, utils.Pt(58, 2), got.TopRight)
	assert.Equal(t, utils.Pt(58, 38), got.BottomRight)
	assert.Equal(t, utils.Pt(2, 38), got.BottomLeft)
}

func TestTargetSize(t *testing.T) {
	cfg := DefaultConfig()
	rect := func(w, h float64) OrderedQuad {
		return OrderedQuad{
			TopLeft: utils.Pt(0, 0), TopRight: utils.Pt(w, 0),
			BottomRight: utils.Pt(w, h), BottomLeft: utils.Pt(0, h),
		}
	}
	tests := []struct {
		name       string
		quad       OrderedQuad
		wantW      int
		wantAspect float64
	}{
		{"plate", rect(400, 100), 960, 4},
		{"square clamps to ratio", rect(50, 50), 240, 1},
		{"tall clamps to min width", rect(20, 100), 120, 0.2},
		{"rounds to nearest", rect(301, 100), 722, 3.01},
		{"zero height uses fallback", rect(100, 0), 960, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, aspect := TargetSize(tt.quad, cfg)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, 240, h)
			assert.InDelta(t, tt.wantAspect, aspect, 1e-9)
		})
	}
}
