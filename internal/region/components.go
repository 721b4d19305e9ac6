package region

import (
	"github.com/MeKo-Tech/placa/internal/mempool"
	"github.com/MeKo-Tech/placa/internal/segment"
)

// compStats describes one 8-connected foreground component.
type compStats struct {
	label    int
	count    int
	minX     int
	minY     int
	maxX     int
	maxY     int
	startX   int // first pixel in raster order
	startY   int
	external bool // touches the outer background rather than sitting in a hole
}

// neighbors8 lists offsets clockwise starting east.
var neighbors8 = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

var neighbors4 = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// connectedComponents labels 8-connected foreground components in raster
// order of their first pixel. labels holds 0 for background.
func connectedComponents(m *segment.Mask) ([]compStats, []int) {
	w, h := m.Width, m.Height
	labels := make([]int, w*h)
	outer := outerBackground(m)
	defer mempool.Bool.Put(outer)
	var comps []compStats
	queue := make([]int, 0, 256)

	for y := range h {
		for x := range w {
			idx := y*w + x
			if !m.Pix[idx] || labels[idx] != 0 {
				continue
			}
			label := len(comps) + 1
			st := compStats{label: label, minX: x, minY: y, maxX: x, maxY: y, startX: x, startY: y}
			labels[idx] = label
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				ci := queue[0]
				queue = queue[1:]
				cx, cy := ci%w, ci/w
				updateComponentStats(&st, cx, cy)
				if !st.external && touchesOuter(m, outer, cx, cy) {
					st.external = true
				}
				for _, d := range neighbors8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if m.Pix[ni] && labels[ni] == 0 {
						labels[ni] = label
						queue = append(queue, ni)
					}
				}
			}
			comps = append(comps, st)
		}
	}
	return comps, labels
}

func updateComponentStats(st *compStats, cx, cy int) {
	st.count++
	st.minX = min(st.minX, cx)
	st.minY = min(st.minY, cy)
	st.maxX = max(st.maxX, cx)
	st.maxY = max(st.maxY, cy)
}

// outerBackground marks background pixels 4-connected to the image border.
// Background not reached this way lies in a hole of some component. The
// plane comes from mempool.Bool.
func outerBackground(m *segment.Mask) []bool {
	w, h := m.Width, m.Height
	outer := mempool.Bool.Get(w * h)
	queue := make([]int, 0, 2*(w+h))
	seed := func(x, y int) {
		i := y*w + x
		if !m.Pix[i] && !outer[i] {
			outer[i] = true
			queue = append(queue, i)
		}
	}
	for x := range w {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := range h {
		seed(0, y)
		seed(w-1, y)
	}
	for len(queue) > 0 {
		ci := queue[0]
		queue = queue[1:]
		cx, cy := ci%w, ci/w
		for _, d := range neighbors4 {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			seed(nx, ny)
		}
	}
	return outer
}

// touchesOuter reports whether a foreground pixel borders the image edge or
// the outer background.
func touchesOuter(m *segment.Mask, outer []bool, x, y int) bool {
	for _, d := range neighbors4 {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
			return true
		}
		if outer[ny*m.Width+nx] {
			return true
		}
	}
	return false
}
