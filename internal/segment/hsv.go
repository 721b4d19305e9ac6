package segment

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// HSV is a color in the 8-bit convention: H in [0,179], S and V in [0,255].
type HSV struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// RGBToHSV converts 8-bit RGB. Hue is degrees/2 rounded half up; when red
// and green tie for the maximum the red sector wins.
func RGBToHSV(r, g, b uint8) HSV {
	fr, fg, fb := float64(r), float64(g), float64(b)
	v := max(fr, fg, fb)
	diff := v - min(fr, fg, fb)

	var s float64
	if v > 0 {
		s = math.Floor(diff*255/v + 0.5)
	}

	var h6 float64
	switch {
	case diff == 0:
		h6 = 0
	case v == fr:
		h6 = (fg - fb) / diff
	case v == fg:
		h6 = (fb-fr)/diff + 2
	default:
		h6 = (fr-fg)/diff + 4
	}
	h := int(math.Floor(h6*30 + 0.5))
	if h < 0 {
		h += 180
	}
	if h >= 180 {
		h -= 180
	}
	return HSV{H: uint8(h), S: uint8(s), V: uint8(v)}
}

// HSVImage is a planar HSV conversion of an image.
type HSVImage struct {
	Width  int
	Height int
	Pix    []HSV
}

// At returns the HSV value at (x, y) relative to the image origin.
func (h *HSVImage) At(x, y int) HSV { return h.Pix[y*h.Width+x] }

// ToHSV converts img pixel by pixel. Alpha is ignored.
func ToHSV(img image.Image) *HSVImage {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := &HSVImage{Width: w, Height: h, Pix: make([]HSV, w*h)}
	for y := range h {
		row := src.Pix[y*src.Stride:]
		for x := range w {
			i := x * 4
			out.Pix[y*w+x] = RGBToHSV(row[i], row[i+1], row[i+2])
		}
	}
	return out
}

// MeanHSV is the per-channel mean of a pixel neighborhood.
type MeanHSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Sample is the HSV at one pixel plus the mean over the surrounding square.
type Sample struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Pixel  HSV     `json:"pixel"`
	Mean   MeanHSV `json:"mean"`
	Window int     `json:"window"`
}

// SampleHSV reads the HSV value at (x, y) and the mean over the
// (2*radius+1)^2 window around it, clipped to the image.
func SampleHSV(img image.Image, x, y, radius int) (Sample, bool) {
	hsv := ToHSV(img)
	if x < 0 || y < 0 || x >= hsv.Width || y >= hsv.Height {
		return Sample{}, false
	}
	radius = max(radius, 0)
	var sh, ss, sv float64
	n := 0
	for yy := max(y-radius, 0); yy <= min(y+radius, hsv.Height-1); yy++ {
		for xx := max(x-radius, 0); xx <= min(x+radius, hsv.Width-1); xx++ {
			p := hsv.At(xx, yy)
			sh += float64(p.H)
			ss += float64(p.S)
			sv += float64(p.V)
			n++
		}
	}
	fn := float64(n)
	return Sample{
		X:      x,
		Y:      y,
		Pixel:  hsv.At(x, y),
		Mean:   MeanHSV{H: sh / fn, S: ss / fn, V: sv / fn},
		Window: 2*radius + 1,
	}, true
}
