package rectify

import (
	"image"

	"github.com/disintegration/imaging"
)

// warpPerspective fills a dstW x dstH image by mapping every destination
// pixel through inv into src and sampling bilinearly. Samples that fall
// outside the source are black.
func warpPerspective(src image.Image, inv Transform, dstW, dstH int) *image.NRGBA {
	if src == nil || dstW <= 0 || dstH <= 0 {
		return nil
	}
	s := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	for y := range dstH {
		row := out.Pix[y*out.Stride:]
		for x := range dstW {
			sx, sy := inv.Apply(float64(x), float64(y))
			r, g, b, a := bilinearSample(s, sx, sy)
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = r, g, b, a
		}
	}
	return out
}

func bilinearSample(src *image.NRGBA, x, y float64) (uint8, uint8, uint8, uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	// NaN fails every comparison, so test for inclusion
	if !(x >= 0 && y >= 0 && x <= float64(w-1) && y <= float64(h-1)) {
		return 0, 0, 0, 255
	}
	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	p00 := src.Pix[y0*src.Stride+x0*4:]
	p10 := src.Pix[y0*src.Stride+x1*4:]
	p01 := src.Pix[y1*src.Stride+x0*4:]
	p11 := src.Pix[y1*src.Stride+x1*4:]
	var c [4]uint8
	for k := range 4 {
		top := lerp(float64(p00[k]), float64(p10[k]), fx)
		bot := lerp(float64(p01[k]), float64(p11[k]), fx)
		c[k] = uint8(lerp(top, bot, fy) + 0.5)
	}
	return c[0], c[1], c[2], c[3]
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
