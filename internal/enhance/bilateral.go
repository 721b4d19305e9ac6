package enhance

import (
	"image"
	"math"
)

type spaceTap struct {
	dx, dy int
	weight float64
}

// bilateral is an edge preserving smoothing filter over a circular window
// of the given diameter. Borders are mirrored with reflect101.
func bilateral(src *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := diameter / 2
	if diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	radius = max(radius, 1)

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)

	var colorWeight [histSize]float64
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	var taps []spaceTap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, spaceTap{dx: dx, dy: dy, weight: math.Exp(r * r * spaceCoeff)})
		}
	}

	for y := range h {
		out := dst.Pix[y*dst.Stride:]
		for x := range w {
			center := int(src.Pix[y*src.Stride+x])
			var sum, wsum float64
			for _, t := range taps {
				sx := reflect101(x+t.dx, w)
				sy := reflect101(y+t.dy, h)
				v := int(src.Pix[sy*src.Stride+sx])
				diff := v - center
				if diff < 0 {
					diff = -diff
				}
				wt := t.weight * colorWeight[diff]
				sum += wt * float64(v)
				wsum += wt
			}
			out[x] = saturate(sum / wsum)
		}
	}
	return dst
}
