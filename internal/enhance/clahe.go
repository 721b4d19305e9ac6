package enhance

import (
	"image"
	"math"
)

const histSize = 256

// reflect101 maps an out-of-range index into [0, n) mirroring without
// repeating the edge sample (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// padReflect extends g right and down by the given amounts.
func padReflect(g *image.Gray, padX, padY int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w+padX, h+padY))
	for y := range h + padY {
		sy := reflect101(y, h)
		srow := g.Pix[sy*g.Stride:]
		drow := out.Pix[y*out.Stride:]
		for x := range w + padX {
			drow[x] = srow[reflect101(x, w)]
		}
	}
	return out
}

// clahe performs contrast limited adaptive histogram equalization on an
// 8-bit image. The lookup tables are built on a copy padded to a multiple
// of the tile grid; the output keeps the input size.
func clahe(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	lutSrc := src
	if w%tilesX != 0 || h%tilesY != 0 {
		lutSrc = padReflect(src, tilesX-w%tilesX, tilesY-h%tilesY)
	}
	tw := lutSrc.Rect.Dx() / tilesX
	th := lutSrc.Rect.Dy() / tilesY
	tileArea := tw * th

	limit := 0
	if clipLimit > 0 {
		limit = max(int(clipLimit*float64(tileArea)/histSize), 1)
	}
	lutScale := float64(histSize-1) / float64(tileArea)

	luts := make([][histSize]uint8, tilesX*tilesY)
	for ty := range tilesY {
		for tx := range tilesX {
			luts[ty*tilesX+tx] = tileLUT(lutSrc, tx*tw, ty*th, tw, th, limit, lutScale)
		}
	}

	invTW := 1 / float64(tw)
	invTH := 1 / float64(th)
	for y := range h {
		tyf := float64(y)*invTH - 0.5
		ty1 := int(math.Floor(tyf))
		ty2 := ty1 + 1
		ya := tyf - float64(ty1)
		ty1 = max(ty1, 0)
		ty2 = min(ty2, tilesY-1)

		row := src.Pix[y*src.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := range w {
			txf := float64(x)*invTW - 0.5
			tx1 := int(math.Floor(txf))
			tx2 := tx1 + 1
			xa := txf - float64(tx1)
			tx1 = max(tx1, 0)
			tx2 = min(tx2, tilesX-1)

			v := row[x]
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bot := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			out[x] = saturate(top*(1-ya) + bot*ya)
		}
	}
	return dst
}

// tileLUT builds the clipped cumulative histogram map of one tile.
func tileLUT(g *image.Gray, x0, y0, tw, th, limit int, scale float64) [histSize]uint8 {
	var hist [histSize]int
	for y := y0; y < y0+th; y++ {
		row := g.Pix[y*g.Stride:]
		for x := x0; x < x0+tw; x++ {
			hist[row[x]]++
		}
	}

	if limit > 0 {
		clipped := 0
		for i := range hist {
			if hist[i] > limit {
				clipped += hist[i] - limit
				hist[i] = limit
			}
		}
		batch := clipped / histSize
		residual := clipped - batch*histSize
		for i := range hist {
			hist[i] += batch
		}
		if residual != 0 {
			step := max(histSize/residual, 1)
			for i := 0; i < histSize && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	var lut [histSize]uint8
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = saturate(float64(sum) * scale)
	}
	return lut
}

// saturate rounds half to even and clamps to the 8-bit range.
func saturate(v float64) uint8 {
	r := math.RoundToEven(v)
	switch {
	case r <= 0 || math.IsNaN(r):
		return 0
	case r >= 255:
		return 255
	default:
		return uint8(r)
	}
}
