package enhance

import (
	"image"

	"github.com/disintegration/imaging"
)

type nativeBackend struct{}

func (nativeBackend) Name() string { return BackendNative }

func (nativeBackend) Enhance(img image.Image, cfg Config) (*image.Gray, error) {
	gray := toGray(img)
	equalized := clahe(gray, cfg.ClipLimit, cfg.TileGridX, cfg.TileGridY)
	denoised := bilateral(equalized, cfg.BilateralDiameter, cfg.SigmaColor, cfg.SigmaSpace)
	return unsharp(denoised, cfg.BlurSigma, cfg.BaseWeight, cfg.BlurWeight), nil
}

// toGray converts to BT.601 luma.
func toGray(img image.Image) *image.Gray {
	luma := imaging.Grayscale(img)
	w, h := luma.Rect.Dx(), luma.Rect.Dy()
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		src := luma.Pix[y*luma.Stride:]
		dst := g.Pix[y*g.Stride:]
		for x := range w {
			dst[x] = src[x*4]
		}
	}
	return g
}

// unsharp computes base*baseWeight + blur(base)*blurWeight.
func unsharp(base *image.Gray, sigma, baseWeight, blurWeight float64) *image.Gray {
	blurred := imaging.Blur(base, sigma)
	w, h := base.Rect.Dx(), base.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		b := base.Pix[y*base.Stride:]
		bl := blurred.Pix[y*blurred.Stride:]
		o := out.Pix[y*out.Stride:]
		for x := range w {
			o[x] = saturate(float64(b[x])*baseWeight + float64(bl[x*4])*blurWeight)
		}
	}
	return out
}
