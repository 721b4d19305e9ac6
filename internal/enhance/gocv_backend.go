//go:build gocv

package enhance

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// newDefaultBackend prefers OpenCV when the build tag is enabled.
func newDefaultBackend() Backend { return gocvBackend{} }

func newGoCVBackend() (Backend, error) { return gocvBackend{}, nil }

type gocvBackend struct{}

func (gocvBackend) Name() string { return BackendGoCV }

func (gocvBackend) Enhance(img image.Image, cfg Config) (*image.Gray, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	clahe := gocv.NewCLAHEWithParams(cfg.ClipLimit, image.Pt(cfg.TileGridX, cfg.TileGridY))
	defer clahe.Close()
	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(gray, &equalized)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.BilateralFilter(equalized, &denoised, cfg.BilateralDiameter, cfg.SigmaColor, cfg.SigmaSpace)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(denoised, &blurred, image.Pt(0, 0), cfg.BlurSigma, cfg.BlurSigma, gocv.BorderDefault)

	sharp := gocv.NewMat()
	defer sharp.Close()
	gocv.AddWeighted(denoised, cfg.BaseWeight, blurred, cfg.BlurWeight, 0, &sharp)

	out, err := sharp.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert from mat: %w", err)
	}
	g, ok := out.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mat image type %T", out)
	}
	return g, nil
}
