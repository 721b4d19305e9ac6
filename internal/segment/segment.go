// Package segment builds the binary plate-color mask: HSV thresholding
// followed by a morphological opening and closing sized to the image.
package segment

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
)

// Thresholds is an inclusive HSV box.
type Thresholds struct {
	HueMin uint8
	HueMax uint8
	SatMin uint8
	SatMax uint8
	ValMin uint8
	ValMax uint8
}

// DefaultThresholds selects saturated, bright yellow.
func DefaultThresholds() Thresholds {
	return Thresholds{HueMin: 17, HueMax: 27, SatMin: 160, SatMax: 255, ValMin: 190, ValMax: 255}
}

// Contains reports whether c lies inside the box, bounds included.
func (t Thresholds) Contains(c HSV) bool {
	return c.H >= t.HueMin && c.H <= t.HueMax &&
		c.S >= t.SatMin && c.S <= t.SatMax &&
		c.V >= t.ValMin && c.V <= t.ValMax
}

// Validate rejects empty ranges and hues beyond 179.
func (t Thresholds) Validate() error {
	if t.HueMax > 179 {
		return fmt.Errorf("hue max %d exceeds 179", t.HueMax)
	}
	if t.HueMin > t.HueMax || t.SatMin > t.SatMax || t.ValMin > t.ValMax {
		return errors.New("threshold minimum above maximum")
	}
	return nil
}

// Config holds the segmentation parameters.
type Config struct {
	Thresholds      Thresholds
	Kernel          KernelConfig
	OpenIterations  int
	CloseIterations int
}

// DefaultConfig returns yellow-plate thresholds with one opening and one closing pass.
func DefaultConfig() Config {
	return Config{
		Thresholds:      DefaultThresholds(),
		Kernel:          DefaultKernelConfig(),
		OpenIterations:  1,
		CloseIterations: 1,
	}
}

// Segmenter produces the cleaned plate-color mask for an image.
type Segmenter struct {
	cfg Config
	log *slog.Logger
}

// New returns a Segmenter. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{cfg: cfg, log: logger}
}

// Config returns the segmenter parameters.
func (s *Segmenter) Config() Config { return s.cfg }

// Threshold marks every pixel whose HSV value lies inside t.
func Threshold(img image.Image, t Thresholds) *Mask {
	hsv := ToHSV(img)
	m := NewMask(hsv.Width, hsv.Height)
	for i, c := range hsv.Pix {
		m.Pix[i] = t.Contains(c)
	}
	return m
}

// Segment thresholds img and cleans the mask with an opening then a
// closing. It never fails; an empty mask is a valid result. The kernel is
// returned so later stages reuse the same structuring element.
func (s *Segmenter) Segment(img image.Image) (*Mask, Kernel) {
	raw := Threshold(img, s.cfg.Thresholds)
	kernel := KernelForWidth(raw.Width, s.cfg.Kernel)
	opened := Open(raw, kernel, s.cfg.OpenIterations)
	cleaned := Close(opened, kernel, s.cfg.CloseIterations)

	s.log.Debug("segmented plate color",
		"width", raw.Width,
		"height", raw.Height,
		"kernel", kernel.Size,
		"raw_pixels", raw.Count(),
		"mask_pixels", cleaned.Count())
	return cleaned, kernel
}
