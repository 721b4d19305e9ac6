package enhance

import (
	"errors"
	"fmt"
)

// Config holds the enhancement parameters.
type Config struct {
	Backend           string  // "" selects the build default
	ClipLimit         float64 // CLAHE contrast limit
	TileGridX         int
	TileGridY         int
	BilateralDiameter int
	SigmaColor        float64
	SigmaSpace        float64
	BlurSigma         float64 // Gaussian sigma of the unsharp mask
	BaseWeight        float64 // weight of the denoised image
	BlurWeight        float64 // weight of its blur, negative to sharpen
	JPEGQuality       int
}

// DefaultConfig returns CLAHE 2.0 on an 8x8 grid, a 5 px bilateral filter
// and a 1.5/-0.5 unsharp mask.
func DefaultConfig() Config {
	return Config{
		ClipLimit:         2.0,
		TileGridX:         8,
		TileGridY:         8,
		BilateralDiameter: 5,
		SigmaColor:        50,
		SigmaSpace:        50,
		BlurSigma:         1.0,
		BaseWeight:        1.5,
		BlurWeight:        -0.5,
		JPEGQuality:       95,
	}
}

// Validate checks filter parameters.
func (c Config) Validate() error {
	if c.TileGridX <= 0 || c.TileGridY <= 0 {
		return fmt.Errorf("tile grid must be positive, got %dx%d", c.TileGridX, c.TileGridY)
	}
	if c.ClipLimit < 0 {
		return errors.New("clip limit must not be negative")
	}
	if c.BilateralDiameter < 0 || c.SigmaColor < 0 || c.SigmaSpace < 0 {
		return errors.New("bilateral parameters must not be negative")
	}
	if c.BlurSigma <= 0 {
		return errors.New("blur sigma must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be in [1,100], got %d", c.JPEGQuality)
	}
	return nil
}
