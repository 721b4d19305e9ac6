package rectify

import (
	"errors"
	"fmt"
)

// Config holds configuration for the rectification process.
type Config struct {
	TargetHeight   int     // output height in pixels
	MinWidth       int     // output width lower bound in pixels
	Margin         float64 // outward corner expansion in pixels
	FallbackAspect float64 // aspect used when the quad has no height
}

// DefaultConfig returns a 240 px high output at least 120 px wide.
func DefaultConfig() Config {
	return Config{
		TargetHeight:   240,
		MinWidth:       120,
		Margin:         8,
		FallbackAspect: 4.0,
	}
}

// Validate checks the sizing parameters.
func (c Config) Validate() error {
	if c.TargetHeight <= 0 {
		return fmt.Errorf("target height must be positive, got %d", c.TargetHeight)
	}
	if c.MinWidth < 0 {
		return fmt.Errorf("min width must not be negative, got %d", c.MinWidth)
	}
	if c.Margin < 0 {
		return errors.New("margin must not be negative")
	}
	if c.FallbackAspect <= 0 {
		return errors.New("fallback aspect must be positive")
	}
	return nil
}
