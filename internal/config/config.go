package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/placa/internal/batch"
	"github.com/MeKo-Tech/placa/internal/enhance"
	"github.com/MeKo-Tech/placa/internal/ocr"
	"github.com/MeKo-Tech/placa/internal/pipeline"
	"github.com/MeKo-Tech/placa/internal/rectify"
	"github.com/MeKo-Tech/placa/internal/region"
	"github.com/MeKo-Tech/placa/internal/segment"
)

// OCRBackendNone disables text recognition.
const OCRBackendNone = "none"

// DefaultConfig returns a configuration with the stage defaults.
func DefaultConfig() Config {
	seg := segment.DefaultConfig()
	reg := region.DefaultConfig()
	rect := rectify.DefaultConfig()
	enh := enhance.DefaultConfig()
	o := ocr.DefaultConfig()

	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Segment: SegmentConfig{
			HueMin:          int(seg.Thresholds.HueMin),
			HueMax:          int(seg.Thresholds.HueMax),
			SatMin:          int(seg.Thresholds.SatMin),
			SatMax:          int(seg.Thresholds.SatMax),
			ValMin:          int(seg.Thresholds.ValMin),
			ValMax:          int(seg.Thresholds.ValMax),
			KernelDivisor:   seg.Kernel.Divisor,
			KernelMin:       seg.Kernel.Min,
			KernelMax:       seg.Kernel.Max,
			OpenIterations:  seg.OpenIterations,
			CloseIterations: seg.CloseIterations,
		},
		Region: RegionConfig{
			CloseIterations: reg.CloseIterations,
			MinAspect:       reg.MinAspect,
			MaxAspect:       reg.MaxAspect,
		},
		Rectify: RectifyConfig{
			TargetHeight: rect.TargetHeight,
			MinWidth:     rect.MinWidth,
			Margin:       rect.Margin,
		},
		Enhance: EnhanceConfig{
			Backend:           enh.Backend,
			ClipLimit:         enh.ClipLimit,
			TileGrid:          enh.TileGridX,
			BilateralDiameter: enh.BilateralDiameter,
			SigmaColor:        enh.SigmaColor,
			SigmaSpace:        enh.SigmaSpace,
			BlurSigma:         enh.BlurSigma,
			JPEGQuality:       enh.JPEGQuality,
		},
		OCR: OCRConfig{
			Backend:     o.Backend,
			Endpoint:    o.Endpoint,
			Model:       o.Model,
			Temperature: o.Temperature,
			NumPredict:  o.NumPredict,
			TimeoutSec:  int(o.Timeout / time.Second),
			AWSRegion:   o.Region,
		},
		Output: OutputConfig{
			Dir:    pipeline.DefaultConfig().OutputDir,
			Format: batch.FormatText,
		},
		Batch: BatchConfig{
			Workers: pipeline.DefaultParallelConfig().MaxWorkers,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	validLogFormats := []string{"text", "json"}
	if c.LogFormat != "" && !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}

	validFormats := []string{batch.FormatText, batch.FormatJSON, batch.FormatCSV}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	for name, v := range map[string]int{
		"segment.hue_min": c.Segment.HueMin, "segment.hue_max": c.Segment.HueMax,
		"segment.sat_min": c.Segment.SatMin, "segment.sat_max": c.Segment.SatMax,
		"segment.val_min": c.Segment.ValMin, "segment.val_max": c.Segment.ValMax,
	} {
		if err := validateByte(v, name); err != nil {
			return err
		}
	}

	pc := c.ToPipelineConfig()
	if err := pc.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline settings: %w", err)
	}
	if err := pc.Rectify.Validate(); err != nil {
		return fmt.Errorf("invalid rectify settings: %w", err)
	}
	if err := pc.Enhance.Validate(); err != nil {
		return fmt.Errorf("invalid enhance settings: %w", err)
	}

	if c.OCREnabled() {
		if err := c.ToOCRConfig().Validate(); err != nil {
			return fmt.Errorf("invalid ocr settings: %w", err)
		}
		if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
			return fmt.Errorf("invalid ocr.min_confidence: %.2f (must be between 0 and 100)", c.OCR.MinConfidence)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// OCREnabled reports whether a recognizer backend is selected.
func (c *Config) OCREnabled() bool {
	return c.OCR.Backend != "" && c.OCR.Backend != OCRBackendNone
}

// ToPipelineConfig converts the config to the pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()

	cfg.Segment.Thresholds = segment.Thresholds{
		HueMin: clampByte(c.Segment.HueMin),
		HueMax: clampByte(c.Segment.HueMax),
		SatMin: clampByte(c.Segment.SatMin),
		SatMax: clampByte(c.Segment.SatMax),
		ValMin: clampByte(c.Segment.ValMin),
		ValMax: clampByte(c.Segment.ValMax),
	}
	cfg.Segment.Kernel = segment.KernelConfig{
		Divisor: c.Segment.KernelDivisor,
		Min:     c.Segment.KernelMin,
		Max:     c.Segment.KernelMax,
	}
	cfg.Segment.OpenIterations = c.Segment.OpenIterations
	cfg.Segment.CloseIterations = c.Segment.CloseIterations

	cfg.Region.CloseIterations = c.Region.CloseIterations
	cfg.Region.MinAspect = c.Region.MinAspect
	cfg.Region.MaxAspect = c.Region.MaxAspect

	cfg.Rectify.TargetHeight = c.Rectify.TargetHeight
	cfg.Rectify.MinWidth = c.Rectify.MinWidth
	cfg.Rectify.Margin = c.Rectify.Margin

	cfg.Enhance.Backend = c.Enhance.Backend
	cfg.Enhance.ClipLimit = c.Enhance.ClipLimit
	cfg.Enhance.TileGridX = c.Enhance.TileGrid
	cfg.Enhance.TileGridY = c.Enhance.TileGrid
	cfg.Enhance.BilateralDiameter = c.Enhance.BilateralDiameter
	cfg.Enhance.SigmaColor = c.Enhance.SigmaColor
	cfg.Enhance.SigmaSpace = c.Enhance.SigmaSpace
	cfg.Enhance.BlurSigma = c.Enhance.BlurSigma
	cfg.Enhance.JPEGQuality = c.Enhance.JPEGQuality

	cfg.OutputDir = c.Output.Dir
	cfg.DebugDir = c.Output.DebugDir
	cfg.Parallel.MaxWorkers = c.Batch.Workers
	return cfg
}

// ToOCRConfig converts to ocr.Config.
func (c *Config) ToOCRConfig() ocr.Config {
	cfg := ocr.DefaultConfig()
	cfg.Backend = c.OCR.Backend
	cfg.Endpoint = c.OCR.Endpoint
	cfg.Model = c.OCR.Model
	cfg.Temperature = c.OCR.Temperature
	cfg.NumPredict = c.OCR.NumPredict
	cfg.Timeout = time.Duration(c.OCR.TimeoutSec) * time.Second
	cfg.Region = c.OCR.AWSRegion
	cfg.MinConfidence = float32(c.OCR.MinConfidence)
	return cfg
}

// ToBatchConfig converts to batch.Config.
func (c *Config) ToBatchConfig() batch.Config {
	return batch.Config{
		Recursive:       c.Batch.Recursive,
		IncludePatterns: c.Batch.Include,
		ExcludePatterns: c.Batch.Exclude,
		Format:          c.Output.Format,
		OutputFile:      c.Output.File,
	}
}

// validateByte validates that a value fits an 8-bit channel.
func validateByte(value int, name string) error {
	if value < 0 || value > 255 {
		return fmt.Errorf("invalid %s: %d (must be between 0 and 255)", name, value)
	}
	return nil
}

func clampByte(v int) uint8 {
	return uint8(min(max(v, 0), 255)) //nolint:gosec // clamped above
}
