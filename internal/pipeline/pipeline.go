// Package pipeline wires segmentation, region selection, rectification,
// enhancement, OCR and text normalization into a per-image plate reader.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/placa/internal/enhance"
	"github.com/MeKo-Tech/placa/internal/ocr"
	"github.com/MeKo-Tech/placa/internal/rectify"
	"github.com/MeKo-Tech/placa/internal/region"
	"github.com/MeKo-Tech/placa/internal/segment"
)

// Config holds configuration for the plate pipeline and its stages.
type Config struct {
	Segment   segment.Config
	Region    region.Config
	Rectify   rectify.Config
	Enhance   enhance.Config
	OutputDir string // enhanced plates are written here as <name>_prep.jpg
	DebugDir  string // optional intermediate dumps
	Parallel  ParallelConfig
}

// DefaultConfig returns a config with stage defaults.
func DefaultConfig() Config {
	return Config{
		Segment:   segment.DefaultConfig(),
		Region:    region.DefaultConfig(),
		Rectify:   rectify.DefaultConfig(),
		Enhance:   enhance.DefaultConfig(),
		OutputDir: "output",
		Parallel:  DefaultParallelConfig(),
	}
}

// Validate checks stage parameters that the stages themselves accept silently.
func (c Config) Validate() error {
	if err := c.Segment.Thresholds.Validate(); err != nil {
		return fmt.Errorf("segment: %w", err)
	}
	if c.Segment.OpenIterations < 0 || c.Segment.CloseIterations < 0 || c.Region.CloseIterations < 0 {
		return errors.New("morphology iterations must not be negative")
	}
	if c.Region.MinAspect > c.Region.MaxAspect {
		return fmt.Errorf("region: min aspect %.2f above max aspect %.2f", c.Region.MinAspect, c.Region.MaxAspect)
	}
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if c.Parallel.MaxWorkers < 0 {
		return errors.New("worker count must not be negative")
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg     Config
	reader  ocr.Reader
	logger  *slog.Logger
	metrics *Metrics
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithThresholds sets the HSV plate color range.
func (b *Builder) WithThresholds(t segment.Thresholds) *Builder {
	b.cfg.Segment.Thresholds = t
	return b
}

// WithSegmentConfig sets the segmentation stage parameters.
func (b *Builder) WithSegmentConfig(cfg segment.Config) *Builder {
	b.cfg.Segment = cfg
	return b
}

// WithRegionConfig sets the region selection parameters.
func (b *Builder) WithRegionConfig(cfg region.Config) *Builder {
	b.cfg.Region = cfg
	return b
}

// WithRectifyConfig sets the rectification parameters.
func (b *Builder) WithRectifyConfig(cfg rectify.Config) *Builder {
	b.cfg.Rectify = cfg
	return b
}

// WithEnhanceConfig sets the enhancement parameters.
func (b *Builder) WithEnhanceConfig(cfg enhance.Config) *Builder {
	b.cfg.Enhance = cfg
	return b
}

// WithOutputDir sets where enhanced plates are written.
func (b *Builder) WithOutputDir(dir string) *Builder {
	if dir != "" {
		b.cfg.OutputDir = dir
	}
	return b
}

// WithDebugDir enables intermediate dumps into dir.
func (b *Builder) WithDebugDir(dir string) *Builder {
	b.cfg.DebugDir = dir
	return b
}

// WithWorkers sets the number of parallel workers for ProcessFiles.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Parallel.MaxWorkers = n
	}
	return b
}

// WithProgressCallback sets the progress callback for ProcessFiles.
func (b *Builder) WithProgressCallback(cb ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = cb
	return b
}

// WithReader sets the OCR backend. Without one the OCR stage is skipped.
func (b *Builder) WithReader(r ocr.Reader) *Builder {
	b.reader = r
	return b
}

// WithLogger sets the logger passed to every stage.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetrics enables Prometheus stage metrics.
func (b *Builder) WithMetrics(m *Metrics) *Builder {
	b.metrics = m
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Build validates the configuration and creates the stages.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	rect, err := rectify.New(b.cfg.Rectify, logger.With("stage", "rectify"))
	if err != nil {
		return nil, fmt.Errorf("rectify: %w", err)
	}
	enh, err := enhance.New(b.cfg.Enhance, logger.With("stage", "enhance"))
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}

	return &Pipeline{
		cfg:       b.cfg,
		segmenter: segment.New(b.cfg.Segment, logger.With("stage", "segment")),
		selector:  region.New(b.cfg.Region, logger.With("stage", "region")),
		rectifier: rect,
		enhancer:  enh,
		reader:    b.reader,
		logger:    logger,
		metrics:   b.metrics,
	}, nil
}

// Pipeline runs the plate stages. It holds only read-only state and may be
// shared across goroutines.
type Pipeline struct {
	cfg       Config
	segmenter *segment.Segmenter
	selector  *region.Selector
	rectifier *rectify.Rectifier
	enhancer  *enhance.Enhancer
	reader    ocr.Reader
	logger    *slog.Logger
	metrics   *Metrics
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// HasReader reports whether an OCR backend is configured.
func (p *Pipeline) HasReader() bool { return p.reader != nil }
