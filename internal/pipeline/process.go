package pipeline

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/placa/internal/plate"
	"github.com/MeKo-Tech/placa/internal/rectify"
	"github.com/MeKo-Tech/placa/internal/utils"
)

const enhancedSuffix = "_prep.jpg"

// EnhancedPath returns where the enhanced plate of the named image is written.
func (p *Pipeline) EnhancedPath(name string) string {
	return filepath.Join(p.cfg.OutputDir, name+enhancedSuffix)
}

// ProcessFile reads the image at path and runs every stage on it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	return p.processFileNamed(ctx, path, stem(path))
}

// processFileNamed is ProcessFile writing its outputs under name.
func (p *Pipeline) processFileNamed(ctx context.Context, path, name string) (*Result, error) {
	start := time.Now()
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, p.fail(path, stageErr(ReadFailure, path, err))
	}
	return p.run(ctx, img, path, name, start)
}

// ProcessImage runs every stage on an already decoded image. name is used
// for the output file names.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image, name string) (*Result, error) {
	start := time.Now()
	if img == nil {
		return nil, p.fail(name, stageErr(ReadFailure, name, errors.New("nil image")))
	}
	return p.run(ctx, img, name, stem(name), start)
}

func (p *Pipeline) run(ctx context.Context, img image.Image, file, name string, start time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	res := &Result{File: file, Width: b.Dx(), Height: b.Dy()}
	debug := p.newDebugWriter(name)

	t := time.Now()
	mask, kernel := p.segmenter.Segment(img)
	res.Timing.SegmentNs = p.observe("segment", t)
	res.Kernel = kernel.Size
	debug.mask("mask", mask, kernel)

	t = time.Now()
	reg, err := p.selector.Select(mask, kernel)
	res.Timing.RegionNs = p.observe("region", t)
	if err != nil {
		return nil, p.fail(file, stageErr(NoRegionFound, file, err))
	}
	res.Region = RegionInfo{
		Corners: rectify.OrderPoints(reg.Quad),
		Box: Box{
			X: int(reg.Bounds.MinX),
			Y: int(reg.Bounds.MinY),
			W: int(reg.Bounds.Width()),
			H: int(reg.Bounds.Height()),
		},
		Area:   reg.Area,
		Aspect: reg.Aspect,
		Method: reg.Method,
	}

	t = time.Now()
	rect, err := p.rectifier.Rectify(img, reg.Quad)
	res.Timing.RectifyNs = p.observe("rectify", t)
	if err != nil {
		return nil, p.fail(file, stageErr(DegenerateRectification, file, err))
	}
	res.PlateWidth, res.PlateHeight = rect.Width, rect.Height
	debug.overlay(img, reg, rect.Source)
	debug.image("warp", rect.Image)

	t = time.Now()
	outPath, err := p.enhancer.Enhance(rect.Image, p.EnhancedPath(name))
	res.Timing.EnhanceNs = p.observe("enhance", t)
	if err != nil {
		return nil, p.fail(file, stageErr(PersistFailure, file, err))
	}
	res.EnhancedPath = outPath

	if p.reader == nil {
		res.OCRSkipped = true
	} else {
		t = time.Now()
		raw, err := p.reader.ReadPlate(ctx, outPath)
		res.Timing.OCRNs = p.observe("ocr", t)
		if err != nil {
			return nil, p.fail(file, stageErr(OcrUnavailable, file, err))
		}
		res.RawText = raw
	}

	res.Plate = plate.Normalize(res.RawText)
	res.Timing.TotalNs = time.Since(start).Nanoseconds()
	p.metrics.recordOutcome(nil)
	p.logger.Info("processed plate",
		"file", file,
		"raw_ocr", res.RawText,
		"plate", res.Plate.Plate,
		"city", res.Plate.City,
		"strict", res.Plate.Strict,
		"duration", res.Duration())
	return res, nil
}

func (p *Pipeline) observe(stage string, since time.Time) int64 {
	d := time.Since(since)
	p.metrics.observeStage(stage, d)
	return d.Nanoseconds()
}

func (p *Pipeline) fail(file string, err error) error {
	p.metrics.recordOutcome(err)
	p.logger.Warn("plate processing failed",
		"file", file,
		"kind", KindOf(err).String(),
		"error", err)
	return err
}

// stem is the base name without extension.
func stem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return "image"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
