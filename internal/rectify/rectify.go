// Package rectify maps a plate quadrilateral onto an axis-aligned image of
// fixed height through a perspective transform.
package rectify

import (
	"errors"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/placa/internal/utils"
)

// ErrDegenerate is returned when the corners do not define a usable
// perspective transform.
var ErrDegenerate = errors.New("degenerate perspective transform")

// Result is a rectified plate crop.
type Result struct {
	Image     *image.NRGBA
	Transform Transform // expanded source quad -> output rectangle
	Source    OrderedQuad
	Width     int
	Height    int
	Aspect    float64
}

// Rectifier warps plate regions to a canonical frontal view.
type Rectifier struct {
	cfg Config
	log *slog.Logger
}

// New validates cfg and returns a Rectifier. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) (*Rectifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rectifier{cfg: cfg, log: logger}, nil
}

// Config returns the rectifier parameters.
func (r *Rectifier) Config() Config { return r.cfg }

// Rectify orders and expands quad, sizes the output from its edges, and
// resamples img into it.
func (r *Rectifier) Rectify(img image.Image, quad utils.Quad) (*Result, error) {
	if img == nil {
		return nil, errors.New("rectify: nil image")
	}
	src := ExpandQuad(OrderPoints(quad), r.cfg.Margin)
	if !src.isFinite() {
		return nil, ErrDegenerate
	}
	w, h, aspect := TargetSize(src, r.cfg)
	if w <= 0 || h <= 0 {
		return nil, ErrDegenerate
	}

	dst := [4]utils.Point{
		utils.Pt(0, 0),
		utils.Pt(float64(w-1), 0),
		utils.Pt(float64(w-1), float64(h-1)),
		utils.Pt(0, float64(h-1)),
	}
	if collinearCorners(src.Quad()) || collinearCorners(dst) {
		r.log.Debug("collinear corners", "width", w, "height", h)
		return nil, ErrDegenerate
	}
	forward, ok := computeHomography(src.Quad(), dst)
	if !ok {
		r.log.Debug("forward homography is singular", "width", w, "height", h)
		return nil, ErrDegenerate
	}
	inverse, ok := computeHomography(dst, src.Quad())
	if !ok {
		r.log.Debug("inverse homography is singular", "width", w, "height", h)
		return nil, ErrDegenerate
	}

	out := warpPerspective(img, inverse, w, h)
	if out == nil || out.Rect.Empty() {
		return nil, ErrDegenerate
	}
	r.log.Debug("rectified plate", "width", w, "height", h, "aspect", aspect)
	return &Result{
		Image:     out,
		Transform: forward,
		Source:    src,
		Width:     w,
		Height:    h,
		Aspect:    aspect,
	}, nil
}
