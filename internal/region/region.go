// Package region picks the plate candidate out of a segmentation mask and
// fits a four-corner quadrilateral to it.
package region

import (
	"errors"
	"log/slog"

	"github.com/MeKo-Tech/placa/internal/segment"
	"github.com/MeKo-Tech/placa/internal/utils"
)

// ErrNoRegion is returned when the mask contains no contour at all.
var ErrNoRegion = errors.New("no plate-colored region found")

// FitMethod records how the quadrilateral was obtained.
type FitMethod string

const (
	// FitMinAreaRect is the rotated minimum-area rectangle.
	FitMinAreaRect FitMethod = "min_area_rect"
	// FitBoundingBox is the axis-aligned fallback for implausible shapes.
	FitBoundingBox FitMethod = "bounding_box"
)

// Config holds the selection parameters.
type Config struct {
	CloseIterations int     // extra closing passes before contour extraction
	MinAspect       float64 // rotated rectangles below this aspect fall back
	MaxAspect       float64 // rotated rectangles above this aspect fall back
	AspectEpsilon   float64 // added to the short side to avoid division by zero
}

// DefaultConfig accepts rotated rectangles with aspect in [1.5, 4].
func DefaultConfig() Config {
	return Config{CloseIterations: 2, MinAspect: 1.5, MaxAspect: 4.0, AspectEpsilon: 1e-5}
}

// Region is the selected plate candidate.
type Region struct {
	Contour Contour
	Quad    utils.Quad
	Rect    utils.RotatedRect
	Bounds  utils.Box
	Area    float64
	Aspect  float64
	Method  FitMethod
}

// Selector chooses the largest external contour of a mask.
type Selector struct {
	cfg Config
	log *slog.Logger
}

// New returns a Selector. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{cfg: cfg, log: logger}
}

// FindExternalContours returns the outer boundary of every component not
// enclosed in another component's hole, in raster order of first pixel.
func FindExternalContours(m *segment.Mask) []Contour {
	comps, labels := connectedComponents(m)
	var out []Contour
	for _, st := range comps {
		if !st.external {
			continue
		}
		if c := traceContourMoore(labels, m.Width, m.Height, st); len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Largest returns the index of the contour with maximum enclosed area. Equal
// areas keep the earliest contour, i.e. the one whose first pixel is
// top-most then left-most. It returns -1 for an empty slice.
func Largest(contours []Contour) int {
	best, bestArea := -1, -1.0
	for i, c := range contours {
		if a := c.Area(); a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

// Aspect is the long over short side ratio of a rotated rectangle.
func (c Config) Aspect(r utils.RotatedRect) float64 {
	return r.LongSide() / (r.ShortSide() + c.AspectEpsilon)
}

// FitQuad fits the minimum-area rectangle to c, replacing it with the
// contour's pixel bounding box when its aspect is outside [MinAspect, MaxAspect].
func (c Config) FitQuad(contour Contour) (utils.Quad, utils.RotatedRect, float64, FitMethod) {
	rect, _ := utils.MinimumAreaRectangle(contour.Points())
	aspect := c.Aspect(rect)
	if aspect > c.MaxAspect || aspect < c.MinAspect {
		return utils.PixelBoundingBox(contour).Quad(), rect, aspect, FitBoundingBox
	}
	return rect.Corners, rect, aspect, FitMinAreaRect
}

// Select closes the mask with the segmentation kernel, then fits a quad to
// the largest external contour. The input mask is not modified.
func (s *Selector) Select(mask *segment.Mask, kernel segment.Kernel) (*Region, error) {
	closed := segment.Close(mask, kernel, s.cfg.CloseIterations)
	contours := FindExternalContours(closed)
	idx := Largest(contours)
	if idx < 0 {
		s.log.Debug("no contour in mask", "mask_pixels", closed.Count())
		return nil, ErrNoRegion
	}

	contour := contours[idx]
	quad, rect, aspect, method := s.cfg.FitQuad(contour)
	r := &Region{
		Contour: contour,
		Quad:    quad,
		Rect:    rect,
		Bounds:  utils.PixelBoundingBox(contour),
		Area:    contour.Area(),
		Aspect:  aspect,
		Method:  method,
	}
	s.log.Debug("selected plate region",
		"contours", len(contours),
		"area", r.Area,
		"aspect", aspect,
		"method", string(method))
	return r, nil
}
