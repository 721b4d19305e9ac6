// Package enhance prepares a rectified plate for OCR: grayscale conversion,
// local contrast equalization, edge preserving denoising and sharpening.
package enhance

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/placa/internal/utils"
)

// ErrNilImage is returned when no image is supplied.
var ErrNilImage = errors.New("enhance: nil image")

// PersistError reports a failure to write the enhanced image.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("enhance: persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Enhancer applies the configured filter chain.
type Enhancer struct {
	cfg     Config
	backend Backend
	logger  *slog.Logger
}

// New validates cfg and resolves its backend.
func New(cfg Config, logger *slog.Logger) (*Enhancer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid enhance config: %w", err)
	}
	backend, err := NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{cfg: cfg, backend: backend, logger: logger}, nil
}

// Config returns the active configuration.
func (e *Enhancer) Config() Config { return e.cfg }

// Backend returns the name of the backend in use.
func (e *Enhancer) Backend() string { return e.backend.Name() }

// Apply returns the enhanced image as three identical channels.
func (e *Enhancer) Apply(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	b := img.Bounds()
	if b.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil
	}

	start := time.Now()
	gray, err := e.backend.Enhance(img, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("enhance with %s backend: %w", e.backend.Name(), err)
	}
	out := grayToNRGBA(gray)
	e.logger.Debug("enhanced plate",
		"backend", e.backend.Name(),
		"width", b.Dx(),
		"height", b.Dy(),
		"duration", time.Since(start))
	return out, nil
}

// Enhance applies the filter chain and writes the result to outPath in the
// format implied by its extension. It returns outPath.
func (e *Enhancer) Enhance(img image.Image, outPath string) (string, error) {
	out, err := e.Apply(img)
	if err != nil {
		return "", err
	}
	if err := utils.SaveImage(out, outPath, e.cfg.JPEGQuality); err != nil {
		return "", &PersistError{Path: outPath, Err: err}
	}
	return outPath, nil
}

func grayToNRGBA(g *image.Gray) *image.NRGBA {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		src := g.Pix[y*g.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := range w {
			v := src[x]
			i := x * 4
			dst[i], dst[i+1], dst[i+2], dst[i+3] = v, v, v, 255
		}
	}
	return out
}
