package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"

	"github.com/MeKo-Tech/placa/internal/rectify"
	"github.com/MeKo-Tech/placa/internal/region"
	"github.com/MeKo-Tech/placa/internal/segment"
	"github.com/MeKo-Tech/placa/internal/utils"
)

var (
	contourColor = color.RGBA{0, 255, 0, 255}
	quadColor    = color.RGBA{255, 0, 0, 255}
	cornerColor  = color.RGBA{0, 128, 255, 255}
)

// debugWriter dumps intermediate images as <dir>/<name>_<stage>.png. A
// writer with an empty dir does nothing. Write failures are logged only.
type debugWriter struct {
	dir    string
	name   string
	regCfg region.Config
	logger *slog.Logger
}

func (p *Pipeline) newDebugWriter(name string) *debugWriter {
	return &debugWriter{dir: p.cfg.DebugDir, name: name, regCfg: p.cfg.Region, logger: p.logger}
}

func (d *debugWriter) enabled() bool { return d.dir != "" }

func (d *debugWriter) path(stage string) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s_%s.png", d.name, stage))
}

func (d *debugWriter) save(stage string, img image.Image) {
	path := d.path(stage)
	if err := utils.SaveImage(img, path, 0); err != nil {
		d.logger.Warn("debug dump failed", "path", path, "error", err)
		return
	}
	d.logger.Debug("wrote debug image", "path", path)
}

func (d *debugWriter) image(stage string, img image.Image) {
	if !d.enabled() || img == nil {
		return
	}
	d.save(stage, img)
}

// mask writes the segmentation mask and the extra-closed mask the region
// selector extracts contours from.
func (d *debugWriter) mask(stage string, m *segment.Mask, k segment.Kernel) {
	if !d.enabled() || m == nil {
		return
	}
	d.save(stage, m.Image())
	d.save(stage+"_closed", segment.Close(m, k, d.regCfg.CloseIterations).Image())
}

// overlay draws the contour, the fitted quad and the expanded ordered
// corners over the source image.
func (d *debugWriter) overlay(src image.Image, reg *region.Region, corners rectify.OrderedQuad) {
	if !d.enabled() || reg == nil {
		return
	}
	canvas := utils.ToRGBA(src)
	utils.DrawPolygon(canvas, reg.Contour.Points(), contourColor, 1)
	utils.DrawPolygon(canvas, reg.Quad.Points(), quadColor, 2)
	for _, c := range corners.Quad() {
		utils.DrawMarker(canvas, c, cornerColor, 4)
	}
	d.save("overlay", canvas)
}
