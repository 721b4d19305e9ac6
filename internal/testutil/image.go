package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

var (
	PlateYellow = color.NRGBA{245, 200, 20, 255}
	Asphalt     = color.NRGBA{90, 90, 90, 255}
)

// PlateSceneConfig describes a synthetic photo of a yellow plate.
type PlateSceneConfig struct {
	Size       ImageSize
	Background color.Color
	PlateColor color.Color
	TextColor  color.Color
	Plate      image.Rectangle // plate area before rotation
	Text       string          // drawn centered on the plate; empty for none
	Rotation   float64         // degrees counter-clockwise, canvas grows to fit
}

// DefaultPlateSceneConfig returns a 640x480 scene with a 240x100 plate.
func DefaultPlateSceneConfig() PlateSceneConfig {
	return PlateSceneConfig{
		Size:       MediumSize,
		Background: Asphalt,
		PlateColor: PlateYellow,
		TextColor:  color.Black,
		Plate:      image.Rect(200, 190, 440, 290),
		Text:       "ABC 123",
	}
}

// GeneratePlateScene renders cfg.
func GeneratePlateScene(cfg PlateSceneConfig) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)
	if !cfg.Plate.Empty() {
		draw.Draw(img, cfg.Plate, &image.Uniform{cfg.PlateColor}, image.Point{}, draw.Src)
	}

	if cfg.Text != "" && !cfg.Plate.Empty() {
		face := basicfont.Face7x13
		d := &font.Drawer{Dst: img, Src: &image.Uniform{cfg.TextColor}, Face: face}
		w := d.MeasureString(cfg.Text).Ceil()
		h := face.Metrics().Ascent.Ceil()
		c := cfg.Plate.Min.Add(cfg.Plate.Size().Div(2))
		d.Dot = fixed.P(c.X-w/2, c.Y+h/2)
		d.DrawString(cfg.Text)
	}

	if cfg.Rotation != 0 {
		return imaging.Rotate(img, cfg.Rotation, cfg.Background)
	}
	return img
}

// WritePlateScene renders cfg into dir/name and returns the path. The format
// follows the extension of name.
func WritePlateScene(t *testing.T, dir, name string, cfg PlateSceneConfig) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, imaging.Save(GeneratePlateScene(cfg), path))
	return path
}

// WriteBlankImage writes a uniform image with no plate color.
func WriteBlankImage(t *testing.T, dir, name string, size ImageSize) string {
	t.Helper()
	cfg := DefaultPlateSceneConfig()
	cfg.Size = size
	cfg.Plate = image.Rectangle{}
	return WritePlateScene(t, dir, name, cfg)
}
