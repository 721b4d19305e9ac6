package testutil

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePlateScene(t *testing.T) {
	cfg := DefaultPlateSceneConfig()
	cfg.Text = ""
	img := GeneratePlateScene(cfg)

	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, PlateYellow, img.NRGBAAt(300, 200))
	assert.Equal(t, Asphalt, img.NRGBAAt(10, 10))
	assert.Equal(t, Asphalt, img.NRGBAAt(440, 290))
}

func TestGeneratePlateSceneText(t *testing.T) {
	img := GeneratePlateScene(DefaultPlateSceneConfig())
	dark := 0
	for y := 190; y < 290; y++ {
		for x := 200; x < 440; x++ {
			if img.NRGBAAt(x, y) == (color.NRGBA{0, 0, 0, 255}) {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
}

func TestGeneratePlateSceneRotationGrowsCanvas(t *testing.T) {
	cfg := DefaultPlateSceneConfig()
	cfg.Rotation = 10
	img := GeneratePlateScene(cfg)
	assert.Greater(t, img.Bounds().Dx(), 640)
	assert.Greater(t, img.Bounds().Dy(), 480)
}

func TestWritePlateScene(t *testing.T) {
	path := WritePlateScene(t, t.TempDir(), "car.png", DefaultPlateSceneConfig())
	assert.FileExists(t, path)
}

func TestFakeReader(t *testing.T) {
	f := &FakeReader{Text: "ABC 123, CALI"}
	got, err := f.ReadPlate(context.Background(), "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "ABC 123, CALI", got)

	f.Err = errors.New("down")
	_, err = f.ReadPlate(context.Background(), "b.jpg")
	assert.EqualError(t, err, "down")
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, f.Paths())
}

func TestCaptureLogger(t *testing.T) {
	logger, h := NewCaptureLogger()
	logger.With("stage", "segment").Debug("segmented plate color", "kernel", 6)
	logger.Info("other")

	r, ok := h.Find("segmented plate color")
	require.True(t, ok)
	assert.Equal(t, slog.LevelDebug, r.Level)
	v, ok := Attr(r, "kernel")
	require.True(t, ok)
	assert.Equal(t, int64(6), v.Int64())
	v, ok = Attr(r, "stage")
	require.True(t, ok)
	assert.Equal(t, "segment", v.String())
	assert.Len(t, h.Records(), 2)
}

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "go.mod"))
	assert.DirExists(t, filepath.Join(root, "cmd", "placa"))
}
