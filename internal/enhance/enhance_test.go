package enhance

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/placa/internal/utils"
)

func colorGray(v uint8) color.Gray { return color.Gray{Y: v} }

func plateCrop() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 120, 40))
	for y := range 40 {
		for x := range 120 {
			c := color.NRGBA{245, 200, 20, 255}
			if x%20 < 6 && y > 8 && y < 32 {
				c = color.NRGBA{20, 20, 20, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func newEnhancer(t *testing.T) *Enhancer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Backend = BackendNative
	e, err := New(cfg, nil)
	require.NoError(t, err)
	return e
}

func TestBilateralUniform(t *testing.T) {
	out := bilateral(uniformGray(9, 7, 77), 5, 50, 50)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(77), v)
	}
}

func TestBilateralPreservesStrongEdge(t *testing.T) {
	g := uniformGray(10, 4, 0)
	for y := range 4 {
		for x := 5; x < 10; x++ {
			g.SetGray(x, y, colorGray(255))
		}
	}
	out := bilateral(g, 5, 50, 50)
	assert.Equal(t, uint8(0), out.GrayAt(4, 2).Y)
	assert.Equal(t, uint8(255), out.GrayAt(5, 2).Y)
}

func TestBilateralSmoothsSmallNoise(t *testing.T) {
	g := uniformGray(9, 9, 100)
	g.SetGray(4, 4, colorGray(110))
	out := bilateral(g, 5, 50, 50)
	v := out.GrayAt(4, 4).Y
	assert.Less(t, v, uint8(110))
	assert.GreaterOrEqual(t, v, uint8(100))
}

func TestUnsharpUniform(t *testing.T) {
	out := unsharp(uniformGray(12, 12, 90), 1.0, 1.5, -0.5)
	for _, v := range out.Pix {
		assert.InDelta(t, 90, int(v), 1)
	}
}

func TestUnsharpIncreasesEdgeContrast(t *testing.T) {
	g := uniformGray(20, 5, 60)
	for y := range 5 {
		for x := 10; x < 20; x++ {
			g.SetGray(x, y, colorGray(180))
		}
	}
	out := unsharp(g, 1.0, 1.5, -0.5)
	assert.Less(t, out.GrayAt(9, 2).Y, uint8(60))
	assert.Greater(t, out.GrayAt(10, 2).Y, uint8(180))
}

func TestApplyNilImage(t *testing.T) {
	_, err := newEnhancer(t).Apply(nil)
	assert.ErrorIs(t, err, ErrNilImage)
}

func TestApplyProducesThreeEqualChannels(t *testing.T) {
	out, err := newEnhancer(t).Apply(plateCrop())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 40), out.Bounds())
	for i := 0; i < len(out.Pix); i += 4 {
		require.Equal(t, out.Pix[i], out.Pix[i+1])
		require.Equal(t, out.Pix[i], out.Pix[i+2])
		require.Equal(t, uint8(255), out.Pix[i+3])
	}
	// dark strokes stay darker than the plate background
	assert.Less(t, out.NRGBAAt(2, 20).R, out.NRGBAAt(12, 20).R)
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	img := plateCrop()
	before := append([]uint8(nil), img.Pix...)
	_, err := newEnhancer(t).Apply(img)
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
}

func TestEnhanceWritesFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "plate.png")

	path, err := newEnhancer(t).Enhance(plateCrop(), out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	img, _, err := utils.LoadImage(out)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestEnhancePersistError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := newEnhancer(t).Enhance(plateCrop(), filepath.Join(blocker, "plate.png"))
	var perr *PersistError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, filepath.Join(blocker, "plate.png"), perr.Path)
}

func TestEnhanceNilImageDoesNotWrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plate.png")
	_, err := newEnhancer(t).Enhance(nil, out)
	assert.ErrorIs(t, err, ErrNilImage)
	assert.NoFileExists(t, out)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	mutations := map[string]func(*Config){
		"tile grid":    func(c *Config) { c.TileGridX = 0 },
		"clip limit":   func(c *Config) { c.ClipLimit = -1 },
		"sigma color":  func(c *Config) { c.SigmaColor = -1 },
		"blur sigma":   func(c *Config) { c.BlurSigma = 0 },
		"jpeg quality": func(c *Config) { c.JPEGQuality = 101 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := NewBackend("magic")
	assert.Error(t, err)
}

func TestNewBackendNative(t *testing.T) {
	b, err := NewBackend(BackendNative)
	require.NoError(t, err)
	assert.Equal(t, BackendNative, b.Name())
}
