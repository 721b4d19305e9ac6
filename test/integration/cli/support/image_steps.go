package support

import (
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/placa/internal/testutil"
)

// writeImage saves img below the scratch directory, creating parents.
func (testCtx *TestContext) writeImage(name string, img image.Image) error {
	path := filepath.Join(testCtx.TempDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to write test image %s: %w", path, err)
	}
	return nil
}

func (testCtx *TestContext) aPlateImage(name string) error {
	return testCtx.writeImage(name, testutil.GeneratePlateScene(testutil.DefaultPlateSceneConfig()))
}

func (testCtx *TestContext) aPlateImageRotatedBy(name string, degrees float64) error {
	cfg := testutil.DefaultPlateSceneConfig()
	cfg.Rotation = degrees
	return testCtx.writeImage(name, testutil.GeneratePlateScene(cfg))
}

func (testCtx *TestContext) anImageWithoutAPlate(name string) error {
	size := testutil.SmallSize
	return testCtx.writeImage(name, imaging.New(size.Width, size.Height, color.NRGBA{90, 90, 90, 255}))
}

func (testCtx *TestContext) aTextFile(name string) error {
	return os.WriteFile(filepath.Join(testCtx.TempDir, name), []byte("not an image"), 0o600)
}

// anOCRServerAnswering starts a fake Ollama endpoint.
func (testCtx *TestContext) anOCRServerAnswering(text string) error {
	if testCtx.OCRServer != nil {
		testCtx.OCRServer.Close()
	}
	testCtx.OCRServer = testutil.NewFakeOllama(text, http.StatusOK)
	return nil
}

func (testCtx *TestContext) anOCRServerThatFails() error {
	if testCtx.OCRServer != nil {
		testCtx.OCRServer.Close()
	}
	testCtx.OCRServer = testutil.NewFakeOllama("", http.StatusServiceUnavailable)
	return nil
}

// RegisterImageSteps registers the fixture steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a plate image "([^"]*)"$`, testCtx.aPlateImage)
	sc.Step(`^a plate image "([^"]*)" rotated by (-?\d+(?:\.\d+)?) degrees$`, testCtx.aPlateImageRotatedBy)
	sc.Step(`^an image without a plate "([^"]*)"$`, testCtx.anImageWithoutAPlate)
	sc.Step(`^a text file "([^"]*)"$`, testCtx.aTextFile)
	sc.Step(`^an OCR server answering "([^"]*)"$`, testCtx.anOCRServerAnswering)
	sc.Step(`^an OCR server that fails$`, testCtx.anOCRServerThatFails)
}
