package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/placa/internal/testutil"
)

func TestNormalizeCommand(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand(t, nil, "normalize", "abc-123,", "bogota")
	require.NoError(t, err)
	assert.Equal(t, "plate: ABC 123 | city: BOGOTA\n", out)
}

func TestNormalizeCommandReadsStdinAsJSON(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand(t, strings.NewReader("JUNI540 BOGOTA DC\n"), "normalize", "--json")
	require.NoError(t, err)

	var res struct {
		Plate  string `json:"plate"`
		City   string `json:"city"`
		Strict bool   `json:"strict"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "JUN 540", res.Plate)
	assert.Equal(t, "BOGOTA DC", res.City)
	assert.True(t, res.Strict)
}

func TestHSVCommand(t *testing.T) {
	dir := isolate(t)
	path := testutil.WritePlateScene(t, dir, "car.png", testutil.DefaultPlateSceneConfig())

	t.Run("plate pixel is in range", func(t *testing.T) {
		out, _, err := executeCommand(t, nil, "hsv", path, "210", "200", "--radius", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "mean 3x3")
		assert.Contains(t, out, "in range: true")
	})

	t.Run("background as json", func(t *testing.T) {
		out, _, err := executeCommand(t, nil, "hsv", path, "5", "5", "--json")
		require.NoError(t, err)
		var report map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, false, report["in_range"])
		assert.EqualValues(t, 7, report["window"])
	})

	t.Run("outside the image", func(t *testing.T) {
		_, _, err := executeCommand(t, nil, "hsv", path, "5000", "5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside 640x480")
	})

	t.Run("bad coordinate", func(t *testing.T) {
		_, _, err := executeCommand(t, nil, "hsv", path, "x", "5")
		require.Error(t, err)
	})
}

func TestImageCommand(t *testing.T) {
	dir := isolate(t)
	path := testutil.WritePlateScene(t, dir, "car.png", testutil.DefaultPlateSceneConfig())
	ollama := testutil.NewFakeOllama("abc 123, cali", http.StatusOK)
	defer ollama.Close()

	out, _, err := executeCommand(t, nil, "image", path,
		"--ocr-endpoint", ollama.URL, "--output-dir", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "plate: ABC 123 | city: CALI")
	assert.FileExists(t, filepath.Join(dir, "out", "car_prep.jpg"))
}

func TestImageCommandJSONToFile(t *testing.T) {
	dir := isolate(t)
	path := testutil.WritePlateScene(t, dir, "car.png", testutil.DefaultPlateSceneConfig())
	report := filepath.Join(dir, "report.json")

	_, _, err := executeCommand(t, nil, "image", path, "--ocr-backend", "none",
		"--format", "json", "--output", report, "--output-dir", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"images"`)
	assert.Contains(t, string(data), `"file": "`+path+`"`)
}

func TestImageCommandFailures(t *testing.T) {
	dir := isolate(t)
	blank := testutil.WriteBlankImage(t, dir, "blank.png", testutil.SmallSize)

	t.Run("no plate", func(t *testing.T) {
		_, _, err := executeCommand(t, nil, "image", blank, "--ocr-backend", "none", "--output-dir", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no_region_found")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := executeCommand(t, nil, "image", filepath.Join(dir, "nope.jpg"), "--ocr-backend", "none")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read_failure")
	})

	t.Run("ocr server down", func(t *testing.T) {
		path := testutil.WritePlateScene(t, dir, "car.png", testutil.DefaultPlateSceneConfig())
		ollama := testutil.NewFakeOllama("", http.StatusInternalServerError)
		defer ollama.Close()
		_, _, err := executeCommand(t, nil, "image", path, "--ocr-endpoint", ollama.URL, "--output-dir", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ocr_unavailable")
	})

	t.Run("requires one argument", func(t *testing.T) {
		_, _, err := executeCommand(t, nil, "image")
		require.Error(t, err)
	})
}

func TestBatchCommand(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in")
	testutil.WritePlateScene(t, in, "car1.png", testutil.DefaultPlateSceneConfig())
	testutil.WritePlateScene(t, in, "car2.png", testutil.DefaultPlateSceneConfig())
	testutil.WriteBlankImage(t, in, "blank.png", testutil.SmallSize)
	ollama := testutil.NewFakeOllama("XYZ987 PASTO", http.StatusOK)
	defer ollama.Close()

	out, stderr, err := executeCommand(t, nil, "batch", in, "--format", "csv", "--workers", "2",
		"--stats", "--ocr-endpoint", ollama.URL, "--output-dir", filepath.Join(dir, "out"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "file,"))
	assert.Contains(t, out, "XYZ 987,PASTO")
	assert.Contains(t, out, "no_region_found")
	assert.Contains(t, stderr, "Total images: 3")
	assert.Contains(t, stderr, "Failed: 1")
	assert.FileExists(t, filepath.Join(dir, "out", "car1_prep.jpg"))
	assert.FileExists(t, filepath.Join(dir, "out", "car2_prep.jpg"))
}

func TestBatchCommandFilters(t *testing.T) {
	dir := isolate(t)
	testutil.WritePlateScene(t, dir, "placa_1.png", testutil.DefaultPlateSceneConfig())
	testutil.WritePlateScene(t, filepath.Join(dir, "sub"), "placa_2.png", testutil.DefaultPlateSceneConfig())
	testutil.WritePlateScene(t, dir, "other.png", testutil.DefaultPlateSceneConfig())

	out, _, err := executeCommand(t, nil, "batch", dir, "--recursive", "--include", "placa_*",
		"--ocr-backend", "none", "--format", "json", "--output-dir", filepath.Join(dir, "out"))
	require.NoError(t, err)

	var report struct {
		Images []struct {
			File string `json:"file"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Images, 2)
	for _, img := range report.Images {
		assert.Contains(t, filepath.Base(img.File), "placa_")
	}
}

func TestBatchCommandNoImages(t *testing.T) {
	dir := isolate(t)
	_, _, err := executeCommand(t, nil, "batch", dir, "--ocr-backend", "none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files found")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := isolate(t)

	out, _, err := executeCommand(t, nil, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote placa.yaml")
	assert.FileExists(t, filepath.Join(dir, "placa.yaml"))

	_, _, err = executeCommand(t, nil, "config", "init")
	require.Error(t, err, "existing files are not overwritten")

	out, _, err = executeCommand(t, nil, "config", "show", "--paths", "--ocr-model", "llava")
	require.NoError(t, err)
	assert.Contains(t, out, "# config file:")
	assert.Contains(t, out, "# search path: .")
	assert.Contains(t, out, "model: llava")
	assert.Contains(t, out, "hue_min: 17")
}

func TestConfigInitIgnoresBrokenConfig(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "placa.yaml"), []byte("log_level: loud\n"), 0o600))

	_, _, err := executeCommand(t, nil, "config", "init", "fresh.yaml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "fresh.yaml"))
}
