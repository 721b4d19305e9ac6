package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/placa/internal/pipeline"
	"github.com/MeKo-Tech/placa/internal/plate"
	"github.com/MeKo-Tech/placa/internal/region"
	"github.com/MeKo-Tech/placa/internal/testutil"
)

// fakeProcessor returns a canned result, or err when set.
type fakeProcessor struct {
	mu    sync.Mutex
	err   error
	names []string
}

func (f *fakeProcessor) ProcessImage(_ context.Context, img image.Image, name string) (*pipeline.Result, error) {
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b := img.Bounds()
	return &pipeline.Result{
		File:    name,
		Width:   b.Dx(),
		Height:  b.Dy(),
		RawText: "ABC 123, CALI",
		Plate:   plate.Normalize("ABC 123, CALI"),
	}, nil
}

func (f *fakeProcessor) HasReader() bool { return true }

func newTestServer(p plateProcessor) *Server {
	logger, _ := testutil.NewCaptureLogger()
	return NewServer(Config{CORSOrigin: "*", MaxUploadMB: 2, TimeoutSec: 5, Gatherer: prometheus.NewRegistry()}, p, logger)
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(&fakeProcessor{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "dev", resp.Version)
	assert.True(t, resp.OCR)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthHandlerRejectsPost(t *testing.T) {
	s := newTestServer(&fakeProcessor{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeProcessor{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/plate/image", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(&fakeProcessor{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "0b0f5c3e-58a4-4f43-9a53-4d3a6c0e2f11")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "0b0f5c3e-58a4-4f43-9a53-4d3a6c0e2f11", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	s.Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestPlateImageJSON(t *testing.T) {
	fp := &fakeProcessor{}
	s := newTestServer(fp)
	img := testutil.GeneratePlateScene(testutil.DefaultPlateSceneConfig())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image", "image", "car.png", pngBytes(t, img)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PlateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "ABC 123", resp.Result.Plate.Plate)
	assert.Equal(t, "CALI", resp.Result.Plate.City)
	assert.Equal(t, 640, resp.Result.Width)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), resp.RequestID)

	require.Len(t, fp.names, 1)
	assert.Equal(t, resp.RequestID+"_car.png", fp.names[0])
}

func TestPlateImageTextAndCSV(t *testing.T) {
	s := newTestServer(&fakeProcessor{})
	data := pngBytes(t, testutil.GeneratePlateScene(testutil.DefaultPlateSceneConfig()))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image?format=text", "image", "car.png", data))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "plate: ABC 123 | city: CALI")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image?format=csv", "image", "car.png", data))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "file,raw_ocr,plate,city,strict,duration_s,error")
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
}

func TestPlateImageBadRequests(t *testing.T) {
	s := newTestServer(&fakeProcessor{})

	t.Run("method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plate/image", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
	t.Run("no form", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plate/image", bytes.NewBufferString("x")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("no file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image", "", "", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No image file provided")
	})
	t.Run("not an image", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image", "image", "x.png", []byte("garbage")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid image format")
	})
	t.Run("too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image", "image", "x.png", make([]byte, 3<<20)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestPlateImagePipelineFailures(t *testing.T) {
	data := pngBytes(t, testutil.GeneratePlateScene(testutil.DefaultPlateSceneConfig()))
	tests := []struct {
		kind   pipeline.FailureKind
		status int
	}{
		{pipeline.NoRegionFound, http.StatusUnprocessableEntity},
		{pipeline.DegenerateRectification, http.StatusUnprocessableEntity},
		{pipeline.OcrUnavailable, http.StatusBadGateway},
		{pipeline.PersistFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			s := newTestServer(&fakeProcessor{err: &pipeline.StageError{Kind: tt.kind, Path: "car.png", Err: region.ErrNoRegion}})
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image", "image", "car.png", data))

			assert.Equal(t, tt.status, rec.Code)
			var resp PlateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind.String(), resp.FailureKind)
		})
	}
}

func TestStatusForContextErrors(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusForError(context.DeadlineExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, statusForError(context.Canceled))
	assert.Equal(t, http.StatusBadRequest, statusForError(&pipeline.StageError{Kind: pipeline.ReadFailure}))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = pipeline.NewMetrics(reg)
	logger, _ := testutil.NewCaptureLogger()
	s := NewServer(Config{CORSOrigin: "*", MaxUploadMB: 1, TimeoutSec: 1, Gatherer: reg}, &fakeProcessor{}, logger)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlateImageEndToEnd(t *testing.T) {
	out := t.TempDir()
	logger, _ := testutil.NewCaptureLogger()
	p, err := pipeline.NewBuilder().
		WithOutputDir(out).
		WithReader(&testutil.FakeReader{Text: "xyz 987, pasto"}).
		WithLogger(logger).
		Build()
	require.NoError(t, err)
	s := NewServer(Config{CORSOrigin: "*", MaxUploadMB: 4, TimeoutSec: 30, Gatherer: prometheus.NewRegistry()}, p, logger)

	data := pngBytes(t, testutil.GeneratePlateScene(testutil.DefaultPlateSceneConfig()))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image", "image", "car.png", data))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PlateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "XYZ 987", resp.Result.Plate.Plate)
	assert.Equal(t, "PASTO", resp.Result.Plate.City)
	assert.Equal(t, 240, resp.Result.PlateHeight)
	assert.FileExists(t, filepath.Join(out, resp.RequestID+"_car_prep.jpg"))

	blank := pngBytes(t, image.NewRGBA(image.Rect(0, 0, 64, 48)))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/plate/image", "image", "blank.png", blank))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failure_kind":"no_region_found"`)
}
