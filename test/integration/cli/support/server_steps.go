package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MeKo-Tech/placa/internal/ocr"
	"github.com/MeKo-Tech/placa/internal/pipeline"
	"github.com/MeKo-Tech/placa/internal/server"
)

// thePlateServerIsRunning starts the HTTP API in-process, reading plates
// through the fake OCR server when one was started.
func (testCtx *TestContext) thePlateServerIsRunning() error {
	reg := prometheus.NewRegistry()
	b := pipeline.NewBuilder().
		WithOutputDir(filepath.Join(testCtx.TempDir, "output")).
		WithMetrics(pipeline.NewMetrics(reg))

	if testCtx.OCRServer != nil {
		cfg := ocr.DefaultConfig()
		cfg.Endpoint = testCtx.OCRServer.URL
		cfg.Timeout = 10 * time.Second
		reader, err := ocr.New(context.Background(), cfg, nil)
		if err != nil {
			return fmt.Errorf("failed to create OCR reader: %w", err)
		}
		b = b.WithReader(reader)
	}

	p, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	srv := server.NewServer(server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: 5,
		TimeoutSec:  30,
		Gatherer:    reg,
	}, p, nil)
	testCtx.PlateServer = httptest.NewServer(srv.Handler())
	return nil
}

// uploadFile posts a file from the scratch directory as the "image" field.
func (testCtx *TestContext) uploadFile(name, path string) error {
	data, err := os.ReadFile(filepath.Join(testCtx.TempDir, name))
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		testCtx.PlateServer.URL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) iUploadTo(name, path string) error {
	if testCtx.PlateServer == nil {
		return errors.New("plate server is not running")
	}
	return testCtx.uploadFile(name, path)
}

func (testCtx *TestContext) iGET(path string) error {
	if testCtx.PlateServer == nil {
		return errors.New("plate server is not running")
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, testCtx.PlateServer.URL+path, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) do(req *http.Request) error {
	resp, err := testCtx.PlateServer.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain %q: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseFieldShouldBe compares a dotted JSON path such as result.plate.plate.
func (testCtx *TestContext) theResponseFieldShouldBe(field, want string) error {
	var doc any
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &doc); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}
	cur := doc
	for part := range strings.SplitSeq(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return fmt.Errorf("field %s not found in %s", field, testCtx.LastHTTPResponse)
		}
		if cur, ok = m[part]; !ok {
			return fmt.Errorf("field %s not found in %s", field, testCtx.LastHTTPResponse)
		}
	}
	if got := fmt.Sprint(cur); got != want {
		return fmt.Errorf("field %s is %q, want %q", field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBeSet(name string) error {
	if testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)] == "" {
		return fmt.Errorf("header %s missing in %v", name, testCtx.LastHTTPHeaders)
	}
	return nil
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the plate server is running$`, testCtx.thePlateServerIsRunning)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseFieldShouldBe)
	sc.Step(`^the response header "([^"]*)" should be set$`, testCtx.theResponseHeaderShouldBeSet)
}
