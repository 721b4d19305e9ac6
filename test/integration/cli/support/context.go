package support

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	TempDir string
	EnvVars []string

	// Fake Ollama endpoint answering OCR requests
	OCRServer *httptest.Server

	// In-process plate server
	PlateServer *httptest.Server

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a new test context with its own scratch directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "placa-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir: tempDir,
		// Keep the developer's own placa.yaml and .env out of reach.
		EnvVars: []string{"HOME=" + tempDir, "XDG_CONFIG_HOME=" + tempDir},
	}, nil
}

// Cleanup stops the servers and removes the scratch directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.PlateServer != nil {
		testCtx.PlateServer.Close()
		testCtx.PlateServer = nil
	}
	if testCtx.OCRServer != nil {
		testCtx.OCRServer.Close()
		testCtx.OCRServer = nil
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	return errors.Join(errs...)
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// substituteCommandVariables replaces {dir} and {ocr} in command strings.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	command = strings.ReplaceAll(command, "{dir}", testCtx.TempDir)
	if testCtx.OCRServer != nil {
		command = strings.ReplaceAll(command, "{ocr}", testCtx.OCRServer.URL)
	}
	return command
}
