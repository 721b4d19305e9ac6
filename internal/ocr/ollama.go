package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaClient talks to the Ollama chat API.
type OllamaClient struct {
	cfg    Config
	client *api.Client
	err    error // endpoint parse failure, reported by ReadPlate
	logger *slog.Logger
}

// NewOllamaClient returns a client for cfg.Endpoint. A nil httpClient uses
// http.DefaultClient; deadlines come from the call context.
func NewOllamaClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *OllamaClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &OllamaClient{cfg: cfg, logger: logger}
	base, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		c.err = err
		return c
	}
	c.client = api.NewClient(base, httpClient)
	return c
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama endpoint %q: scheme and host required", endpoint)
	}
	return u, nil
}

// ReadPlate sends the image with the configured prompts and returns the
// assistant message.
func (c *OllamaClient) ReadPlate(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read ocr input %s: %w", imagePath, err)
	}
	if c.err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, c.err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.cfg.Model,
		Messages: []api.Message{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: c.cfg.UserPrompt, Images: []api.ImageData{data}},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": c.cfg.NumPredict,
		},
	}

	start := time.Now()
	var (
		content  strings.Builder
		answered bool
	)
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		answered = true
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// A non-2xx status without a body produces no callback.
	if !answered {
		return "", fmt.Errorf("%w: no chat response", ErrUnavailable)
	}

	text := strings.TrimSpace(content.String())
	c.logger.Debug("ollama response",
		"model", c.cfg.Model,
		"image", imagePath,
		"chars", len(text),
		"duration", time.Since(start))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
