// Package ocr reads plate text from an enhanced plate image through an
// external recognizer.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Reader returns the raw text recognized in the image at imagePath.
type Reader interface {
	ReadPlate(ctx context.Context, imagePath string) (string, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, imagePath string) (string, error)

// ReadPlate calls f.
func (f ReaderFunc) ReadPlate(ctx context.Context, imagePath string) (string, error) {
	return f(ctx, imagePath)
}

var (
	// ErrUnavailable means the recognizer could not be reached or refused the request.
	ErrUnavailable = errors.New("ocr: recognizer unavailable")
	// ErrEmptyResponse means the recognizer answered without any text.
	ErrEmptyResponse = errors.New("ocr: empty response")
)

const (
	BackendOllama      = "ollama"
	BackendRekognition = "rekognition"
)

const (
	DefaultSystemPrompt = "You are an OCR that reads car plates and city text below."
	DefaultUserPrompt   = "Read the plate and the city name from the image. " +
		"Return both separated by comma. An example of the result is: 'XYZ 123 , PASTO DC'"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend       string
	Endpoint      string
	Model         string
	Temperature   float64
	NumPredict    int
	SystemPrompt  string
	UserPrompt    string
	Timeout       time.Duration
	Region        string // AWS region for rekognition
	MinConfidence float32
}

// DefaultConfig targets a local Ollama server running moondream.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendOllama,
		Endpoint:     "http://localhost:11434",
		Model:        "moondream",
		Temperature:  0,
		NumPredict:   32,
		SystemPrompt: DefaultSystemPrompt,
		UserPrompt:   DefaultUserPrompt,
		Timeout:      60 * time.Second,
		Region:       "us-east-1",
	}
}

// Validate checks the backend specific fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendOllama:
		if c.Endpoint == "" {
			return errors.New("ollama endpoint must be set")
		}
		if _, err := parseEndpoint(c.Endpoint); err != nil {
			return err
		}
		if c.Model == "" {
			return errors.New("ollama model must be set")
		}
		if c.NumPredict < 0 {
			return fmt.Errorf("num_predict must not be negative, got %d", c.NumPredict)
		}
	case BackendRekognition:
		if c.Region == "" {
			return errors.New("rekognition region must be set")
		}
	default:
		return fmt.Errorf("unknown ocr backend %q", c.Backend)
	}
	if c.Timeout < 0 {
		return errors.New("ocr timeout must not be negative")
	}
	return nil
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ocr config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case BackendRekognition:
		return NewRekognitionReader(ctx, cfg, logger)
	default:
		return NewOllamaClient(cfg, nil, logger), nil
	}
}

// WithTimeout bounds every call of r by d. A zero d leaves r unchanged.
func WithTimeout(r Reader, d time.Duration) Reader {
	if d <= 0 {
		return r
	}
	return ReaderFunc(func(ctx context.Context, imagePath string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return r.ReadPlate(ctx, imagePath)
	})
}
