// Package server exposes the plate pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/placa/internal/pipeline"
)

// plateProcessor is the part of the pipeline the server needs.
type plateProcessor interface {
	ProcessImage(ctx context.Context, img image.Image, name string) (*pipeline.Result, error)
	HasReader() bool
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    plateProcessor
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
	OCR     bool   `json:"ocr"`
}

// PlateResponse is returned by /plate/image.
type PlateResponse struct {
	Success     bool             `json:"success"`
	RequestID   string           `json:"request_id,omitempty"`
	Result      *pipeline.Result `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	FailureKind string           `json:"failure_kind,omitempty"`
}

// NewServer creates a server around p. A nil logger falls back to slog.Default().
func NewServer(cfg Config, p plateProcessor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	g := cfg.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{
		pipeline:    p,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		gatherer:    g,
		logger:      logger,
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/plate/image", s.corsMiddleware(s.plateImageHandler))
	mux.HandleFunc("/ws/plate", s.plateWebSocketHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler returns the routed handler with request IDs attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return requestIDMiddleware(mux)
}
