package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/placa/internal/pipeline"
	"github.com/MeKo-Tech/placa/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the plate API",
	Long: `Start an HTTP server that reads plates from uploaded images.

The server provides the following endpoints:
  POST /plate/image - Process an uploaded image (multipart field "image")
  GET  /ws/plate    - WebSocket streaming of plate requests
  GET  /health      - Health check endpoint
  GET  /metrics     - Prometheus metrics

Examples:
  placa serve
  placa serve --port 8080
  placa serve --host 0.0.0.0 --port 3000 --ocr-endpoint http://ollama:11434`,
	RunE: runServeCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-mb", 20, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 120, "request timeout in seconds")
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()
	logger := slog.Default()

	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)
	p, err := buildPipeline(cmd.Context(), cfg, logger, func(b *pipeline.Builder) { b.WithMetrics(metrics) })
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	srv := server.NewServer(server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigin:  cfg.Server.CORSOrigin,
		MaxUploadMB: int64(cfg.Server.MaxUploadMB),
		TimeoutSec:  cfg.Server.TimeoutSec,
	}, p, logger)

	timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting plate server",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"ocr", p.HasReader())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", cfg.Server.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	default:
		logger.Info("Graceful shutdown completed")
		return nil
	}
}
