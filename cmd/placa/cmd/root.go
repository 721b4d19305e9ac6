package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/placa/internal/config"
	"github.com/MeKo-Tech/placa/internal/ocr"
	"github.com/MeKo-Tech/placa/internal/pipeline"
	"github.com/MeKo-Tech/placa/internal/version"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// flagKeys maps command-line flags onto configuration keys. Flags override
// the config file and PLACA_ environment variables when set.
var flagKeys = map[string]string{
	"verbose":        "verbose",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"output-dir":     "output.dir",
	"debug-dir":      "output.debug_dir",
	"format":         "output.format",
	"output":         "output.file",
	"ocr-backend":    "ocr.backend",
	"ocr-endpoint":   "ocr.endpoint",
	"ocr-model":      "ocr.model",
	"ocr-timeout":    "ocr.timeout_sec",
	"aws-region":     "ocr.aws_region",
	"min-confidence": "ocr.min_confidence",
	"enhance":        "enhance.backend",
	"workers":        "batch.workers",
	"recursive":      "batch.recursive",
	"include":        "batch.include",
	"exclude":        "batch.exclude",
	"host":           "server.host",
	"port":           "server.port",
	"cors-origin":    "server.cors_origin",
	"max-upload-mb":  "server.max_upload_mb",
	"timeout":        "server.timeout_sec",
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "placa",
	Short: "Yellow license plate reader",
	Long: `placa finds a yellow license plate in a photograph, corrects its
perspective, enhances it for recognition, reads its text through an OCR
backend and normalizes the result into a plate code and a city.

Examples:
  placa image car.jpg
  placa batch placas/ --format csv --output results.csv
  placa serve --port 8080
  placa normalize "abc-123, bogota"`,
	Version:           version.String(),
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command and exits non-zero on error. SIGINT and
// SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is placa.yaml in ., $HOME, $XDG_CONFIG_HOME/placa, /etc/placa)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("output-dir", "output", "directory for enhanced plate images")
	rootCmd.PersistentFlags().String("debug-dir", "", "write intermediate masks, overlays and warps here")
	rootCmd.PersistentFlags().String("ocr-backend", ocr.BackendOllama, "OCR backend (ollama, rekognition, none)")
	rootCmd.PersistentFlags().String("ocr-endpoint", "http://localhost:11434", "Ollama server URL")
	rootCmd.PersistentFlags().String("ocr-model", "moondream", "Ollama vision model")
	rootCmd.PersistentFlags().Int("ocr-timeout", 60, "OCR request timeout in seconds")
	rootCmd.PersistentFlags().String("aws-region", "us-east-1", "AWS region for rekognition")
	rootCmd.PersistentFlags().Float64("min-confidence", 0, "minimum rekognition line confidence (0..100)")
	rootCmd.PersistentFlags().String("enhance", "", "enhancement backend (native, gocv); empty selects the build default")
}

// initConfig resolves flags, config file, .env and environment into
// globalConfig and installs the default logger.
func initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("bind flags: %w", bindErr)
	}

	configLoader = config.NewLoaderWithViper(v)
	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	globalConfig = cfg

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg))
	return nil
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// GetConfig returns the resolved configuration of the running command.
func GetConfig() *config.Config {
	if globalConfig == nil {
		cfg := config.DefaultConfig()
		return &cfg
	}
	return globalConfig
}

// buildPipeline creates the pipeline and, unless disabled, its OCR reader.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, configure func(*pipeline.Builder)) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().WithConfig(cfg.ToPipelineConfig()).WithLogger(logger)

	if cfg.OCREnabled() {
		ocfg := cfg.ToOCRConfig()
		reader, err := ocr.New(ctx, ocfg, logger.With("stage", "ocr"))
		if err != nil {
			return nil, fmt.Errorf("create OCR backend: %w", err)
		}
		b = b.WithReader(ocr.WithTimeout(reader, ocfg.Timeout))
	}
	if configure != nil {
		configure(b)
	}
	return b.Build()
}
