package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "placa"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PLACA"

	// DotEnvFile is read before environment variables are bound.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so that flags
// bound by the root command take part in resolution.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on v.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from files, environment variables and defaults,
// and validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile loads configuration from configFile, or from the search path
// when configFile is empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation is LoadWithFile without the validation step.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile)
}

func (l *Loader) load(configFile string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// loadDotEnv exports the variables of path that are not already set.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("error reading %s: %w", path, err)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables maps PLACA_OCR_ENDPOINT to ocr.endpoint and so on.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so that AutomaticEnv can resolve it
// during Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("segment.hue_min", d.Segment.HueMin)
	l.v.SetDefault("segment.hue_max", d.Segment.HueMax)
	l.v.SetDefault("segment.sat_min", d.Segment.SatMin)
	l.v.SetDefault("segment.sat_max", d.Segment.SatMax)
	l.v.SetDefault("segment.val_min", d.Segment.ValMin)
	l.v.SetDefault("segment.val_max", d.Segment.ValMax)
	l.v.SetDefault("segment.kernel_divisor", d.Segment.KernelDivisor)
	l.v.SetDefault("segment.kernel_min", d.Segment.KernelMin)
	l.v.SetDefault("segment.kernel_max", d.Segment.KernelMax)
	l.v.SetDefault("segment.open_iterations", d.Segment.OpenIterations)
	l.v.SetDefault("segment.close_iterations", d.Segment.CloseIterations)

	l.v.SetDefault("region.close_iterations", d.Region.CloseIterations)
	l.v.SetDefault("region.min_aspect", d.Region.MinAspect)
	l.v.SetDefault("region.max_aspect", d.Region.MaxAspect)

	l.v.SetDefault("rectify.target_height", d.Rectify.TargetHeight)
	l.v.SetDefault("rectify.min_width", d.Rectify.MinWidth)
	l.v.SetDefault("rectify.margin", d.Rectify.Margin)

	l.v.SetDefault("enhance.backend", d.Enhance.Backend)
	l.v.SetDefault("enhance.clip_limit", d.Enhance.ClipLimit)
	l.v.SetDefault("enhance.tile_grid", d.Enhance.TileGrid)
	l.v.SetDefault("enhance.bilateral_diameter", d.Enhance.BilateralDiameter)
	l.v.SetDefault("enhance.sigma_color", d.Enhance.SigmaColor)
	l.v.SetDefault("enhance.sigma_space", d.Enhance.SigmaSpace)
	l.v.SetDefault("enhance.blur_sigma", d.Enhance.BlurSigma)
	l.v.SetDefault("enhance.jpeg_quality", d.Enhance.JPEGQuality)

	l.v.SetDefault("ocr.backend", d.OCR.Backend)
	l.v.SetDefault("ocr.endpoint", d.OCR.Endpoint)
	l.v.SetDefault("ocr.model", d.OCR.Model)
	l.v.SetDefault("ocr.temperature", d.OCR.Temperature)
	l.v.SetDefault("ocr.num_predict", d.OCR.NumPredict)
	l.v.SetDefault("ocr.timeout_sec", d.OCR.TimeoutSec)
	l.v.SetDefault("ocr.aws_region", d.OCR.AWSRegion)
	l.v.SetDefault("ocr.min_confidence", d.OCR.MinConfidence)

	l.v.SetDefault("output.dir", d.Output.Dir)
	l.v.SetDefault("output.debug_dir", d.Output.DebugDir)
	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.file", d.Output.File)

	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("batch.recursive", d.Batch.Recursive)
	l.v.SetDefault("batch.include", d.Batch.Include)
	l.v.SetDefault("batch.exclude", d.Batch.Exclude)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}

// GetResolvedConfig returns the current resolved settings.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteYAML writes cfg as YAML to w.
func WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// GenerateDefaultConfigFile writes the default configuration to filename,
// placa.yaml when empty. Existing files are not overwritten.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := WriteYAML(f, &cfg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "placa"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "placa"))
	}

	return append(paths, "/etc/placa")
}
