//nolint:lll
package config

// Config represents the complete configuration for the placa plate reader.
// It covers all commands (image, batch, serve) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline stages
	Segment SegmentConfig `mapstructure:"segment" yaml:"segment" json:"segment"`
	Region  RegionConfig  `mapstructure:"region" yaml:"region" json:"region"`
	Rectify RectifyConfig `mapstructure:"rectify" yaml:"rectify" json:"rectify"`
	Enhance EnhanceConfig `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
	Batch  BatchConfig  `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// SegmentConfig contains the HSV color box and the morphology settings.
type SegmentConfig struct {
	HueMin int `mapstructure:"hue_min" yaml:"hue_min" json:"hue_min"`
	HueMax int `mapstructure:"hue_max" yaml:"hue_max" json:"hue_max"`
	SatMin int `mapstructure:"sat_min" yaml:"sat_min" json:"sat_min"`
	SatMax int `mapstructure:"sat_max" yaml:"sat_max" json:"sat_max"`
	ValMin int `mapstructure:"val_min" yaml:"val_min" json:"val_min"`
	ValMax int `mapstructure:"val_max" yaml:"val_max" json:"val_max"`

	KernelDivisor   int `mapstructure:"kernel_divisor" yaml:"kernel_divisor" json:"kernel_divisor"`
	KernelMin       int `mapstructure:"kernel_min" yaml:"kernel_min" json:"kernel_min"`
	KernelMax       int `mapstructure:"kernel_max" yaml:"kernel_max" json:"kernel_max"`
	OpenIterations  int `mapstructure:"open_iterations" yaml:"open_iterations" json:"open_iterations"`
	CloseIterations int `mapstructure:"close_iterations" yaml:"close_iterations" json:"close_iterations"`
}

// RegionConfig contains contour selection settings.
type RegionConfig struct {
	CloseIterations int     `mapstructure:"close_iterations" yaml:"close_iterations" json:"close_iterations"`
	MinAspect       float64 `mapstructure:"min_aspect" yaml:"min_aspect" json:"min_aspect"`
	MaxAspect       float64 `mapstructure:"max_aspect" yaml:"max_aspect" json:"max_aspect"`
}

// RectifyConfig contains perspective correction settings.
type RectifyConfig struct {
	TargetHeight int     `mapstructure:"target_height" yaml:"target_height" json:"target_height"`
	MinWidth     int     `mapstructure:"min_width" yaml:"min_width" json:"min_width"`
	Margin       float64 `mapstructure:"margin" yaml:"margin" json:"margin"`
}

// EnhanceConfig contains contrast and sharpening settings.
type EnhanceConfig struct {
	Backend           string  `mapstructure:"backend" yaml:"backend" json:"backend"`
	ClipLimit         float64 `mapstructure:"clip_limit" yaml:"clip_limit" json:"clip_limit"`
	TileGrid          int     `mapstructure:"tile_grid" yaml:"tile_grid" json:"tile_grid"`
	BilateralDiameter int     `mapstructure:"bilateral_diameter" yaml:"bilateral_diameter" json:"bilateral_diameter"`
	SigmaColor        float64 `mapstructure:"sigma_color" yaml:"sigma_color" json:"sigma_color"`
	SigmaSpace        float64 `mapstructure:"sigma_space" yaml:"sigma_space" json:"sigma_space"`
	BlurSigma         float64 `mapstructure:"blur_sigma" yaml:"blur_sigma" json:"blur_sigma"`
	JPEGQuality       int     `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
}

// OCRConfig selects the text recognizer. Backend "none" disables OCR.
type OCRConfig struct {
	Backend       string  `mapstructure:"backend" yaml:"backend" json:"backend"`
	Endpoint      string  `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	Model         string  `mapstructure:"model" yaml:"model" json:"model"`
	Temperature   float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	NumPredict    int     `mapstructure:"num_predict" yaml:"num_predict" json:"num_predict"`
	TimeoutSec    int     `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	AWSRegion     string  `mapstructure:"aws_region" yaml:"aws_region" json:"aws_region"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir" json:"dir"`
	DebugDir string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
	Format   string `mapstructure:"format" yaml:"format" json:"format"`
	File     string `mapstructure:"file" yaml:"file" json:"file"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers   int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include   []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude   []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}
