package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "glucoreport/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "GLUCO"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Examples  ExamplesConfig  `yaml:"examples" envconfig:"EXAMPLES"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// ReportConfig controls where and how the report document is written.
// Empty directories resolve at run time: OutputDir to the user's documents
// folder, FallbackDir to the system temp dir.
type ReportConfig struct {
	OutputDir   string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	FallbackDir string        `yaml:"fallback_dir" envconfig:"FALLBACK_DIR"`
	Title       string        `yaml:"title" envconfig:"TITLE" validate:"required,max=120"`
	PDF         bool          `yaml:"pdf" envconfig:"PDF"`
	PDFTimeout  time.Duration `yaml:"pdf_timeout" envconfig:"PDF_TIMEOUT" validate:"gt=0"`
}

// ChartsConfig sizes the rendered PNG charts.
type ChartsConfig struct {
	Width  int     `yaml:"width" envconfig:"WIDTH" validate:"min=200,max=4000"`
	Height int     `yaml:"height" envconfig:"HEIGHT" validate:"min=150,max=3000"`
	DPI    float64 `yaml:"dpi" envconfig:"DPI" validate:"min=50,max=600"`
}

// ExamplesConfig locates the example data folder used when no input is given.
type ExamplesConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR"`
}

// ServerConfig contains HTTP shell configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST"`
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	QueueSize       int             `yaml:"queue_size" envconfig:"QUEUE_SIZE" validate:"min=1,max=100"`
	RunRetention    time.Duration   `yaml:"run_retention" envconfig:"RUN_RETENTION" validate:"gt=0"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"min=1024"`
	UploadDir       string          `yaml:"upload_dir" envconfig:"UPLOAD_DIR"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// TelemetryConfig toggles tracing and metrics.
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceStdout   bool    `yaml:"trace_stdout" envconfig:"TRACE_STDOUT"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
	MetricsEnable bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Addr returns the listen address for the HTTP shell.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load loads configuration from the config file (if any) and the environment.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
	}

	// Variables that are not set leave the current value untouched.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays YAML values on top of cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks every section against its validation tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/glucoreport.log",
		},
		Report: ReportConfig{
			Title:      "Glucose Session Report",
			PDFTimeout: 30 * time.Second,
		},
		Charts: ChartsConfig{
			Width:  800,
			Height: 400,
			DPI:    100,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			QueueSize:       4,
			RunRetention:    time.Hour,
			MaxUploadBytes:  10 << 20,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			ServiceName:   "glucoreport",
			SampleRatio:   1,
			MetricsEnable: true,
		},
	}
}
