package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	License   LicenseConfig   `yaml:"license" envconfig:"LICENSE"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// LicenseConfig locates the persisted license state.
// The protocol constants themselves live in constants.go and are not configurable.
type LicenseConfig struct {
	File string `yaml:"file" envconfig:"FILE" validate:"required"`
}

// ServerConfig contains the local license API configuration
type ServerConfig struct {
	ListenAddr              string        `yaml:"listen_addr" envconfig:"LISTEN_ADDR" validate:"required,hostname_port"`
	ReadTimeout             time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout            time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout         time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ActivationRatePerMinute int           `yaml:"activation_rate_per_minute" envconfig:"ACTIVATION_RATE_PER_MINUTE" validate:"gte=1"`
	ActivationBurst         int           `yaml:"activation_burst" envconfig:"ACTIVATION_BURST" validate:"gte=1"`
}

// TelemetryConfig contains local-only OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
}

// Load loads configuration for the running executable.
// Precedence: defaults < vocanote.yaml beside the executable < VOCANOTE_* environment.
func Load() (*Config, error) {
	paths, err := GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	return LoadWithPaths(paths)
}

// LoadWithPaths loads configuration relative to an explicit path set
func LoadWithPaths(paths *Paths) (*Config, error) {
	cfg := Default(paths)

	if FileExists(paths.ConfigFile) {
		if err := loadFromFile(paths.ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching environment variable are left untouched
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.resolvePaths(paths)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file on top of cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths makes relative file locations executable-relative
func (c *Config) resolvePaths(paths *Paths) {
	c.License.File = paths.GetRelativePath(c.License.File)
	if c.Logging.FilePath != "" {
		c.Logging.FilePath = paths.GetRelativePath(c.Logging.FilePath)
	}
}

// Validate validates the configuration using struct tags
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Default returns the default configuration for a path set
func Default(paths *Paths) *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   DefaultLogOutput,
			FilePath: filepath.Join(paths.LogsDir, DefaultLogFileName),
		},
		License: LicenseConfig{
			File: paths.LicenseFile,
		},
		Server: ServerConfig{
			ListenAddr:              DefaultListenAddr,
			ReadTimeout:             DefaultReadTimeout,
			WriteTimeout:            DefaultWriteTimeout,
			ShutdownTimeout:         DefaultShutdownTimeout,
			ActivationRatePerMinute: ActivationRateLimit,
			ActivationBurst:         ActivationRateBurst,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    DefaultTelemetryService,
			MetricsEnabled: DefaultMetricsEnabled,
			TraceExporter:  DefaultTraceExporter,
		},
	}
}
