package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-splitter/pkg/analyzer"
	"github.com/menta2k/image-splitter/pkg/cropper"
	"github.com/menta2k/image-splitter/pkg/export"
	"github.com/menta2k/image-splitter/pkg/processing"
	"github.com/menta2k/image-splitter/pkg/slicer"
)

// EnvConfigPath names the environment variable that overrides the config
// file location.
const EnvConfigPath = "IMAGE_SPLITTER_CONFIG"

// Config holds the application configuration
type Config struct {
	Cropper  cropper.CropConfig `json:"cropper" yaml:"cropper"`
	Slicer   SlicerConfig       `json:"slicer" yaml:"slicer"`
	Limits   LimitsConfig       `json:"limits" yaml:"limits"`
	Export   ExportConfig       `json:"export" yaml:"export"`
	LogLevel string             `json:"log_level" yaml:"log_level"`
}

// SlicerConfig holds the defaults for a slicing request
type SlicerConfig struct {
	DefaultRows    int     `json:"default_rows" yaml:"default_rows"`
	DefaultCols    int     `json:"default_cols" yaml:"default_cols"`
	DefaultFormat  string  `json:"default_format" yaml:"default_format"`
	DefaultQuality float64 `json:"default_quality" yaml:"default_quality"`
	// AutoGrid picks rows and columns from the aspect ratio when a request
	// leaves them unset.
	AutoGrid bool `json:"auto_grid" yaml:"auto_grid"`
}

// LimitsConfig holds upload limits for the two flows
type LimitsConfig struct {
	CropMaxFileSize  int64 `json:"crop_max_file_size" yaml:"crop_max_file_size"`
	SliceMaxFileSize int64 `json:"slice_max_file_size" yaml:"slice_max_file_size"`
}

// ExportConfig holds configuration for output generation
type ExportConfig struct {
	OutputDir       string `json:"output_dir" yaml:"output_dir"`
	BaseName        string `json:"base_name" yaml:"base_name"`
	Folder          string `json:"folder" yaml:"folder"`
	ArchiveName     string `json:"archive_name" yaml:"archive_name"`
	Archive         bool   `json:"archive" yaml:"archive"`
	FallbackDelayMS int    `json:"fallback_delay_ms" yaml:"fallback_delay_ms"`
	ReleaseDelayMS  int    `json:"release_delay_ms" yaml:"release_delay_ms"`
}

// Default returns a configuration with default values
func Default() *Config {
	exp := export.DefaultConfig()
	return &Config{
		Cropper: cropper.DefaultConfig(),
		Slicer: SlicerConfig{
			DefaultRows:    2,
			DefaultCols:    2,
			DefaultFormat:  string(processing.PNG),
			DefaultQuality: 0.9,
			AutoGrid:       true,
		},
		Limits: LimitsConfig{
			CropMaxFileSize:  analyzer.CropFlowMaxSize,
			SliceMaxFileSize: analyzer.SliceFlowMaxSize,
		},
		Export: ExportConfig{
			OutputDir:       "./output",
			BaseName:        exp.BaseName,
			Folder:          exp.Folder,
			ArchiveName:     exp.ArchiveName,
			Archive:         true,
			FallbackDelayMS: int(exp.FallbackDelay / time.Millisecond),
			ReleaseDelayMS:  int(exp.ReleaseDelay / time.Millisecond),
		},
		LogLevel: "info",
	}
}

// ExporterConfig converts the export section for export.NewWithConfig.
func (c *Config) ExporterConfig() export.Config {
	return export.Config{
		BaseName:      c.Export.BaseName,
		Folder:        c.Export.Folder,
		ArchiveName:   c.Export.ArchiveName,
		FallbackDelay: time.Duration(c.Export.FallbackDelayMS) * time.Millisecond,
		ReleaseDelay:  time.Duration(c.Export.ReleaseDelayMS) * time.Millisecond,
	}
}

// SliceSpec returns the default slicing request.
func (c *Config) SliceSpec() slicer.SliceSpec {
	return slicer.SliceSpec{
		Rows:    c.Slicer.DefaultRows,
		Cols:    c.Slicer.DefaultCols,
		Format:  processing.ParseFormat(c.Slicer.DefaultFormat),
		Quality: c.Slicer.DefaultQuality,
	}
}

// Level parses LogLevel. Unknown values fall back to info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as JSON, or YAML for .yaml/.yml names
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(isYAML(filename))
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal encodes the configuration as indented JSON or as YAML.
func (c *Config) Marshal(asYAML bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if asYAML {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Cropper.Validate(); err != nil {
		return fmt.Errorf("cropper: %w", err)
	}

	if err := c.SliceSpec().Validate(); err != nil {
		return fmt.Errorf("slicer defaults: %w", err)
	}

	if c.Limits.CropMaxFileSize <= 0 || c.Limits.SliceMaxFileSize <= 0 {
		return fmt.Errorf("limits must be positive")
	}

	if c.Export.BaseName == "" || c.Export.ArchiveName == "" {
		return fmt.Errorf("export.base_name and export.archive_name cannot be empty")
	}

	if c.Export.FallbackDelayMS < 0 || c.Export.ReleaseDelayMS < 0 {
		return fmt.Errorf("export delays cannot be negative")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	return nil
}

// GetConfigPath returns the configuration file path, honouring
// IMAGE_SPLITTER_CONFIG.
func GetConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-splitter", "config.json")
}
