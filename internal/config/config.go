package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/avatarcrop/pkg/geometry"
	"github.com/menta2k/avatarcrop/pkg/imagestore"
	"github.com/menta2k/avatarcrop/pkg/processing"
	"github.com/menta2k/avatarcrop/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Crop   CropConfig   `yaml:"crop"`
	Output OutputConfig `yaml:"output"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// CropConfig holds the mask geometry and output canvas
type CropConfig struct {
	geometry.Limits `yaml:",inline"`
	OutputWidth     int `yaml:"output_width"`
	OutputHeight    int `yaml:"output_height"`
	MinImageSize    int `yaml:"min_image_size"`
}

// OutputConfig holds the encoding of the cropped result
type OutputConfig struct {
	Format   string `yaml:"format"`
	Quality  int    `yaml:"quality"`
	Lossless bool   `yaml:"lossless"`
}

// StoreConfig selects how temporary crops are held
type StoreConfig struct {
	Kind string `yaml:"kind"`
	Dir  string `yaml:"dir"`
}

// ServerConfig holds the HTTP host settings
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: CropConfig{
			Limits:       geometry.DefaultLimits(),
			OutputWidth:  geometry.OutputSize,
			OutputHeight: geometry.OutputSize,
			MinImageSize: 100,
		},
		Output: OutputConfig{
			Format:  processing.FormatJPEG,
			Quality: 90,
		},
		Store: StoreConfig{
			Kind: imagestore.KindMemory,
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8790",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Crop.MinMargin < 0 {
		return fmt.Errorf("crop.min_margin must not be negative")
	}

	if c.Crop.MinScale < 1 {
		return fmt.Errorf("crop.min_scale must be at least 1 so the image covers the mask")
	}

	if c.Crop.MaxScale < c.Crop.MinScale {
		return fmt.Errorf("crop.max_scale must be >= crop.min_scale")
	}

	if c.Crop.OutputWidth <= 0 || c.Crop.OutputHeight <= 0 {
		return fmt.Errorf("crop.output_width and crop.output_height must be positive")
	}

	switch strings.ToLower(c.Output.Format) {
	case processing.FormatJPEG, "jpeg", processing.FormatPNG, processing.FormatWebP:
	default:
		return fmt.Errorf("output.format must be one of jpg, png, webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Store.Kind != imagestore.KindMemory && c.Store.Kind != imagestore.KindFile {
		return fmt.Errorf("store.kind must be %q or %q", imagestore.KindMemory, imagestore.KindFile)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// Encoder returns the output encoder described by the configuration
func (c *Config) Encoder() processing.Encoder {
	return processing.Encoder{
		Format:   c.Output.Format,
		Quality:  c.Output.Quality,
		Lossless: c.Output.Lossless,
	}
}

// DisplaySize returns the output canvas size
func (c *Config) DisplaySize() types.Size {
	return types.Size{Width: float64(c.Crop.OutputWidth), Height: float64(c.Crop.OutputHeight)}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "avatarcrop", "config.yaml")
}
