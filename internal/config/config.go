// Package config handles converter configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Output formats.
const (
	FormatGLB  = "glb"
	FormatGLTF = "gltf"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all converter settings.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Import  ImportConfig  `yaml:"import"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig controls the written document.
type OutputConfig struct {
	Format      string `yaml:"format"` // glb or gltf
	Dir         string `yaml:"dir"`
	Generator   string `yaml:"generator"`
	DoubleSided bool   `yaml:"double_sided"`
	TextureDir  string `yaml:"texture_dir"` // URI prefix for texture images
}

// ImportConfig controls model conversion.
type ImportConfig struct {
	TimeScale     float32 `yaml:"time_scale"` // seconds per keyframe frame
	FlipY         bool    `yaml:"flip_y"`
	ForceTwoSided bool    `yaml:"force_two_sided"`
	SmoothNormals bool    `yaml:"smooth_normals"`
}

// DataConfig holds game data locations. Directories are searched before
// archives.
type DataConfig struct {
	Dirs     []string `yaml:"dirs"`
	GRFPaths []string `yaml:"grf_paths"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:     FormatGLB,
			Dir:        ".",
			Generator:  "meshforge",
			TextureDir: "texture",
		},
		Import: ImportConfig{
			TimeScale:     0.001,
			FlipY:         true,
			SmoothNormals: true,
		},
		Data: DataConfig{
			Dirs:     []string{"."},
			GRFPaths: []string{"data.grf"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatGLB, FormatGLTF:
	default:
		return fmt.Errorf("%w: output format %q", ErrInvalidConfig, c.Output.Format)
	}
	if c.Import.TimeScale <= 0 {
		return fmt.Errorf("%w: time scale %v", ErrInvalidConfig, c.Import.TimeScale)
	}
	return nil
}

// Binary reports whether output is a .glb container.
func (c *Config) Binary() bool {
	return c.Output.Format == FormatGLB
}

// Ext returns the output file extension including the dot.
func (c *Config) Ext() string {
	return "." + c.Output.Format
}
