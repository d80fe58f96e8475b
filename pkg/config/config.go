// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/orchestrator"
	"github.com/user/gopcodec/pkg/pipeline"
	"github.com/user/gopcodec/pkg/ports"
)

// Config represents the full configuration for gopcodec.
type Config struct {
	// Codec
	BlockSize      int     `yaml:"block_size"`
	SearchRange    int     `yaml:"search_range"`
	Quality        int     `yaml:"quality"`
	GOPSize        int     `yaml:"gop_size"`
	BFrameInterval int     `yaml:"b_frame_interval"`
	FrameRate      float64 `yaml:"frame_rate"`
	Workers        int     `yaml:"workers"`

	// Input
	Input InputConfig `yaml:"input"`

	// Output
	Output OutputConfig `yaml:"output"`

	// Decoding
	Playback    string `yaml:"playback"`
	SkipCorrupt bool   `yaml:"skip_corrupt"`

	// Export
	Export ExportConfig `yaml:"export"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// InputConfig selects the frame source. Dir reads an image directory;
// otherwise a synthetic sequence of SyntheticFrames frames is generated.
// Width and Height are set together. Both zero keeps the size of the
// first image, or the synthetic default size.
type InputConfig struct {
	Dir             string `yaml:"dir"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	Channels        int    `yaml:"channels"`
	SyntheticFrames int    `yaml:"synthetic_frames"`
}

// OutputConfig names the stored artifacts. An empty MP4 path skips MP4.
type OutputConfig struct {
	Bitstream string `yaml:"bitstream"`
	Metadata  string `yaml:"metadata"`
	MP4       string `yaml:"mp4"`
}

// ExportConfig controls writing decoded frames as images.
type ExportConfig struct {
	Dir     string `yaml:"dir"`
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	c := codec.DefaultConfig()
	return Config{
		BlockSize:      c.BlockSize,
		SearchRange:    c.SearchRange,
		Quality:        c.Quality,
		GOPSize:        c.GOPSize,
		BFrameInterval: c.BFrameInterval,
		FrameRate:      c.FrameRate,

		Input: InputConfig{
			Channels:        3,
			SyntheticFrames: 30,
		},

		Output: OutputConfig{
			Bitstream: "stream.bin",
			Metadata:  "stream.json",
		},

		Playback: codec.PlaybackNormal.String(),

		Export: ExportConfig{
			Format:  "png",
			Quality: 90,
		},

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their default values.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the settings that are not covered by codec validation.
func (c Config) Validate() error {
	if err := c.ToCodecConfig().Validate(); err != nil {
		return err
	}
	if _, err := codec.ParsePlaybackMode(c.Playback); err != nil {
		return err
	}
	if _, err := ParseImageFormat(c.Export.Format); err != nil {
		return err
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Input.Channels != 1 && c.Input.Channels != 3 {
		return fmt.Errorf("input channels must be 1 or 3, got %d", c.Input.Channels)
	}
	if c.Input.Width < 0 || c.Input.Height < 0 || (c.Input.Width == 0) != (c.Input.Height == 0) {
		return fmt.Errorf("invalid input resolution %dx%d", c.Input.Width, c.Input.Height)
	}
	if c.Output.Bitstream == "" || c.Output.Metadata == "" {
		return fmt.Errorf("output bitstream and metadata paths are required")
	}
	return nil
}

// ParseImageFormat parses "png", "jpg" or "jpeg".
func ParseImageFormat(s string) (ports.ImageFormat, error) {
	switch strings.ToLower(s) {
	case "png":
		return ports.FormatPNG, nil
	case "jpg", "jpeg":
		return ports.FormatJPEG, nil
	default:
		return ports.FormatPNG, fmt.Errorf("unsupported image format %q", s)
	}
}

// ToCodecConfig converts Config to codec.Config.
func (c Config) ToCodecConfig() codec.Config {
	return codec.Config{
		BlockSize:      c.BlockSize,
		SearchRange:    c.SearchRange,
		Quality:        c.Quality,
		GOPSize:        c.GOPSize,
		BFrameInterval: c.BFrameInterval,
		FrameRate:      c.FrameRate,
		Workers:        c.Workers,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config. Call
// Validate first; unparsable values fall back to defaults here.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	mode, _ := codec.ParsePlaybackMode(c.Playback)
	format, _ := ParseImageFormat(c.Export.Format)
	artifacts := pipeline.Artifacts{
		BitstreamPath: c.Output.Bitstream,
		MetadataPath:  c.Output.Metadata,
		MP4Path:       c.Output.MP4,
	}
	return orchestrator.Config{
		Codec:  c.ToCodecConfig(),
		Output: artifacts,
		Input:  artifacts,

		Mode:        mode,
		SkipCorrupt: c.SkipCorrupt,

		ExportDir:     c.Export.Dir,
		ExportFormat:  format,
		ExportQuality: c.Export.Quality,
	}
}
