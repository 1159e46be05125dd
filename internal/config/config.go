// Package config provides YAML configuration loading and validation for the
// media normalization service.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP boundary configuration.
type ServerConfig struct {
	Address     string `yaml:"address"`
	Port        int    `yaml:"port"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
}

// PipelineConfig contains coordinator and conversion parameters.
type PipelineConfig struct {
	TempDir           string  `yaml:"temp_dir"`
	FFmpegPath        string  `yaml:"ffmpeg_path"`
	FFprobePath       string  `yaml:"ffprobe_path"`
	ConvertTimeout    int     `yaml:"convert_timeout"`    // seconds
	DurationTolerance float64 `yaml:"duration_tolerance"` // seconds
	MaxConcurrentJobs int     `yaml:"max_concurrent_jobs"`
	JobRetention      int     `yaml:"job_retention"` // seconds
}

// RenderConfig contains font and canvas parameters.
type RenderConfig struct {
	FontsDir      string  `yaml:"fonts_dir"`
	DefaultFont   string  `yaml:"default_font"`
	FontSize      float64 `yaml:"font_size"`
	MaxTextLength int     `yaml:"max_text_length"`
	DefaultWidth  int     `yaml:"default_width"`
	DefaultHeight int     `yaml:"default_height"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:     "0.0.0.0",
			Port:        8080,
			BodyLimitMB: 32,
		},
		Pipeline: PipelineConfig{
			TempDir:           os.TempDir(),
			FFmpegPath:        "ffmpeg",
			FFprobePath:       "ffprobe",
			ConvertTimeout:    60,
			DurationTolerance: 0.5,
			MaxConcurrentJobs: 8,
			JobRetention:      1800,
		},
		Render: RenderConfig{
			FontsDir:      "fonts",
			DefaultFont:   "goregular",
			FontSize:      36,
			MaxTextLength: 2000,
			DefaultWidth:  1080,
			DefaultHeight: 1080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration file, applying defaults for absent values.
// A missing file yields the defaults, matching first-run behavior.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, config.Validate()
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of the complete configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if s.BodyLimitMB < 1 {
		return fmt.Errorf("body_limit_mb must be at least 1, got %d", s.BodyLimitMB)
	}
	return nil
}

// Validate validates pipeline configuration.
func (p *PipelineConfig) Validate() error {
	if p.TempDir == "" {
		return fmt.Errorf("temp_dir cannot be empty")
	}
	if p.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path cannot be empty")
	}
	if p.FFprobePath == "" {
		return fmt.Errorf("ffprobe_path cannot be empty")
	}
	if p.ConvertTimeout < 1 {
		return fmt.Errorf("convert_timeout must be at least 1 second, got %d", p.ConvertTimeout)
	}
	if p.DurationTolerance < 0 {
		return fmt.Errorf("duration_tolerance cannot be negative, got %f", p.DurationTolerance)
	}
	if p.MaxConcurrentJobs < 1 {
		return fmt.Errorf("max_concurrent_jobs must be at least 1, got %d", p.MaxConcurrentJobs)
	}
	if p.JobRetention < 1 {
		return fmt.Errorf("job_retention must be at least 1 second, got %d", p.JobRetention)
	}
	return nil
}

// Validate validates render configuration.
func (r *RenderConfig) Validate() error {
	if r.FontsDir == "" {
		return fmt.Errorf("fonts_dir cannot be empty")
	}
	if r.DefaultFont == "" {
		return fmt.Errorf("default_font cannot be empty")
	}
	if r.FontSize <= 0 {
		return fmt.Errorf("font_size must be positive, got %f", r.FontSize)
	}
	if r.MaxTextLength < 1 {
		return fmt.Errorf("max_text_length must be at least 1, got %d", r.MaxTextLength)
	}
	if r.DefaultWidth < 1 || r.DefaultHeight < 1 {
		return fmt.Errorf("default canvas dimensions must be positive, got %dx%d", r.DefaultWidth, r.DefaultHeight)
	}
	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}
	return nil
}

// GetConvertTimeout returns the conversion timeout as a time.Duration.
func (p *PipelineConfig) GetConvertTimeout() time.Duration {
	return time.Duration(p.ConvertTimeout) * time.Second
}

// GetDurationTolerance returns the drift tolerance as a time.Duration.
func (p *PipelineConfig) GetDurationTolerance() time.Duration {
	return time.Duration(p.DurationTolerance * float64(time.Second))
}

// GetJobRetention returns the finished-job retention as a time.Duration.
func (p *PipelineConfig) GetJobRetention() time.Duration {
	return time.Duration(p.JobRetention) * time.Second
}
