// Package config loads the thaplmagic YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-thaplmagic/internal/fileutil"
	"github.com/alnah/go-thaplmagic/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength         = 4096 // executable or directory path
	MaxCommandLength      = 4096 // renderer command line
	MaxFormatLength       = 10   // "png", "svg", "jpeg"
	MaxSizeLength         = 20   // "400,240"
	MaxEncodingLength     = 40   // "utf-8", "iso-8859-15"
	MaxArtifactNameLength = 100  // "tikz"
	MaxTimeoutLength      = 20   // "2m30s"
)

// userConfigDirName is the directory under os.UserConfigDir.
const userConfigDirName = "thaplmagic"

// Config holds the settings shared by every render.
// Empty values keep the built-in defaults.
type Config struct {
	Tools    ToolsConfig    `yaml:"tools"`
	Renderer RendererConfig `yaml:"renderer"`
	Timeout  string         `yaml:"timeout"` // Go duration, e.g. "90s" (empty = none)
	Defaults DefaultsConfig `yaml:"defaults"`
	Output   OutputConfig   `yaml:"output"`
}

// ToolsConfig names the external executables.
type ToolsConfig struct {
	Engine      string `yaml:"engine"`      // default "xelatex"
	PDF2SVG     string `yaml:"pdf2svg"`     // default "pdf2svg"
	ImageMagick string `yaml:"imagemagick"` // default "convert", may be "magick convert"
}

// RendererConfig configures the Thapl interpreter call.
type RendererConfig struct {
	Command    string `yaml:"command"`    // default "python3 -m thapl.main"
	PythonPath string `yaml:"pythonPath"` // exported as PYTHONPATH when set
}

// DefaultsConfig overrides cell argument defaults.
type DefaultsConfig struct {
	Format   string `yaml:"format"`   // default "png"
	Size     string `yaml:"size"`     // default "400,240"
	Encoding string `yaml:"encoding"` // default "utf-8"
}

// OutputConfig defines where and under which name images are written.
type OutputConfig struct {
	ArtifactName string `yaml:"artifactName"` // default "tikz"
	Dir          string `yaml:"dir"`          // default directory for --publish dir
}

// Validate checks field lengths and value syntax.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"tools.engine", c.Tools.Engine, MaxPathLength},
		{"tools.pdf2svg", c.Tools.PDF2SVG, MaxPathLength},
		{"tools.imagemagick", c.Tools.ImageMagick, MaxPathLength},
		{"renderer.command", c.Renderer.Command, MaxCommandLength},
		{"renderer.pythonPath", c.Renderer.PythonPath, MaxPathLength},
		{"timeout", c.Timeout, MaxTimeoutLength},
		{"defaults.format", c.Defaults.Format, MaxFormatLength},
		{"defaults.size", c.Defaults.Size, MaxSizeLength},
		{"defaults.encoding", c.Defaults.Encoding, MaxEncodingLength},
		{"output.artifactName", c.Output.ArtifactName, MaxArtifactNameLength},
		{"output.dir", c.Output.Dir, MaxPathLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.Defaults.Format != "" {
		if err := fileutil.ValidateExtension(c.Defaults.Format); err != nil {
			return fmt.Errorf("%w: defaults.format %q: %v", ErrInvalidValue, c.Defaults.Format, err)
		}
	}
	if c.Defaults.Size != "" {
		if err := validateSize(c.Defaults.Size); err != nil {
			return err
		}
	}
	if c.Output.ArtifactName != "" {
		if err := fileutil.ValidateExtension(c.Output.ArtifactName); err != nil {
			return fmt.Errorf("%w: output.artifactName %q: %v", ErrInvalidValue, c.Output.ArtifactName, err)
		}
	}

	return nil
}

// TimeoutDuration parses Timeout. Empty means no timeout (0).
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q: %v", ErrInvalidValue, c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout %q: must be positive", ErrInvalidValue, c.Timeout)
	}
	return d, nil
}

// validateSize checks a "W,H" pair of positive integers.
func validateSize(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) == 2 {
		w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
		h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errW == nil && errH == nil && w > 0 && h > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: defaults.size %q (want \"W,H\" with positive integers)", ErrInvalidValue, s)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty configuration: every setting uses the
// built-in default.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists the files tried for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, userConfigDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/thaplmagic/
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
