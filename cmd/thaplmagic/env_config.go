package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-thaplmagic/internal/config"
)

// envPrefix is the prefix of every recognized environment variable.
const envPrefix = "THAPLMAGIC_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string        // THAPLMAGIC_CONFIG: config file path
	Engine      string        // THAPLMAGIC_ENGINE: LaTeX engine
	PDF2SVG     string        // THAPLMAGIC_PDF2SVG: pdf2svg executable
	ImageMagick string        // THAPLMAGIC_IMAGEMAGICK: default -i value
	Timeout     time.Duration // THAPLMAGIC_TIMEOUT: per-render timeout
	Workers     int           // THAPLMAGIC_WORKERS: parallel renders
}

// knownEnvVars lists valid THAPLMAGIC_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"THAPLMAGIC_CONFIG":      true,
	"THAPLMAGIC_ENGINE":      true,
	"THAPLMAGIC_PDF2SVG":     true,
	"THAPLMAGIC_IMAGEMAGICK": true,
	"THAPLMAGIC_TIMEOUT":     true,
	"THAPLMAGIC_WORKERS":     true,
	"THAPLMAGIC_CONTAINER":   true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized THAPLMAGIC_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("THAPLMAGIC_CONFIG"),
		Engine:      os.Getenv("THAPLMAGIC_ENGINE"),
		PDF2SVG:     os.Getenv("THAPLMAGIC_PDF2SVG"),
		ImageMagick: os.Getenv("THAPLMAGIC_IMAGEMAGICK"),
	}

	// Parse duration for timeout
	if timeout := os.Getenv("THAPLMAGIC_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Parse int for workers
	if workers := os.Getenv("THAPLMAGIC_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized THAPLMAGIC_* variables.
// Helps catch typos like THAPLMAGIC_ENGIN instead of THAPLMAGIC_ENGINE.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// A set variable replaces the config file value. This ensures:
// CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Engine != "" {
		cfg.Tools.Engine = env.Engine
	}
	if env.PDF2SVG != "" {
		cfg.Tools.PDF2SVG = env.PDF2SVG
	}
	if env.ImageMagick != "" {
		cfg.Tools.ImageMagick = env.ImageMagick
	}
	// Timeout and workers are resolved separately (resolveTimeout, resolveWorkers)
}
