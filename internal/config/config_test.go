package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tools != (ToolsConfig{}) {
		t.Errorf("Tools = %+v, want zero value", cfg.Tools)
	}
	if cfg.Timeout != "" {
		t.Errorf("Timeout = %q, want empty", cfg.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "test", "", 10, false},
		{"value at limit is valid", "test", "1234567890", 10, false},
		{"value under limit is valid", "test", "12345", 10, false},
		{"value over limit returns error", "test.field", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldLength(tt.fieldName, tt.value, tt.maxLength)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "full valid config",
			cfg: Config{
				Tools:    ToolsConfig{Engine: "lualatex", PDF2SVG: "/usr/bin/pdf2svg", ImageMagick: "magick convert"},
				Renderer: RendererConfig{Command: "python3 -m thapl.main", PythonPath: "/opt/thapl"},
				Timeout:  "90s",
				Defaults: DefaultsConfig{Format: "svg", Size: "320,200", Encoding: "latin1"},
				Output:   OutputConfig{ArtifactName: "tikz", Dir: "out"},
			},
		},
		{
			name:    "engine too long",
			cfg:     Config{Tools: ToolsConfig{Engine: strings.Repeat("x", MaxPathLength+1)}},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "renderer command too long",
			cfg:     Config{Renderer: RendererConfig{Command: strings.Repeat("x", MaxCommandLength+1)}},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "timeout not a duration",
			cfg:     Config{Timeout: "soon"},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative timeout",
			cfg:     Config{Timeout: "-5s"},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "format with separator",
			cfg:     Config{Defaults: DefaultsConfig{Format: "../png"}},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "malformed size",
			cfg:     Config{Defaults: DefaultsConfig{Size: "400x240"}},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "zero size",
			cfg:     Config{Defaults: DefaultsConfig{Size: "0,240"}},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "artifact name with separator",
			cfg:     Config{Output: OutputConfig{ArtifactName: "a/b"}},
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_TimeoutDuration(t *testing.T) {
	cfg := Config{Timeout: "2m30s"}
	d, err := cfg.TimeoutDuration()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 150*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 2m30s", d)
	}

	empty := Config{}
	if d, err := empty.TimeoutDuration(); err != nil || d != 0 {
		t.Errorf("empty TimeoutDuration() = %v, %v; want 0, nil", d, err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config", func(t *testing.T) {
		configPath := writeConfig(t, t.TempDir(), "test.yaml", `tools:
  engine: lualatex
  imagemagick: "magick convert"
renderer:
  pythonPath: /opt/thapl
timeout: 45s
defaults:
  format: svg
  size: "320,200"
output:
  artifactName: figure
`)

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Tools.Engine != "lualatex" {
			t.Errorf("Tools.Engine = %q, want %q", cfg.Tools.Engine, "lualatex")
		}
		if cfg.Tools.ImageMagick != "magick convert" {
			t.Errorf("Tools.ImageMagick = %q, want %q", cfg.Tools.ImageMagick, "magick convert")
		}
		if cfg.Renderer.PythonPath != "/opt/thapl" {
			t.Errorf("Renderer.PythonPath = %q, want %q", cfg.Renderer.PythonPath, "/opt/thapl")
		}
		if cfg.Timeout != "45s" {
			t.Errorf("Timeout = %q, want %q", cfg.Timeout, "45s")
		}
		if cfg.Defaults.Format != "svg" || cfg.Defaults.Size != "320,200" {
			t.Errorf("Defaults = %+v", cfg.Defaults)
		}
		if cfg.Output.ArtifactName != "figure" {
			t.Errorf("Output.ArtifactName = %q, want %q", cfg.Output.ArtifactName, "figure")
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		configPath := writeConfig(t, t.TempDir(), "invalid.yaml", "tools: [unclosed")
		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		configPath := writeConfig(t, t.TempDir(), "unknown.yaml", "timeout: 10s\nunknownField: x\n")
		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value is rejected after parsing", func(t *testing.T) {
		configPath := writeConfig(t, t.TempDir(), "bad.yaml", "timeout: forever\n")
		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("unreadable file returns read error not ErrConfigNotFound", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		configPath := writeConfig(t, t.TempDir(), "unreadable.yaml", "timeout: 10s\n")
		if err := os.Chmod(configPath, 0o000); err != nil {
			t.Fatalf("setup chmod: %v", err)
		}
		defer os.Chmod(configPath, 0o600)

		_, err := LoadConfig(configPath)
		if err == nil {
			t.Fatal("expected error for unreadable file")
		}
		if errors.Is(err, ErrConfigNotFound) {
			t.Error("error should not be ErrConfigNotFound for permission error")
		}
	})

	t.Run("config name resolves in current directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "myconfig.yml", "tools:\n  engine: pdflatex\n")
		t.Chdir(dir)

		cfg, err := LoadConfig("myconfig")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Tools.Engine != "pdflatex" {
			t.Errorf("Tools.Engine = %q, want %q", cfg.Tools.Engine, "pdflatex")
		}
	})

	t.Run("config name resolves in user config directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)
		t.Setenv("HOME", home)
		t.Chdir(t.TempDir())

		base, err := os.UserConfigDir()
		if err != nil {
			t.Skip("cannot get user config dir")
		}
		userDir := filepath.Join(base, userConfigDirName)
		if err := os.MkdirAll(userDir, 0o755); err != nil {
			t.Fatalf("setup: %v", err)
		}
		writeConfig(t, userDir, "team.yaml", "renderer:\n  command: thapl\n")

		cfg, err := LoadConfig("team")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Renderer.Command != "thapl" {
			t.Errorf("Renderer.Command = %q, want %q", cfg.Renderer.Command, "thapl")
		}
	})

	t.Run("missing name lists searched paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadConfig("does-not-exist")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "does-not-exist.yaml") {
			t.Errorf("error should list tried paths, got: %v", err)
		}
	})
}

func TestSearchPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)

	base, err := os.UserConfigDir()
	if err != nil {
		t.Skip("cannot get user config dir")
	}

	paths := SearchPaths("thaplmagic")
	want := []string{
		"thaplmagic.yaml",
		"thaplmagic.yml",
		filepath.Join(base, userConfigDirName, "thaplmagic.yaml"),
		filepath.Join(base, userConfigDirName, "thaplmagic.yml"),
	}
	if strings.Join(paths, "\n") != strings.Join(want, "\n") {
		t.Errorf("SearchPaths() = %v, want %v", paths, want)
	}
}
