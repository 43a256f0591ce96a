package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Latex contains configuration for the text renderer toolchain.
type Latex struct {
	Binary        string `toml:"binary"`
	DvisvgmBinary string `toml:"dvisvgm_binary"`
	TimeoutSec    int    `toml:"timeout_seconds"`
	// PreamblePath overrides the built-in style preamble when set.
	PreamblePath string `toml:"preamble_path"`
}

// Manim contains configuration for the animation renderer.
type Manim struct {
	Binary     string `toml:"binary"`
	Quality    string `toml:"quality"`
	TimeoutSec int    `toml:"timeout_seconds"`
}

// Render contains configuration for the render dispatcher.
type Render struct {
	Workers int `toml:"workers"`
}

// RenderCache contains configuration for the rendered-asset cache.
type RenderCache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	MaxMiB  int    `toml:"max_mib"`
}

// Serve contains configuration for the archive preview server.
type Serve struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Pandora.
//
// Configuration sections by subsystem:
//   - Paths: staging and log directories
//   - Latex: text block renderer binaries, timeout, style preamble override
//   - Manim: animation renderer binary, quality, timeout
//   - Render: dispatcher worker pool size
//   - RenderCache: cached rendered assets keyed by content
//   - Serve: preview server bind address
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Latex       Latex       `toml:"latex"`
	Manim       Manim       `toml:"manim"`
	Render      Render      `toml:"render"`
	RenderCache RenderCache `toml:"render_cache"`
	Serve       Serve       `toml:"serve"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pandora/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/pandora/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pandora.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a compile run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.RenderCache.Enabled && strings.TrimSpace(c.RenderCache.Dir) != "" {
		if err := os.MkdirAll(c.RenderCache.Dir, 0o755); err != nil {
			return fmt.Errorf("create render cache directory %q: %w", c.RenderCache.Dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultRenderCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "pandora", "renders")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/pandora/renders"
	}
	return filepath.Join(home, ".cache", "pandora", "renders")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
