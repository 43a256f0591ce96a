package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLatex(); err != nil {
		return err
	}
	c.normalizeManim()
	c.normalizeRender()
	if err := c.normalizeRenderCache(); err != nil {
		return err
	}
	c.normalizeServe()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLatex() error {
	c.Latex.Binary = strings.TrimSpace(c.Latex.Binary)
	if c.Latex.Binary == "" {
		c.Latex.Binary = defaultLatexBinary
	}
	c.Latex.DvisvgmBinary = strings.TrimSpace(c.Latex.DvisvgmBinary)
	if c.Latex.DvisvgmBinary == "" {
		c.Latex.DvisvgmBinary = defaultDvisvgmBinary
	}
	if c.Latex.TimeoutSec <= 0 {
		c.Latex.TimeoutSec = defaultLatexTimeoutSec
	}
	c.Latex.PreamblePath = strings.TrimSpace(c.Latex.PreamblePath)
	if c.Latex.PreamblePath != "" {
		expanded, err := expandPath(c.Latex.PreamblePath)
		if err != nil {
			return fmt.Errorf("latex.preamble_path: %w", err)
		}
		c.Latex.PreamblePath = expanded
	}
	return nil
}

func (c *Config) normalizeManim() {
	c.Manim.Binary = strings.TrimSpace(c.Manim.Binary)
	if c.Manim.Binary == "" {
		c.Manim.Binary = defaultManimBinary
	}
	c.Manim.Quality = strings.ToLower(strings.TrimSpace(c.Manim.Quality))
	if c.Manim.Quality == "" {
		c.Manim.Quality = defaultManimQuality
	}
	if c.Manim.TimeoutSec <= 0 {
		c.Manim.TimeoutSec = defaultManimTimeoutSec
	}
}

func (c *Config) normalizeRender() {
	if c.Render.Workers <= 0 {
		c.Render.Workers = defaultRenderWorkers
	}
}

func (c *Config) normalizeRenderCache() error {
	var err error
	if strings.TrimSpace(c.RenderCache.Dir) == "" {
		c.RenderCache.Dir = defaultRenderCacheDir()
	}
	if c.RenderCache.Dir, err = expandPath(c.RenderCache.Dir); err != nil {
		return fmt.Errorf("render_cache.dir: %w", err)
	}
	if c.RenderCache.MaxMiB <= 0 {
		c.RenderCache.MaxMiB = defaultRenderCacheMaxMiB
	}
	return nil
}

func (c *Config) normalizeServe() {
	c.Serve.Bind = strings.TrimSpace(c.Serve.Bind)
	if c.Serve.Bind == "" {
		c.Serve.Bind = defaultServeBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
