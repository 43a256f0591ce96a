package config

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// ManimQualities lists the accepted manim.quality values in ascending
// resolution order.
var ManimQualities = []string{"low", "medium", "high", "fourk"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLatex(); err != nil {
		return err
	}
	if err := c.validateManim(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateServe(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateLatex() error {
	if c.Latex.Binary == "" {
		return errors.New("latex.binary must be set")
	}
	if c.Latex.DvisvgmBinary == "" {
		return errors.New("latex.dvisvgm_binary must be set")
	}
	if c.Latex.PreamblePath != "" {
		info, err := os.Stat(c.Latex.PreamblePath)
		if err != nil {
			return fmt.Errorf("latex.preamble_path %q is not readable: %w", c.Latex.PreamblePath, err)
		}
		if info.IsDir() {
			return fmt.Errorf("latex.preamble_path %q is a directory", c.Latex.PreamblePath)
		}
	}
	return nil
}

func (c *Config) validateManim() error {
	if c.Manim.Binary == "" {
		return errors.New("manim.binary must be set")
	}
	for _, quality := range ManimQualities {
		if c.Manim.Quality == quality {
			return nil
		}
	}
	return fmt.Errorf("manim.quality %q is not one of low, medium, high, fourk", c.Manim.Quality)
}

func (c *Config) validateRender() error {
	if c.Render.Workers < 1 {
		return errors.New("render.workers must be at least 1")
	}
	if c.Render.Workers > 64 {
		return fmt.Errorf("render.workers %d is unreasonably high (max 64)", c.Render.Workers)
	}
	return nil
}

func (c *Config) validateServe() error {
	if _, _, err := net.SplitHostPort(c.Serve.Bind); err != nil {
		return fmt.Errorf("serve.bind %q is not a valid host:port: %w", c.Serve.Bind, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
}
