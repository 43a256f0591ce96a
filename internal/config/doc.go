// Package config loads, normalizes, and validates Pandora configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files with nested sections for the renderer
// toolchains, the dispatcher, and the render cache. The Config type
// centralizes every knob the build tool needs, so staging directories,
// renderer binaries, and timeouts are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
