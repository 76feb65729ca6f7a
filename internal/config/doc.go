// Package config loads, normalizes, and validates Lyricast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the export
// defaults, encoder knobs, pipeline tuning, and renderer styling that the CLI
// hands to an export run, so output and staging directories are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
