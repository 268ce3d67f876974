// Package config loads and validates the daemon settings from a YAML or
// TOML file, falling back to built-in defaults.
package config
