// Package config loads and validates the TOML configuration shared by the
// daemon and CLI.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/shuttle/config.toml, then ./shuttle.toml, falling back to
// built-in defaults. All path fields are tilde-expanded and absolutized
// during load so downstream packages never deal with relative paths.
package config
