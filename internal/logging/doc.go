// Package logging builds the slog loggers used across the daemon and CLI and
// standardizes the attribute keys workers emit.
//
// Two output formats are supported: a console handler that renders
// timestamp/level/component lines with flattened key=value pairs, and a JSON
// handler for machine consumption. Both write to stdout plus the shared log
// file under paths.log_dir.
package logging
