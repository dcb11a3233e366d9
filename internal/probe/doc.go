// Package probe wraps ffprobe invocation and result parsing for the metadata
// and quick-QC stages.
package probe
