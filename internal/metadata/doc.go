// Package metadata implements the first pipeline stage: ffprobe inspection of
// transferred interview files, recorded append-only in ffprobe_metadata.
package metadata
