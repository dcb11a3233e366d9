// Package videoqc implements the quick quality-control stage: pure checks
// over stored ffprobe metadata, upserted into video_qc. The report_possible
// verdict it records is what admits an interview to the report stage.
package videoqc
