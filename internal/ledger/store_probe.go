package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertProbe records ffprobe metadata for a source file. The insert is
// idempotent: a concurrent worker committing the same path first wins and the
// later write is a no-op.
func (s *Store) InsertProbe(ctx context.Context, record ProbeRecord) error {
	if strings.TrimSpace(record.SourcePath) == "" {
		return errors.New("source path is empty")
	}
	probed := record.ProbedAt
	if probed.IsZero() {
		probed = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO ffprobe_metadata (
            source_path, interview_name, study_id, format_name, duration_seconds,
            size_bytes, video_streams, audio_streams, width, height, raw_json, probed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (source_path) DO NOTHING`,
		record.SourcePath,
		record.InterviewName,
		record.StudyID,
		nullableString(record.FormatName),
		record.DurationSeconds,
		record.SizeBytes,
		record.VideoStreams,
		record.AudioStreams,
		record.Width,
		record.Height,
		nullableString(record.RawJSON),
		probed.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert probe record: %w", err)
	}
	return nil
}

// GetProbe fetches the probe record for a source path, or nil when absent.
func (s *Store) GetProbe(ctx context.Context, sourcePath string) (*ProbeRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT source_path, interview_name, study_id, format_name, duration_seconds,
                size_bytes, video_streams, audio_streams, width, height, raw_json, probed_at
         FROM ffprobe_metadata WHERE source_path = ?`,
		sourcePath,
	)
	record, err := scanProbe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get probe record: %w", err)
	}
	return record, nil
}

// DeleteProbe removes a stale probe record, re-admitting the path upstream.
func (s *Store) DeleteProbe(ctx context.Context, sourcePath string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ffprobe_metadata WHERE source_path = ?`, sourcePath)
	if err != nil {
		return false, fmt.Errorf("delete probe record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ProbedPaths returns every source path currently holding a probe record.
func (s *Store) ProbedPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_path FROM ffprobe_metadata ORDER BY probed_at`)
	if err != nil {
		return nil, fmt.Errorf("query probed paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func scanProbe(scanner interface{ Scan(dest ...any) error }) (*ProbeRecord, error) {
	var (
		record     ProbeRecord
		formatName sql.NullString
		rawJSON    sql.NullString
		probedRaw  string
	)
	if err := scanner.Scan(
		&record.SourcePath,
		&record.InterviewName,
		&record.StudyID,
		&formatName,
		&record.DurationSeconds,
		&record.SizeBytes,
		&record.VideoStreams,
		&record.AudioStreams,
		&record.Width,
		&record.Height,
		&rawJSON,
		&probedRaw,
	); err != nil {
		return nil, err
	}
	record.FormatName = formatName.String
	record.RawJSON = rawJSON.String
	if probed, err := parseTimeString(probedRaw); err == nil {
		record.ProbedAt = probed
	}
	return &record, nil
}
