package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertQC records a quick-QC verdict for a source file. Re-running QC for the
// same path replaces the previous verdict; the later write wins.
func (s *Store) UpsertQC(ctx context.Context, record QCRecord) error {
	if strings.TrimSpace(record.SourcePath) == "" {
		return errors.New("source path is empty")
	}
	checked := record.CheckedAt
	if checked.IsZero() {
		checked = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO video_qc (
            source_path, interview_name, study_id, passed, report_possible, notes, checked_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (source_path) DO UPDATE SET
            interview_name = excluded.interview_name,
            study_id = excluded.study_id,
            passed = excluded.passed,
            report_possible = excluded.report_possible,
            notes = excluded.notes,
            checked_at = excluded.checked_at`,
		record.SourcePath,
		record.InterviewName,
		record.StudyID,
		boolToInt(record.Passed),
		boolToInt(record.ReportPossible),
		nullableString(record.Notes),
		checked.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert qc record: %w", err)
	}
	return nil
}

// GetQC fetches the QC verdict for a source path, or nil when absent.
func (s *Store) GetQC(ctx context.Context, sourcePath string) (*QCRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT source_path, interview_name, study_id, passed, report_possible, notes, checked_at
         FROM video_qc WHERE source_path = ?`,
		sourcePath,
	)
	var (
		record     QCRecord
		passed     int
		possible   int
		notes      sql.NullString
		checkedRaw string
	)
	err := row.Scan(&record.SourcePath, &record.InterviewName, &record.StudyID, &passed, &possible, &notes, &checkedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get qc record: %w", err)
	}
	record.Passed = passed != 0
	record.ReportPossible = possible != 0
	record.Notes = notes.String
	if checked, parseErr := parseTimeString(checkedRaw); parseErr == nil {
		record.CheckedAt = checked
	}
	return &record, nil
}

// GetQCByInterview fetches the QC verdict for an interview, or nil when absent.
func (s *Store) GetQCByInterview(ctx context.Context, interviewName string) (*QCRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT source_path, interview_name, study_id, passed, report_possible, notes, checked_at
         FROM video_qc WHERE interview_name = ? LIMIT 1`,
		interviewName,
	)
	var (
		record     QCRecord
		passed     int
		possible   int
		notes      sql.NullString
		checkedRaw string
	)
	err := row.Scan(&record.SourcePath, &record.InterviewName, &record.StudyID, &passed, &possible, &notes, &checkedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get qc record by interview: %w", err)
	}
	record.Passed = passed != 0
	record.ReportPossible = possible != 0
	record.Notes = notes.String
	if checked, parseErr := parseTimeString(checkedRaw); parseErr == nil {
		record.CheckedAt = checked
	}
	return &record, nil
}

// MarkReportNotPossible flips the report gate on an existing QC row, recording
// why report generation can never succeed for the interview.
func (s *Store) MarkReportNotPossible(ctx context.Context, interviewName, reason string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE video_qc SET report_possible = 0, notes = ? WHERE interview_name = ?`,
		reason,
		interviewName,
	)
	if err != nil {
		return fmt.Errorf("mark report not possible: %w", err)
	}
	return nil
}
