package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertReport records a generated report artifact. Idempotent on interview
// name so racing workers cannot double-record a completion.
func (s *Store) InsertReport(ctx context.Context, record ReportRecord) error {
	if strings.TrimSpace(record.InterviewName) == "" {
		return errors.New("interview name is empty")
	}
	if strings.TrimSpace(record.ReportPath) == "" {
		return errors.New("report path is empty")
	}
	generated := record.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pdf_reports (interview_name, study_id, source_path, report_path, generated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (interview_name) DO NOTHING`,
		record.InterviewName,
		record.StudyID,
		record.SourcePath,
		record.ReportPath,
		generated.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert report record: %w", err)
	}
	return nil
}

// GetReport fetches the report record for an interview, or nil when absent.
func (s *Store) GetReport(ctx context.Context, interviewName string) (*ReportRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT interview_name, study_id, source_path, report_path, generated_at
         FROM pdf_reports WHERE interview_name = ?`,
		interviewName,
	)
	var (
		record       ReportRecord
		generatedRaw string
	)
	err := row.Scan(&record.InterviewName, &record.StudyID, &record.SourcePath, &record.ReportPath, &generatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report record: %w", err)
	}
	if generated, parseErr := parseTimeString(generatedRaw); parseErr == nil {
		record.GeneratedAt = generated
	}
	return &record, nil
}

// DeleteReport purges a stale report record, re-admitting the interview.
func (s *Store) DeleteReport(ctx context.Context, interviewName string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pdf_reports WHERE interview_name = ?`, interviewName)
	if err != nil {
		return false, fmt.Errorf("delete report record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListReports returns every recorded report ordered by generation time.
func (s *Store) ListReports(ctx context.Context) ([]ReportRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT interview_name, study_id, source_path, report_path, generated_at
         FROM pdf_reports ORDER BY generated_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list report records: %w", err)
	}
	defer rows.Close()

	var records []ReportRecord
	for rows.Next() {
		var (
			record       ReportRecord
			generatedRaw string
		)
		if err := rows.Scan(&record.InterviewName, &record.StudyID, &record.SourcePath, &record.ReportPath, &generatedRaw); err != nil {
			return nil, err
		}
		if generated, parseErr := parseTimeString(generatedRaw); parseErr == nil {
			record.GeneratedAt = generated
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
