package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddStudy registers a study partition. Safe to call repeatedly.
func (s *Store) AddStudy(ctx context.Context, studyID string) error {
	studyID = strings.TrimSpace(studyID)
	if studyID == "" {
		return errors.New("study id is empty")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO studies (study_id, added_at) VALUES (?, ?)
         ON CONFLICT (study_id) DO NOTHING`,
		studyID,
		timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert study: %w", err)
	}
	return nil
}

// Studies returns all registered study partitions in insertion order.
func (s *Store) Studies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT study_id FROM studies ORDER BY added_at, study_id`)
	if err != nil {
		return nil, fmt.Errorf("query studies: %w", err)
	}
	defer rows.Close()

	var studies []string
	for rows.Next() {
		var study string
		if err := rows.Scan(&study); err != nil {
			return nil, err
		}
		studies = append(studies, study)
	}
	return studies, rows.Err()
}

// AddInterviewFile records an upstream file. Duplicate paths are ignored so
// crawler re-runs stay idempotent.
func (s *Store) AddInterviewFile(ctx context.Context, file InterviewFile) error {
	if strings.TrimSpace(file.FilePath) == "" {
		return errors.New("file path is empty")
	}
	if strings.TrimSpace(file.InterviewName) == "" {
		return errors.New("interview name is empty")
	}
	if strings.TrimSpace(file.StudyID) == "" {
		return errors.New("study id is empty")
	}
	transferred := file.TransferredAt
	if transferred.IsZero() {
		transferred = time.Now().UTC()
	}
	interviewType := file.InterviewType
	if interviewType == "" {
		interviewType = "onsite"
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO interview_files (file_path, interview_name, study_id, interview_type, transferred_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (file_path) DO NOTHING`,
		file.FilePath,
		file.InterviewName,
		file.StudyID,
		interviewType,
		transferred.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert interview file: %w", err)
	}
	return nil
}

// GetInterviewFile fetches one upstream row by path, or nil when absent.
func (s *Store) GetInterviewFile(ctx context.Context, filePath string) (*InterviewFile, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT file_path, interview_name, study_id, interview_type, transferred_at
         FROM interview_files WHERE file_path = ?`,
		filePath,
	)
	var (
		file           InterviewFile
		transferredRaw string
	)
	err := row.Scan(&file.FilePath, &file.InterviewName, &file.StudyID, &file.InterviewType, &transferredRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interview file: %w", err)
	}
	if transferred, parseErr := parseTimeString(transferredRaw); parseErr == nil {
		file.TransferredAt = transferred
	}
	return &file, nil
}
