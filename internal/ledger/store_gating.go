package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddExclusion writes a gating marker for a stage/candidate pair. Repeated
// writes keep the first recorded reason.
func (s *Store) AddExclusion(ctx context.Context, stage, candidateKey, reason string) error {
	if strings.TrimSpace(stage) == "" {
		return errors.New("stage is empty")
	}
	if strings.TrimSpace(candidateKey) == "" {
		return errors.New("candidate key is empty")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO process_exclusions (stage, candidate_key, reason, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (stage, candidate_key) DO NOTHING`,
		stage,
		candidateKey,
		reason,
		timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert exclusion: %w", err)
	}
	return nil
}

// IsExcluded reports whether a gating marker exists for the stage/candidate pair.
func (s *Store) IsExcluded(ctx context.Context, stage, candidateKey string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM process_exclusions WHERE stage = ? AND candidate_key = ?`,
		stage,
		candidateKey,
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check exclusion: %w", err)
	}
	return count > 0, nil
}

// ListExclusions returns gating markers, optionally filtered by stage.
func (s *Store) ListExclusions(ctx context.Context, stage string) ([]Exclusion, error) {
	query := `SELECT stage, candidate_key, reason, created_at FROM process_exclusions`
	var args []any
	if strings.TrimSpace(stage) != "" {
		query += ` WHERE stage = ?`
		args = append(args, stage)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	defer rows.Close()

	var exclusions []Exclusion
	for rows.Next() {
		var (
			exclusion  Exclusion
			createdRaw string
		)
		if err := rows.Scan(&exclusion.Stage, &exclusion.CandidateKey, &exclusion.Reason, &createdRaw); err != nil {
			return nil, err
		}
		if created, parseErr := parseTimeString(createdRaw); parseErr == nil {
			exclusion.CreatedAt = created
		}
		exclusions = append(exclusions, exclusion)
	}
	return exclusions, rows.Err()
}

// RemoveExclusion deletes a gating marker, re-admitting the candidate. Gating
// markers are never removed automatically; this is the manual escape hatch.
func (s *Store) RemoveExclusion(ctx context.Context, stage, candidateKey string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM process_exclusions WHERE stage = ? AND candidate_key = ?`,
		stage,
		candidateKey,
	)
	if err != nil {
		return false, fmt.Errorf("delete exclusion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// AppendLog writes one audit row.
func (s *Store) AppendLog(ctx context.Context, module, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pipeline_logs (module, message, logged_at) VALUES (?, ?, ?)`,
		module,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// RecentLogs returns the newest audit rows, most recent first.
func (s *Store) RecentLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, module, message, logged_at FROM pipeline_logs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			entry     LogEntry
			loggedRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.Module, &entry.Message, &loggedRaw); err != nil {
			return nil, err
		}
		if logged, parseErr := parseTimeString(loggedRaw); parseErr == nil {
			entry.LoggedAt = logged
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
