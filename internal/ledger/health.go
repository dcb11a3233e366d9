package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// DatabaseHealth captures diagnostic information about the ledger database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	IntegrityCheck   bool
	Error            string
}

// Counts aggregates per-table totals for status output.
func (s *Store) Counts(ctx context.Context) (StageCounts, error) {
	var counts StageCounts
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM studies`, &counts.Studies},
		{`SELECT COUNT(1) FROM interview_files`, &counts.InterviewFiles},
		{`SELECT COUNT(1) FROM ffprobe_metadata`, &counts.Probed},
		{`SELECT COUNT(1) FROM video_qc`, &counts.Checked},
		{`SELECT COUNT(1) FROM pdf_reports`, &counts.Reports},
		{`SELECT COUNT(1) FROM process_exclusions`, &counts.Exclusions},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return StageCounts{}, fmt.Errorf("ledger counts: %w", err)
		}
	}
	return counts, nil
}

// CheckHealth returns diagnostic information about the ledger database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("ledger database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat ledger database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("ledger database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("ledger database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping ledger database: %w", err)
	}
	health.DatabaseReadable = true

	var integrityResult string
	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = integrityResult == "ok"

	return health, nil
}
