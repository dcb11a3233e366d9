package repair

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
	"shuttle/internal/logging"
	"shuttle/internal/metadata"
	"shuttle/internal/report"
	"shuttle/internal/scheduler"
)

// Pass walks completion records whose artifacts live on disk and purges rows
// whose artifact has vanished, re-admitting the candidate to its stage. Stat
// errors other than absence are reported, never treated as absence; a flaky
// mount must not trigger a purge wave.
type Pass struct {
	store        *ledger.Store
	probeHealer  *scheduler.Healer
	reportHealer *scheduler.Healer
	audit        scheduler.AuditSink
	logger       *slog.Logger
}

// NewPass builds a repair pass over the metadata and report stages.
func NewPass(cfg *config.Config, store *ledger.Store, audit scheduler.AuditSink, logger *slog.Logger) *Pass {
	if logger == nil {
		logger = logging.NewNop()
	}
	if audit == nil {
		audit = store
	}
	return &Pass{
		store:        store,
		probeHealer:  metadata.NewHealer(cfg, store, logger),
		reportHealer: report.NewHealer(cfg, store, logger),
		audit:        audit,
		logger:       logging.NewComponentLogger(logger, "repair"),
	}
}

// Run executes one repair sweep and returns the number of purged rows.
func (p *Pass) Run(ctx context.Context) (int, error) {
	purged := 0

	n, err := p.repairProbes(ctx)
	purged += n
	if err != nil {
		return purged, err
	}

	n, err = p.repairReports(ctx)
	purged += n
	if err != nil {
		return purged, err
	}

	if purged > 0 {
		message := fmt.Sprintf("Repair pass purged %d stale completion(s).", purged)
		if err := p.audit.AppendLog(ctx, "repair", message); err != nil {
			p.logger.Warn("failed to record repair audit entry", logging.Error(err))
		}
	}
	p.logger.Info("repair pass finished",
		logging.Int("purged", purged),
		logging.String(logging.FieldEventType, "repair_finished"),
	)
	return purged, nil
}

// repairProbes purges metadata rows whose source recording no longer exists.
func (p *Pass) repairProbes(ctx context.Context) (int, error) {
	paths, err := p.store.ProbedPaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("repair: list probed paths: %w", err)
	}

	purged := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		missing, err := artifactMissing(path)
		if err != nil {
			return purged, fmt.Errorf("repair: stat %s: %w", path, err)
		}
		if !missing {
			continue
		}
		removed, err := p.probeHealer.PurgeStaleCompletion(ctx, path)
		if err != nil {
			return purged, fmt.Errorf("repair: purge probe %s: %w", path, err)
		}
		if removed {
			purged++
		}
	}
	return purged, nil
}

// repairReports purges report rows whose generated PDF no longer exists.
func (p *Pass) repairReports(ctx context.Context) (int, error) {
	records, err := p.store.ListReports(ctx)
	if err != nil {
		return 0, fmt.Errorf("repair: list reports: %w", err)
	}

	purged := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		missing, err := artifactMissing(record.ReportPath)
		if err != nil {
			return purged, fmt.Errorf("repair: stat %s: %w", record.ReportPath, err)
		}
		if !missing {
			continue
		}
		removed, err := p.reportHealer.PurgeStaleCompletion(ctx, record.InterviewName)
		if err != nil {
			return purged, fmt.Errorf("repair: purge report %s: %w", record.InterviewName, err)
		}
		if removed {
			purged++
		}
	}
	return purged, nil
}

func artifactMissing(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, err
}
