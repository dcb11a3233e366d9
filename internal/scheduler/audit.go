package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"shuttle/internal/logging"
)

// AuditSink receives one row per drained sweep. The ledger store satisfies
// this directly; the daemon layers notifications on top.
type AuditSink interface {
	AppendLog(ctx context.Context, module, message string) error
}

// MultiSink fans one audit row out to several sinks. The first error wins but
// every sink is attempted.
type MultiSink []AuditSink

func (m MultiSink) AppendLog(ctx context.Context, module, message string) error {
	var firstErr error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.AppendLog(ctx, module, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *Worker) recordSweep(ctx context.Context, logger *slog.Logger, processed int) {
	message := fmt.Sprintf("Processed %d candidate(s).", processed)
	logger.Info("sweep drained",
		logging.Int("processed", processed),
		logging.String(logging.FieldEventType, "sweep_drained"),
	)
	if w.audit == nil {
		return
	}
	if err := w.audit.AppendLog(ctx, w.cfg.Stage, message); err != nil {
		logger.Warn("failed to record sweep audit entry", logging.Error(err))
	}
}
