package scheduler

import (
	"context"
	"log/slog"

	"shuttle/internal/logging"
)

// GateWriter persists gating markers excluding candidates from eligibility.
type GateWriter interface {
	AddExclusion(ctx context.Context, stage, candidateKey, reason string) error
}

// PurgeFunc deletes one stale completion record, re-admitting the candidate.
// It reports whether a row was actually removed.
type PurgeFunc func(ctx context.Context, candidateKey string) (bool, error)

// Healer is the recovery path for a single stage. Forward gating marks
// permanently unprocessable candidates so they are never re-selected;
// backward repair purges completion records whose artifact has gone stale.
// Both paths honor the enabled flag: when disabled they log and change
// nothing, so affected candidates remain eligible.
type Healer struct {
	stage   string
	enabled bool
	gates   GateWriter
	purge   PurgeFunc
	logger  *slog.Logger
}

// NewHealer constructs a healer for one stage. The enabled flag is threaded
// explicitly so tests and debugging runs can toggle it without global state.
func NewHealer(stage string, enabled bool, gates GateWriter, purge PurgeFunc, logger *slog.Logger) *Healer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Healer{
		stage:   stage,
		enabled: enabled,
		gates:   gates,
		purge:   purge,
		logger:  logging.NewComponentLogger(logger, "self-healer"),
	}
}

// Enabled reports whether heal writes are active.
func (h *Healer) Enabled() bool {
	return h != nil && h.enabled
}

// MarkPermanentFailure writes a gating marker so the candidate is never
// re-selected. When self-heal is disabled the failure is logged only and the
// candidate stays eligible, which reintroduces unbounded retries; that is the
// documented escape hatch for debugging.
func (h *Healer) MarkPermanentFailure(ctx context.Context, candidateKey, reason string) error {
	if !h.enabled {
		h.logger.Info("self-heal disabled, leaving candidate eligible",
			logging.String(logging.FieldStage, h.stage),
			logging.String(logging.FieldCandidate, candidateKey),
			logging.String(logging.FieldReason, reason),
		)
		return nil
	}
	if err := h.gates.AddExclusion(ctx, h.stage, candidateKey, reason); err != nil {
		return err
	}
	h.logger.Info("candidate gated",
		logging.String(logging.FieldStage, h.stage),
		logging.String(logging.FieldCandidate, candidateKey),
		logging.String(logging.FieldReason, reason),
		logging.String(logging.FieldEventType, "candidate_gated"),
	)
	return nil
}

// PurgeStaleCompletion removes the completion record for a candidate whose
// referenced artifact no longer exists. Racing against a fresh commit for the
// same key is tolerated: the later write wins, and repairs only target rows
// already observed to be orphaned.
func (h *Healer) PurgeStaleCompletion(ctx context.Context, candidateKey string) (bool, error) {
	if !h.enabled {
		h.logger.Info("self-heal disabled, keeping stale completion",
			logging.String(logging.FieldStage, h.stage),
			logging.String(logging.FieldCandidate, candidateKey),
		)
		return false, nil
	}
	if h.purge == nil {
		return false, nil
	}
	purged, err := h.purge(ctx, candidateKey)
	if err != nil {
		return false, err
	}
	if purged {
		h.logger.Info("stale completion purged",
			logging.String(logging.FieldStage, h.stage),
			logging.String(logging.FieldCandidate, candidateKey),
			logging.String(logging.FieldEventType, "stale_completion_purged"),
		)
	}
	return purged, nil
}
