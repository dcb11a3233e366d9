package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shuttle/internal/logging"
)

// loopState enumerates the worker control loop's states. The loop is modeled
// as an explicit machine rather than nested loops with sentinel re-checks so
// each transition can be reasoned about and tested on its own.
type loopState int

const (
	stateSelectStudy loopState = iota
	statePoll
	stateDispatch
	stateAdvance
	stateBackoff
)

// Config fixes a worker's immutable stage wiring at construction time.
type Config struct {
	// Stage names the pipeline step; used for gating, audit rows, and logs.
	Stage string
	// Studies is the ordered partition list one sweep rotates through.
	Studies []string
	// Snooze is the idle sleep after a fully empty sweep. Zero means the
	// worker returns once drained (batch mode).
	Snooze time.Duration
	// MaxTransientRetries caps per-process transient retries for one
	// candidate before it is gated. Zero disables the cap, matching the
	// unbounded-retry behavior of uncoordinated re-eligibility.
	MaxTransientRetries int
}

// Worker drives one stage: poll eligibility per study, dispatch the
// processor, commit or heal, and rotate studies with idle backoff. Workers
// hold no authoritative state between polls; all coordination happens through
// the ledger, so any number of worker processes may run the same stage
// concurrently. Duplicate dispatch of one candidate (the claim race) is
// tolerated because commits are idempotent.
type Worker struct {
	cfg       Config
	source    Source
	processor Processor
	committer Committer
	healer    *Healer
	audit     AuditSink
	logger    *slog.Logger

	// transientRetries counts per-candidate transient failures for the life
	// of this process. Audit only unless MaxTransientRetries is set.
	transientRetries map[string]int
}

// NewWorker wires a stage's source, processor, committer, and healer into a
// runnable control loop.
func NewWorker(cfg Config, source Source, processor Processor, committer Committer, healer *Healer, audit AuditSink, logger *slog.Logger) (*Worker, error) {
	if cfg.Stage == "" {
		return nil, errors.New("worker stage name is required")
	}
	if len(cfg.Studies) == 0 {
		return nil, errors.New("worker requires at least one study")
	}
	if source == nil || processor == nil || committer == nil {
		return nil, errors.New("worker requires source, processor, and committer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		cfg:              cfg,
		source:           source,
		processor:        processor,
		committer:        committer,
		healer:           healer,
		audit:            audit,
		logger:           logging.NewComponentLogger(logger, "worker").With(logging.String(logging.FieldStage, cfg.Stage)),
		transientRetries: make(map[string]int),
	}, nil
}

// Run executes the control loop until the context is canceled, a fatal store
// error occurs, or (with zero snooze) the ledger drains. Store-level errors
// are fatal; process supervision handles restarts.
func (w *Worker) Run(ctx context.Context) error {
	state := stateSelectStudy
	studyIdx := 0
	processed := 0
	var candidate *Candidate

	// skipped holds candidates that failed transiently during the current
	// sweep so a lone bad candidate cannot hot-loop the poll. Cleared when
	// the sweep restarts; the keys stay eligible in the ledger.
	skipped := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch state {
		case stateSelectStudy:
			studyIdx = 0
			clear(skipped)
			w.logger.Debug("sweep starting", logging.String(logging.FieldStudy, w.cfg.Studies[studyIdx]))
			state = statePoll

		case statePoll:
			next, err := w.source.Next(ctx, w.cfg.Studies[studyIdx])
			if err != nil {
				return fmt.Errorf("stage %s: %w", w.cfg.Stage, err)
			}
			if next != nil {
				if _, skip := skipped[next.Key]; skip {
					next = nil
				}
			}
			if next != nil {
				candidate = next
				state = stateDispatch
				continue
			}
			if studyIdx < len(w.cfg.Studies)-1 {
				state = stateAdvance
				continue
			}
			if processed > 0 {
				// Progress happened somewhere this sweep; report it and
				// immediately re-check for more work instead of idling.
				w.recordSweep(ctx, w.logger, processed)
				processed = 0
				state = stateSelectStudy
				continue
			}
			state = stateBackoff

		case stateAdvance:
			studyIdx++
			w.logger.Debug("switching study", logging.String(logging.FieldStudy, w.cfg.Studies[studyIdx]))
			state = statePoll

		case stateDispatch:
			committed, err := w.dispatch(ctx, candidate, skipped)
			if err != nil {
				return err
			}
			if committed {
				processed++
			}
			candidate = nil
			// Stay on the same study: partitions with backlog drain fully
			// before the rotation moves on.
			state = statePoll

		case stateBackoff:
			processed = 0
			if w.cfg.Snooze <= 0 {
				w.logger.Info("ledger drained, exiting",
					logging.String(logging.FieldEventType, "worker_drained"))
				return nil
			}
			w.logger.Info("no work found, snoozing",
				logging.Duration("snooze", w.cfg.Snooze),
				logging.String(logging.FieldEventType, "worker_backoff"),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.Snooze):
			}
			state = stateSelectStudy
		}
	}
}

// dispatch processes one candidate and applies its outcome. The returned bool
// reports whether a commit happened (the sweep counter's only input). Commit
// and gate write failures are fatal; transient processing failures are not.
func (w *Worker) dispatch(ctx context.Context, candidate *Candidate, skipped map[string]struct{}) (bool, error) {
	logger := w.logger.With(
		logging.String(logging.FieldStudy, candidate.Study),
		logging.String(logging.FieldCandidate, candidate.Key),
		logging.String(logging.FieldCorrelationID, uuid.NewString()),
	)
	logger.Info("processing candidate", logging.String(logging.FieldEventType, "dispatch"))

	start := time.Now()
	outcome := w.processor.Process(ctx, candidate)
	if err := ctx.Err(); err != nil {
		return false, err
	}

	switch outcome.Kind {
	case OutcomeSuccess:
		if err := w.committer.Commit(ctx, candidate, outcome.Payload); err != nil {
			return false, fmt.Errorf("stage %s: commit %s: %w", w.cfg.Stage, candidate.Key, err)
		}
		delete(w.transientRetries, candidate.Key)
		logger.Info("candidate committed",
			logging.Duration("elapsed", time.Since(start)),
			logging.String(logging.FieldEventType, "commit"),
		)
		return true, nil

	case OutcomePermanentFailure:
		logger.Warn("candidate permanently failed",
			logging.String(logging.FieldReason, outcome.Reason),
			logging.String(logging.FieldEventType, "permanent_failure"),
		)
		if w.healer == nil {
			return false, nil
		}
		if err := w.healer.MarkPermanentFailure(ctx, candidate.Key, outcome.Reason); err != nil {
			return false, fmt.Errorf("stage %s: gate %s: %w", w.cfg.Stage, candidate.Key, err)
		}
		return false, nil

	case OutcomeTransientFailure:
		skipped[candidate.Key] = struct{}{}
		w.transientRetries[candidate.Key]++
		retries := w.transientRetries[candidate.Key]
		logger.Warn("candidate failed transiently, will retry on a future poll",
			logging.Error(outcome.Err),
			logging.Int("attempts", retries),
			logging.String(logging.FieldEventType, "transient_failure"),
			logging.String(logging.FieldErrorHint, "candidate stays eligible; investigate if attempts keep climbing"),
		)
		if w.cfg.MaxTransientRetries > 0 && retries >= w.cfg.MaxTransientRetries && w.healer != nil {
			reason := fmt.Sprintf("transient retry budget exhausted after %d attempts: %v", retries, outcome.Err)
			if err := w.healer.MarkPermanentFailure(ctx, candidate.Key, reason); err != nil {
				return false, fmt.Errorf("stage %s: gate %s: %w", w.cfg.Stage, candidate.Key, err)
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("stage %s: unknown outcome kind %d for %s", w.cfg.Stage, outcome.Kind, candidate.Key)
	}
}
