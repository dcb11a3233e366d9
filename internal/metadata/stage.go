package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
	"shuttle/internal/probe"
	"shuttle/internal/scheduler"
	"shuttle/internal/services"
)

const stageName = ledger.StageMetadata

// Predicate selects interview files with no probe record, no gating marker,
// scoped to the polled study.
func Predicate() scheduler.EligibilityPredicate {
	return scheduler.EligibilityPredicate{
		Upstream:    scheduler.TableRef{Table: "interview_files", KeyColumn: "file_path"},
		StudyColumn: "study_id",
		Downstream:  []scheduler.TableRef{{Table: "ffprobe_metadata", KeyColumn: "source_path"}},
		GateStage:   stageName,
	}
}

// Processor probes one interview file and builds its metadata record.
type Processor struct {
	store  *ledger.Store
	runner probe.Runner
}

// NewProcessor constructs the metadata stage processor.
func NewProcessor(store *ledger.Store, runner probe.Runner) *Processor {
	return &Processor{store: store, runner: runner}
}

// Process inspects the candidate file with ffprobe. A file missing on disk is
// transient (the transfer may still be in flight); a container with no
// playable streams can never succeed and is gated.
func (p *Processor) Process(ctx context.Context, candidate *scheduler.Candidate) scheduler.Outcome {
	file, err := p.store.GetInterviewFile(ctx, candidate.Key)
	if err != nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "load upstream row", candidate.Key, err))
	}
	if file == nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "upstream row vanished", candidate.Key, nil))
	}

	if _, err := os.Stat(file.FilePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "file not on disk yet", file.FilePath, err))
		}
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "stat file", file.FilePath, err))
	}

	result, err := p.runner.Inspect(ctx, file.FilePath)
	if err != nil {
		return scheduler.FailTransient(services.Wrap(services.ErrExternalTool, stageName, "ffprobe", file.FilePath, err))
	}

	if result.VideoStreamCount() == 0 && result.AudioStreamCount() == 0 {
		return scheduler.FailPermanent("no playable streams")
	}

	width, height := result.PrimaryVideoDimensions()
	record := ledger.ProbeRecord{
		SourcePath:      file.FilePath,
		InterviewName:   file.InterviewName,
		StudyID:         file.StudyID,
		FormatName:      result.Format.FormatName,
		DurationSeconds: result.DurationSeconds(),
		SizeBytes:       result.SizeBytes(),
		VideoStreams:    result.VideoStreamCount(),
		AudioStreams:    result.AudioStreamCount(),
		Width:           width,
		Height:          height,
		RawJSON:         string(result.RawJSON()),
	}
	return scheduler.Succeed(record)
}

// Committer writes probe records into the ledger.
type Committer struct {
	store *ledger.Store
}

// Commit persists the probe record. Safe to repeat: the insert ignores
// conflicts on the source path.
func (c Committer) Commit(ctx context.Context, candidate *scheduler.Candidate, payload any) error {
	record, ok := payload.(ledger.ProbeRecord)
	if !ok {
		return fmt.Errorf("metadata commit: unexpected payload %T", payload)
	}
	return c.store.InsertProbe(ctx, record)
}

// NewHealer builds the metadata stage healer, shared by the worker loop and
// the out-of-band repair pass.
func NewHealer(cfg *config.Config, store *ledger.Store, logger *slog.Logger) *scheduler.Healer {
	return scheduler.NewHealer(stageName, cfg.General.SelfHeal, store, store.DeleteProbe, logger)
}

// NewWorker wires the metadata stage into a runnable worker loop. A nil audit
// sink falls back to the ledger's audit table.
func NewWorker(cfg *config.Config, store *ledger.Store, runner probe.Runner, audit scheduler.AuditSink, logger *slog.Logger) (*scheduler.Worker, error) {
	if audit == nil {
		audit = store
	}
	healer := NewHealer(cfg, store, logger)
	source := scheduler.NewSQLSource(store.DB(), Predicate())
	return scheduler.NewWorker(
		scheduler.Config{
			Stage:               stageName,
			Studies:             cfg.General.Studies,
			Snooze:              cfg.SnoozeDuration(),
			MaxTransientRetries: cfg.Orchestration.MaxTransientRetries,
		},
		source,
		NewProcessor(store, runner),
		Committer{store: store},
		healer,
		audit,
		logger,
	)
}
