package videoqc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
	"shuttle/internal/scheduler"
	"shuttle/internal/services"
)

const stageName = ledger.StageVideoQC

// Acceptance thresholds for interview recordings. Sessions shorter than the
// duration floor are typically aborted recordings; resolutions below the
// height floor cannot support face landmark extraction downstream.
const (
	MinDurationSeconds = 30.0
	MinHeight          = 480
)

// Predicate selects probed files carrying at least one video stream that have
// no QC verdict yet.
func Predicate() scheduler.EligibilityPredicate {
	return scheduler.EligibilityPredicate{
		Upstream:    scheduler.TableRef{Table: "ffprobe_metadata", KeyColumn: "source_path"},
		StudyColumn: "study_id",
		Downstream:  []scheduler.TableRef{{Table: "video_qc", KeyColumn: "source_path"}},
		GateStage:   stageName,
		Filters: []scheduler.Filter{
			{Column: "video_streams", Op: ">", Value: 0},
		},
	}
}

// Processor evaluates quick-QC checks over stored probe metadata. The checks
// are pure; failing QC is still a successful stage outcome, recorded with
// passed=false so the interview is never re-selected.
type Processor struct {
	store *ledger.Store
}

// NewProcessor constructs the quick-QC processor.
func NewProcessor(store *ledger.Store) *Processor {
	return &Processor{store: store}
}

func (p *Processor) Process(ctx context.Context, candidate *scheduler.Candidate) scheduler.Outcome {
	record, err := p.store.GetProbe(ctx, candidate.Key)
	if err != nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "load probe record", candidate.Key, err))
	}
	if record == nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "probe record vanished", candidate.Key, nil))
	}

	var reasons []string
	if record.DurationSeconds < MinDurationSeconds {
		reasons = append(reasons, fmt.Sprintf("duration %.1fs below %.0fs floor", record.DurationSeconds, MinDurationSeconds))
	}
	if record.Height > 0 && record.Height < MinHeight {
		reasons = append(reasons, fmt.Sprintf("height %dpx below %dpx floor", record.Height, MinHeight))
	}
	if record.AudioStreams == 0 {
		reasons = append(reasons, "no audio stream")
	}

	passed := len(reasons) == 0
	// A summary report can be rendered for any recording with a video
	// stream; a failed verdict still gets a report stating the failure.
	qc := ledger.QCRecord{
		SourcePath:     record.SourcePath,
		InterviewName:  record.InterviewName,
		StudyID:        record.StudyID,
		Passed:         passed,
		ReportPossible: record.VideoStreams > 0,
		Notes:          strings.Join(reasons, "; "),
	}
	return scheduler.Succeed(qc)
}

// Committer upserts QC verdicts. Re-running QC for the same path replaces the
// prior verdict; racing workers both write the same verdict, so the later
// write is harmless.
type Committer struct {
	store *ledger.Store
}

func (c Committer) Commit(ctx context.Context, candidate *scheduler.Candidate, payload any) error {
	record, ok := payload.(ledger.QCRecord)
	if !ok {
		return fmt.Errorf("video qc commit: unexpected payload %T", payload)
	}
	return c.store.UpsertQC(ctx, record)
}

// NewWorker wires the quick-QC stage into a runnable worker loop. A nil audit
// sink falls back to the ledger's audit table.
func NewWorker(cfg *config.Config, store *ledger.Store, audit scheduler.AuditSink, logger *slog.Logger) (*scheduler.Worker, error) {
	if audit == nil {
		audit = store
	}
	// No artifact on disk, so there is nothing to purge for this stage.
	healer := scheduler.NewHealer(stageName, cfg.General.SelfHeal, store, nil, logger)
	source := scheduler.NewSQLSource(store.DB(), Predicate())
	return scheduler.NewWorker(
		scheduler.Config{
			Stage:               stageName,
			Studies:             cfg.General.Studies,
			Snooze:              cfg.SnoozeDuration(),
			MaxTransientRetries: cfg.Orchestration.MaxTransientRetries,
		},
		source,
		NewProcessor(store),
		Committer{store: store},
		healer,
		audit,
		logger,
	)
}
