package report

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
	"shuttle/internal/scheduler"
	"shuttle/internal/services"
)

const stageName = ledger.StageReport

// Predicate selects interviews whose QC verdict admits report generation and
// that have no recorded report yet. The candidate key for this stage is the
// interview name, not a file path.
func Predicate() scheduler.EligibilityPredicate {
	return scheduler.EligibilityPredicate{
		Upstream:    scheduler.TableRef{Table: "video_qc", KeyColumn: "interview_name"},
		StudyColumn: "study_id",
		Downstream:  []scheduler.TableRef{{Table: "pdf_reports", KeyColumn: "interview_name"}},
		GateStage:   stageName,
		Filters: []scheduler.Filter{
			{Column: "report_possible", Op: "=", Value: 1},
		},
	}
}

// Processor renders the one-page summary report for an interview.
type Processor struct {
	store      *ledger.Store
	reportsDir string
}

// NewProcessor constructs the report stage processor.
func NewProcessor(store *ledger.Store, reportsDir string) *Processor {
	return &Processor{store: store, reportsDir: reportsDir}
}

func (p *Processor) Process(ctx context.Context, candidate *scheduler.Candidate) scheduler.Outcome {
	qc, err := p.store.GetQCByInterview(ctx, candidate.Key)
	if err != nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "load qc record", candidate.Key, err))
	}
	if qc == nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "qc record vanished", candidate.Key, nil))
	}

	probe, err := p.store.GetProbe(ctx, qc.SourcePath)
	if err != nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "load probe record", qc.SourcePath, err))
	}
	if probe == nil {
		return scheduler.FailPermanent("probe metadata missing for qc-approved interview")
	}

	reportPath := filepath.Join(p.reportsDir, candidate.Key+".pdf")
	if err := render(reportPath, probe, qc); err != nil {
		return scheduler.FailTransient(services.Wrap(services.ErrTransient, stageName, "render report", reportPath, err))
	}

	record := ledger.ReportRecord{
		InterviewName: candidate.Key,
		StudyID:       qc.StudyID,
		SourcePath:    qc.SourcePath,
		ReportPath:    reportPath,
	}
	return scheduler.Succeed(record)
}

// Committer records generated report artifacts.
type Committer struct {
	store *ledger.Store
}

func (c Committer) Commit(ctx context.Context, candidate *scheduler.Candidate, payload any) error {
	record, ok := payload.(ledger.ReportRecord)
	if !ok {
		return fmt.Errorf("report commit: unexpected payload %T", payload)
	}
	return c.store.InsertReport(ctx, record)
}

// gate writes the exclusion marker and mirrors the verdict onto the QC row so
// operators inspecting video_qc see why the report never appeared.
type gate struct {
	store *ledger.Store
}

func (g gate) AddExclusion(ctx context.Context, stage, candidateKey, reason string) error {
	if err := g.store.AddExclusion(ctx, stage, candidateKey, reason); err != nil {
		return err
	}
	return g.store.MarkReportNotPossible(ctx, candidateKey, reason)
}

// NewHealer builds the report stage healer, shared by the worker loop and the
// out-of-band repair pass.
func NewHealer(cfg *config.Config, store *ledger.Store, logger *slog.Logger) *scheduler.Healer {
	return scheduler.NewHealer(stageName, cfg.General.SelfHeal, gate{store: store}, store.DeleteReport, logger)
}

// NewWorker wires the report stage into a runnable worker loop. A nil audit
// sink falls back to the ledger's audit table.
func NewWorker(cfg *config.Config, store *ledger.Store, audit scheduler.AuditSink, logger *slog.Logger) (*scheduler.Worker, error) {
	if audit == nil {
		audit = store
	}
	source := scheduler.NewSQLSource(store.DB(), Predicate())
	return scheduler.NewWorker(
		scheduler.Config{
			Stage:               stageName,
			Studies:             cfg.General.Studies,
			Snooze:              cfg.SnoozeDuration(),
			MaxTransientRetries: cfg.Orchestration.MaxTransientRetries,
		},
		source,
		NewProcessor(store, cfg.Paths.ReportsDir),
		Committer{store: store},
		NewHealer(cfg, store, logger),
		audit,
		logger,
	)
}
