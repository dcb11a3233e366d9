package report_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shuttle/internal/ledger"
	"shuttle/internal/logging"
	"shuttle/internal/report"
	"shuttle/internal/scheduler"
	"shuttle/internal/testsupport"
)

func seedReportable(t *testing.T, store *ledger.Store, interview, sourcePath string) {
	t.Helper()
	testsupport.SeedInterviewFile(t, store, "StudyA", interview, sourcePath)
	testsupport.SeedProbe(t, store, ledger.ProbeRecord{
		SourcePath:      sourcePath,
		InterviewName:   interview,
		StudyID:         "StudyA",
		FormatName:      "mov,mp4",
		DurationSeconds: 90,
		SizeBytes:       2048,
		VideoStreams:    1,
		AudioStreams:    1,
		Width:           1920,
		Height:          1080,
	})
	testsupport.SeedQC(t, store, ledger.QCRecord{
		SourcePath:     sourcePath,
		InterviewName:  interview,
		StudyID:        "StudyA",
		Passed:         true,
		ReportPossible: true,
	})
}

func TestWorkerRendersReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedReportable(t, store, "P1-0001", "/data/a1.mp4")

	worker, err := report.NewWorker(cfg, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	record, err := store.GetReport(ctx, "P1-0001")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if record == nil {
		t.Fatal("expected report record")
	}
	wantPath := filepath.Join(cfg.Paths.ReportsDir, "P1-0001.pdf")
	if record.ReportPath != wantPath {
		t.Fatalf("expected report path %s, got %s", wantPath, record.ReportPath)
	}
	info, err := os.Stat(wantPath)
	if err != nil {
		t.Fatalf("stat rendered pdf: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("rendered pdf is empty")
	}
}

func TestProcessorMissingProbeIsPermanent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	// QC row exists but the probe record was purged; rendering is impossible
	// until the metadata stage re-runs, and approving QC without metadata is
	// a ledger inconsistency the stage refuses to paper over.
	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0002", "/data/a2.mp4")
	testsupport.SeedQC(t, store, ledger.QCRecord{
		SourcePath:     "/data/a2.mp4",
		InterviewName:  "P1-0002",
		StudyID:        "StudyA",
		Passed:         true,
		ReportPossible: true,
	})

	processor := report.NewProcessor(store, cfg.Paths.ReportsDir)
	outcome := processor.Process(context.Background(), &scheduler.Candidate{Key: "P1-0002", Study: "StudyA"})
	if outcome.Kind != scheduler.OutcomePermanentFailure {
		t.Fatalf("expected permanent failure, got %s", outcome.Kind)
	}
}

func TestHealerGateMirrorsQCRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedReportable(t, store, "P1-0003", "/data/a3.mp4")

	healer := report.NewHealer(cfg, store, logging.NewNop())
	if err := healer.MarkPermanentFailure(ctx, "P1-0003", "render failed"); err != nil {
		t.Fatalf("MarkPermanentFailure: %v", err)
	}

	excluded, err := store.IsExcluded(ctx, "report", "P1-0003")
	if err != nil {
		t.Fatalf("IsExcluded: %v", err)
	}
	if !excluded {
		t.Fatal("expected gating marker")
	}

	qc, err := store.GetQCByInterview(ctx, "P1-0003")
	if err != nil {
		t.Fatalf("GetQCByInterview: %v", err)
	}
	if qc == nil || qc.ReportPossible {
		t.Fatalf("expected report_possible cleared, got %+v", qc)
	}
}

func TestFailedVerdictStillGetsReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0005", "/data/a5.mp4")
	testsupport.SeedProbe(t, store, ledger.ProbeRecord{
		SourcePath:      "/data/a5.mp4",
		InterviewName:   "P1-0005",
		StudyID:         "StudyA",
		FormatName:      "mov,mp4",
		DurationSeconds: 4,
		VideoStreams:    1,
		Width:           320,
		Height:          240,
	})
	testsupport.SeedQC(t, store, ledger.QCRecord{
		SourcePath:     "/data/a5.mp4",
		InterviewName:  "P1-0005",
		StudyID:        "StudyA",
		Passed:         false,
		ReportPossible: true,
		Notes:          "duration 4.0s below 30s floor",
	})

	worker, err := report.NewWorker(cfg, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	record, err := store.GetReport(ctx, "P1-0005")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if record == nil {
		t.Fatal("expected a report for the failed verdict")
	}
	if _, err := os.Stat(record.ReportPath); err != nil {
		t.Fatalf("stat rendered pdf: %v", err)
	}
}

func TestReportNotPossibleLeavesEligibility(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedReportable(t, store, "P1-0006", "/data/a6.mp4")
	if err := store.MarkReportNotPossible(ctx, "P1-0006", "render failed"); err != nil {
		t.Fatalf("MarkReportNotPossible: %v", err)
	}

	source := scheduler.NewSQLSource(store.DB(), report.Predicate())
	next, err := source.Next(ctx, "StudyA")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != nil {
		t.Fatalf("expected interview to be ineligible, got %+v", next)
	}
}

func TestGatedInterviewLeavesEligibility(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedReportable(t, store, "P1-0004", "/data/a4.mp4")
	if err := store.AddExclusion(ctx, "report", "P1-0004", "manual hold"); err != nil {
		t.Fatalf("AddExclusion: %v", err)
	}

	source := scheduler.NewSQLSource(store.DB(), report.Predicate())
	next, err := source.Next(ctx, "StudyA")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != nil {
		t.Fatalf("expected gated interview to be ineligible, got %+v", next)
	}
}
