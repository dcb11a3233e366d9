package scheduler_test

import (
	"context"
	"strings"
	"testing"

	"shuttle/internal/ledger"
	"shuttle/internal/scheduler"
	"shuttle/internal/testsupport"
)

func TestPredicateBuildComposesClauses(t *testing.T) {
	predicate := scheduler.EligibilityPredicate{
		Upstream:    scheduler.TableRef{Table: "interview_files", KeyColumn: "file_path"},
		StudyColumn: "study_id",
		Downstream:  []scheduler.TableRef{{Table: "ffprobe_metadata", KeyColumn: "source_path"}},
		GateStage:   "metadata",
		Filters: []scheduler.Filter{
			{Column: "video_streams", Op: ">", Value: 0},
		},
	}

	query, args, err := predicate.Build("StudyA")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, fragment := range []string{
		"SELECT u.file_path FROM interview_files AS u",
		"u.study_id = ?",
		"NOT EXISTS (SELECT 1 FROM ffprobe_metadata AS d WHERE d.source_path = u.file_path)",
		"NOT EXISTS (SELECT 1 FROM process_exclusions AS g WHERE g.stage = ? AND g.candidate_key = u.file_path)",
		"u.video_streams > ?",
		"ORDER BY RANDOM() LIMIT 1",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("query missing %q:\n%s", fragment, query)
		}
	}

	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %v", args)
	}
	if args[0] != "StudyA" || args[1] != "metadata" || args[2] != 0 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestPredicateBuildRejectsBadInput(t *testing.T) {
	base := scheduler.EligibilityPredicate{
		Upstream:    scheduler.TableRef{Table: "interview_files", KeyColumn: "file_path"},
		StudyColumn: "study_id",
	}

	bad := base
	bad.Upstream.Table = "interview_files; DROP TABLE studies"
	if _, _, err := bad.Build("StudyA"); err == nil {
		t.Fatal("expected error for malicious table name")
	}

	bad = base
	bad.Filters = []scheduler.Filter{{Column: "duration_seconds", Op: "LIKE", Value: "%"}}
	if _, _, err := bad.Build("StudyA"); err == nil {
		t.Fatal("expected error for disallowed operator")
	}

	bad = base
	bad.Downstream = []scheduler.TableRef{{Table: "pdf_reports", KeyColumn: "interview name"}}
	if _, _, err := bad.Build("StudyA"); err == nil {
		t.Fatal("expected error for invalid key column")
	}
}

func TestSQLSourceAgainstLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStudies("StudyA", "StudyB"))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0001", "/data/a1.mp4")
	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0002", "/data/a2.mp4")
	testsupport.SeedInterviewFile(t, store, "StudyB", "P2-0001", "/data/b1.mp4")

	source := scheduler.NewSQLSource(store.DB(), scheduler.EligibilityPredicate{
		Upstream:    scheduler.TableRef{Table: "interview_files", KeyColumn: "file_path"},
		StudyColumn: "study_id",
		Downstream:  []scheduler.TableRef{{Table: "ffprobe_metadata", KeyColumn: "source_path"}},
		GateStage:   "metadata",
	})

	// A completion removes the key from eligibility.
	testsupport.SeedProbe(t, store, ledger.ProbeRecord{
		SourcePath:    "/data/a1.mp4",
		InterviewName: "P1-0001",
		StudyID:       "StudyA",
		FormatName:    "mov,mp4",
		VideoStreams:  1,
	})

	next, err := source.Next(ctx, "StudyA")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next == nil || next.Key != "/data/a2.mp4" {
		t.Fatalf("expected /data/a2.mp4, got %+v", next)
	}
	if next.Study != "StudyA" {
		t.Fatalf("expected study StudyA, got %q", next.Study)
	}

	// Gating removes the remaining key; the gate is stage-scoped.
	if err := store.AddExclusion(ctx, "metadata", "/data/a2.mp4", "corrupt header"); err != nil {
		t.Fatalf("AddExclusion: %v", err)
	}
	next, err = source.Next(ctx, "StudyA")
	if err != nil {
		t.Fatalf("Next after gate: %v", err)
	}
	if next != nil {
		t.Fatalf("expected drained study, got %+v", next)
	}

	// Other partitions are untouched.
	next, err = source.Next(ctx, "StudyB")
	if err != nil {
		t.Fatalf("Next StudyB: %v", err)
	}
	if next == nil || next.Key != "/data/b1.mp4" {
		t.Fatalf("expected /data/b1.mp4, got %+v", next)
	}

	// Unknown studies read as drained.
	next, err = source.Next(ctx, "StudyZ")
	if err != nil {
		t.Fatalf("Next StudyZ: %v", err)
	}
	if next != nil {
		t.Fatalf("expected no candidate for unknown study, got %+v", next)
	}
}

func TestSQLSourceHonorsFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0001", "/data/audio_only.mp4")
	testsupport.SeedProbe(t, store, ledger.ProbeRecord{
		SourcePath:    "/data/audio_only.mp4",
		InterviewName: "P1-0001",
		StudyID:       "StudyA",
		AudioStreams:  1,
	})

	source := scheduler.NewSQLSource(store.DB(), scheduler.EligibilityPredicate{
		Upstream:    scheduler.TableRef{Table: "ffprobe_metadata", KeyColumn: "source_path"},
		StudyColumn: "study_id",
		Downstream:  []scheduler.TableRef{{Table: "video_qc", KeyColumn: "source_path"}},
		GateStage:   "video_qc",
		Filters: []scheduler.Filter{
			{Column: "video_streams", Op: ">", Value: 0},
		},
	})

	next, err := source.Next(ctx, "StudyA")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != nil {
		t.Fatalf("filter should exclude audio-only rows, got %+v", next)
	}
}
