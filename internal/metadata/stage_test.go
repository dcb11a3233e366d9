package metadata_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"shuttle/internal/logging"
	"shuttle/internal/metadata"
	"shuttle/internal/probe"
	"shuttle/internal/scheduler"
	"shuttle/internal/testsupport"
)

type stubRunner struct {
	result probe.Result
	err    error
	calls  int
}

func (r *stubRunner) Inspect(ctx context.Context, path string) (probe.Result, error) {
	r.calls++
	return r.result, r.err
}

func videoResult() probe.Result {
	result := probe.Result{
		Streams: []probe.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
			{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2},
		},
		Format: probe.Format{
			FormatName: "mov,mp4,m4a",
			Duration:   "92.5",
			Size:       "2048",
		},
	}
	result.SetRawJSON([]byte(`{"streams":[],"format":{}}`))
	return result
}

func TestProcessorBuildsProbeRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(testsupport.BaseDir(cfg), "a1.mp4")
	testsupport.WriteFile(t, sourcePath, 2048)
	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0001", sourcePath)

	runner := &stubRunner{result: videoResult()}
	processor := metadata.NewProcessor(store, runner)

	outcome := processor.Process(context.Background(), &scheduler.Candidate{Key: sourcePath, Study: "StudyA"})
	if outcome.Kind != scheduler.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%v)", outcome.Kind, outcome.Err)
	}

	if err := (metadata.Committer{}).Commit(context.Background(), nil, "wrong type"); err == nil {
		t.Fatal("expected commit to reject foreign payloads")
	}
}

func TestProcessorMissingFileIsTransient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(testsupport.BaseDir(cfg), "missing.mp4")
	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0001", sourcePath)

	runner := &stubRunner{result: videoResult()}
	processor := metadata.NewProcessor(store, runner)

	outcome := processor.Process(context.Background(), &scheduler.Candidate{Key: sourcePath, Study: "StudyA"})
	if outcome.Kind != scheduler.OutcomeTransientFailure {
		t.Fatalf("expected transient failure, got %s", outcome.Kind)
	}
	if runner.calls != 0 {
		t.Fatal("ffprobe must not run when the file is absent")
	}
}

func TestProcessorToolFailureIsTransient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(testsupport.BaseDir(cfg), "a1.mp4")
	testsupport.WriteFile(t, sourcePath, 64)
	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0001", sourcePath)

	runner := &stubRunner{err: errors.New("ffprobe exploded")}
	processor := metadata.NewProcessor(store, runner)

	outcome := processor.Process(context.Background(), &scheduler.Candidate{Key: sourcePath, Study: "StudyA"})
	if outcome.Kind != scheduler.OutcomeTransientFailure {
		t.Fatalf("expected transient failure, got %s", outcome.Kind)
	}
}

func TestProcessorNoStreamsIsPermanent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(testsupport.BaseDir(cfg), "empty.mp4")
	testsupport.WriteFile(t, sourcePath, 64)
	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0001", sourcePath)

	runner := &stubRunner{result: probe.Result{Format: probe.Format{FormatName: "mov,mp4"}}}
	processor := metadata.NewProcessor(store, runner)

	outcome := processor.Process(context.Background(), &scheduler.Candidate{Key: sourcePath, Study: "StudyA"})
	if outcome.Kind != scheduler.OutcomePermanentFailure {
		t.Fatalf("expected permanent failure, got %s", outcome.Kind)
	}
	if outcome.Reason != "no playable streams" {
		t.Fatalf("unexpected reason %q", outcome.Reason)
	}
}

func TestWorkerDrainsAndCommits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sourcePath := filepath.Join(testsupport.BaseDir(cfg), "a1.mp4")
	testsupport.WriteFile(t, sourcePath, 2048)
	testsupport.SeedInterviewFile(t, store, "StudyA", "P1-0001", sourcePath)

	runner := &stubRunner{result: videoResult()}
	worker, err := metadata.NewWorker(cfg, store, runner, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	if err := worker.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	record, err := store.GetProbe(ctx, sourcePath)
	if err != nil {
		t.Fatalf("GetProbe: %v", err)
	}
	if record == nil {
		t.Fatal("expected probe record after drain")
	}
	if record.Width != 1920 || record.Height != 1080 || record.VideoStreams != 1 {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.DurationSeconds != 92.5 {
		t.Fatalf("unexpected duration %v", record.DurationSeconds)
	}

	entries, err := store.RecentLogs(ctx, 5)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "Processed 1 candidate(s)." {
		t.Fatalf("unexpected audit entries %+v", entries)
	}
	if entries[0].Module != "metadata" {
		t.Fatalf("unexpected audit module %q", entries[0].Module)
	}
}
