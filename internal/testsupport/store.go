package testsupport

import (
	"context"
	"testing"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedInterviewFile records a study and one transferred recording under it.
func SeedInterviewFile(t testing.TB, store *ledger.Store, study, interviewName, filePath string) {
	t.Helper()

	ctx := context.Background()
	if err := store.AddStudy(ctx, study); err != nil {
		t.Fatalf("store.AddStudy: %v", err)
	}
	err := store.AddInterviewFile(ctx, ledger.InterviewFile{
		FilePath:      filePath,
		InterviewName: interviewName,
		StudyID:       study,
		InterviewType: "onsite",
	})
	if err != nil {
		t.Fatalf("store.AddInterviewFile: %v", err)
	}
}

// SeedProbe records a metadata completion for the given recording.
func SeedProbe(t testing.TB, store *ledger.Store, record ledger.ProbeRecord) {
	t.Helper()

	if err := store.InsertProbe(context.Background(), record); err != nil {
		t.Fatalf("store.InsertProbe: %v", err)
	}
}

// SeedQC records a quick-QC completion for the given recording.
func SeedQC(t testing.TB, store *ledger.Store, record ledger.QCRecord) {
	t.Helper()

	if err := store.UpsertQC(context.Background(), record); err != nil {
		t.Fatalf("store.UpsertQC: %v", err)
	}
}
