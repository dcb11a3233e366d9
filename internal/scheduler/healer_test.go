package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"shuttle/internal/logging"
	"shuttle/internal/scheduler"
)

func TestHealerMarkPermanentFailureDisabled(t *testing.T) {
	ledger := newFakeLedger(nil)
	healer := scheduler.NewHealer("metadata", false, ledger, nil, logging.NewNop())

	if healer.Enabled() {
		t.Fatal("healer should report disabled")
	}
	if err := healer.MarkPermanentFailure(context.Background(), "key", "reason"); err != nil {
		t.Fatalf("MarkPermanentFailure: %v", err)
	}
	if _, ok := ledger.gateReason("key"); ok {
		t.Fatal("disabled healer must not write gate rows")
	}
}

func TestHealerPurgeStaleCompletion(t *testing.T) {
	purged := make(map[string]int)
	purge := func(ctx context.Context, key string) (bool, error) {
		purged[key]++
		return purged[key] == 1, nil
	}

	healer := scheduler.NewHealer("report", true, newFakeLedger(nil), purge, logging.NewNop())

	removed, err := healer.PurgeStaleCompletion(context.Background(), "P1-0001")
	if err != nil {
		t.Fatalf("PurgeStaleCompletion: %v", err)
	}
	if !removed {
		t.Fatal("expected first purge to remove a row")
	}

	// A second purge of the same key finds nothing; callers see false.
	removed, err = healer.PurgeStaleCompletion(context.Background(), "P1-0001")
	if err != nil {
		t.Fatalf("second purge: %v", err)
	}
	if removed {
		t.Fatal("expected second purge to be a no-op")
	}
}

func TestHealerPurgeDisabled(t *testing.T) {
	called := false
	purge := func(ctx context.Context, key string) (bool, error) {
		called = true
		return true, nil
	}

	healer := scheduler.NewHealer("report", false, newFakeLedger(nil), purge, logging.NewNop())
	removed, err := healer.PurgeStaleCompletion(context.Background(), "P1-0001")
	if err != nil {
		t.Fatalf("PurgeStaleCompletion: %v", err)
	}
	if removed || called {
		t.Fatal("disabled healer must not purge")
	}
}

func TestHealerPropagatesPurgeErrors(t *testing.T) {
	wantErr := errors.New("database locked")
	purge := func(ctx context.Context, key string) (bool, error) {
		return false, wantErr
	}

	healer := scheduler.NewHealer("report", true, newFakeLedger(nil), purge, logging.NewNop())
	if _, err := healer.PurgeStaleCompletion(context.Background(), "P1-0001"); !errors.Is(err, wantErr) {
		t.Fatalf("expected purge error, got %v", err)
	}
}
