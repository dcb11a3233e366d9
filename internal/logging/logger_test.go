package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/logging"
)

func TestConsoleOutputFormatsComponentAndAttrs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shuttle.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	component := logging.NewComponentLogger(logger, "worker")
	component.Info("processing candidate",
		logging.String(logging.FieldStage, "metadata"),
		logging.String(logging.FieldCandidate, "/data/a 1.mp4"),
		logging.Int("attempts", 3),
	)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))

	if !strings.Contains(line, "INFO worker: processing candidate") {
		t.Fatalf("missing component prefix: %q", line)
	}
	if !strings.Contains(line, "stage=metadata") {
		t.Fatalf("missing stage attr: %q", line)
	}
	if !strings.Contains(line, `candidate="/data/a 1.mp4"`) {
		t.Fatalf("expected quoted candidate value: %q", line)
	}
	if !strings.Contains(line, "attempts=3") {
		t.Fatalf("missing attempts attr: %q", line)
	}
}

func TestJSONOutputRenamesCoreKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shuttle.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Warn("no work found", logging.String(logging.FieldEventType, "worker_backoff"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["msg"] != "no work found" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
	if entry["level"] != "warn" {
		t.Fatalf("unexpected level %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if entry[logging.FieldEventType] != "worker_backoff" {
		t.Fatalf("unexpected event type %v", entry[logging.FieldEventType])
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shuttle.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "suppressed") {
		t.Fatalf("info line should be filtered: %q", content)
	}
	if !strings.Contains(content, "kept") {
		t.Fatalf("warn line missing: %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
