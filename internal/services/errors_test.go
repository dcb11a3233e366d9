package services_test

import (
	"errors"
	"testing"

	"shuttle/internal/services"
)

func TestWrapTagsAndFormats(t *testing.T) {
	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "metadata", "ffprobe", "/data/a1.mp4", cause)

	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected external tool marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be wrapped")
	}
	want := "external tool error: metadata: ffprobe: /data/a1.mp4: exit status 1"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "report", "render", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("nil marker should default to transient")
	}
	if services.IsPermanent(err) {
		t.Fatal("transient errors are not permanent")
	}
}

func TestIsPermanent(t *testing.T) {
	permanent := []error{
		services.Wrap(services.ErrValidation, "video_qc", "check", "", nil),
		services.Wrap(services.ErrConfiguration, "", "", "missing studies", nil),
		services.Wrap(services.ErrNotFound, "report", "load qc", "P1-0001", nil),
	}
	for _, err := range permanent {
		if !services.IsPermanent(err) {
			t.Fatalf("expected permanent classification for %v", err)
		}
	}

	transient := []error{
		services.Wrap(services.ErrExternalTool, "metadata", "ffprobe", "", nil),
		services.Wrap(services.ErrTimeout, "metadata", "ffprobe", "", nil),
		services.Wrap(services.ErrTransient, "metadata", "stat", "", nil),
		errors.New("plain"),
	}
	for _, err := range transient {
		if services.IsPermanent(err) {
			t.Fatalf("expected transient classification for %v", err)
		}
	}
}
