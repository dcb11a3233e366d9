package testsupport

import (
	"path/filepath"
	"testing"

	"shuttle/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataRoot = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ReportsDir = filepath.Join(base, "reports")
	cfg.General.Studies = []string{"StudyA"}
	cfg.Orchestration.SnoozeSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithStudies overrides the study rotation on the test config.
func WithStudies(studies ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.General.Studies = studies
	}
}

// WithSelfHeal toggles heal writes on the test config.
func WithSelfHeal(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.General.SelfHeal = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataRoot)
}
