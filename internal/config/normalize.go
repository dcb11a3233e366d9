package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeneral()
	c.normalizeOrchestration()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataRoot) == "" {
		c.Paths.DataRoot = defaultDataRoot
	}
	if c.Paths.DataRoot, err = expandPath(c.Paths.DataRoot); err != nil {
		return fmt.Errorf("paths.data_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportsDir) == "" {
		c.Paths.ReportsDir = defaultReportsDir
	}
	if c.Paths.ReportsDir, err = expandPath(c.Paths.ReportsDir); err != nil {
		return fmt.Errorf("paths.reports_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGeneral() {
	studies := make([]string, 0, len(c.General.Studies))
	seen := make(map[string]struct{}, len(c.General.Studies))
	for _, study := range c.General.Studies {
		trimmed := strings.TrimSpace(study)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		studies = append(studies, trimmed)
	}
	c.General.Studies = studies
}

func (c *Config) normalizeOrchestration() {
	if c.Orchestration.SnoozeSeconds < 0 {
		c.Orchestration.SnoozeSeconds = 0
	}
	if c.Orchestration.MaxTransientRetries < 0 {
		c.Orchestration.MaxTransientRetries = 0
	}
	if strings.TrimSpace(c.Orchestration.RepairSchedule) == "" {
		c.Orchestration.RepairSchedule = defaultRepairSchedule
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
