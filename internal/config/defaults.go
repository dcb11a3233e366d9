package config

const (
	defaultDataRoot            = "~/.local/share/shuttle/data"
	defaultLogDir              = "~/.local/share/shuttle/logs"
	defaultReportsDir          = "~/.local/share/shuttle/reports"
	defaultSnoozeSeconds       = 60
	defaultMaxTransientRetries = 0
	defaultRepairSchedule      = "*/30 * * * *"
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
	defaultNtfyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataRoot:   defaultDataRoot,
			LogDir:     defaultLogDir,
			ReportsDir: defaultReportsDir,
		},
		General: General{
			SelfHeal: true,
		},
		Orchestration: Orchestration{
			SnoozeSeconds:       defaultSnoozeSeconds,
			MaxTransientRetries: defaultMaxTransientRetries,
			RepairSchedule:      defaultRepairSchedule,
		},
		Tools: Tools{
			FFprobe: "ffprobe",
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Sweeps:         true,
			Failures:       true,
			Errors:         true,
		},
	}
}
