package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGeneral(); err != nil {
		return err
	}
	if err := c.validateOrchestration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeneral() error {
	if len(c.General.Studies) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shuttle/config.toml"
		}
		return fmt.Errorf("general.studies must name at least one study; edit %s (create with 'shuttle config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateOrchestration() error {
	if c.Orchestration.SnoozeSeconds == 0 {
		// Zero means drain-and-exit workers, which is a valid batch mode.
		return nil
	}
	if c.Orchestration.SnoozeSeconds < 5 {
		return errors.New("orchestration.snooze_seconds must be 0 or at least 5")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must not be negative")
	}
	return nil
}
