package config

import (
	"errors"
	"fmt"
)

// Validate checks ranges and required keys. Paths are only checked for
// presence; whether they exist is decided at backup time.
func (c *Config) Validate() error {
	var errs []error

	if c.Source.Path == "" {
		errs = append(errs, errors.New("source.path is required"))
	}
	if c.Destination.Root == "" {
		errs = append(errs, errors.New("destination.root is required"))
	}
	if c.Source.ProbeInterval <= 0 {
		errs = append(errs, fmt.Errorf("source.probeInterval must be positive, got %s", c.Source.ProbeInterval))
	}
	if c.Schedule.IntervalMinutes < 1 {
		errs = append(errs, fmt.Errorf("schedule.intervalMinutes must be >= 1, got %d", c.Schedule.IntervalMinutes))
	}
	if c.Schedule.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("schedule.tickInterval must be positive, got %s", c.Schedule.TickInterval))
	}
	if c.Destination.Retention.MaxSnapshots < 1 {
		errs = append(errs, fmt.Errorf("destination.retention.maxSnapshots must be >= 1, got %d", c.Destination.Retention.MaxSnapshots))
	}
	if c.Destination.Retention.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("destination.retention.maxAge must not be negative, got %s", c.Destination.Retention.MaxAge))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}

	switch c.ConfigReload.Mode {
	case "auto", "poll", "fsnotify":
	default:
		errs = append(errs, fmt.Errorf("configReload.mode %q is not one of auto, poll, fsnotify", c.ConfigReload.Mode))
	}
	if c.ConfigReload.Enabled && c.ConfigReload.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("configReload.pollInterval must be positive, got %s", c.ConfigReload.PollInterval))
	}
	if c.API.Enabled && c.API.Listen == "" {
		errs = append(errs, errors.New("api.listen is required when the api is enabled"))
	}

	return errors.Join(errs...)
}
