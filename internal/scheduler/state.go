package scheduler

import (
	"errors"
	"time"
)

var (
	// ErrAlreadyRunning rejects a trigger while a backup is in progress.
	// It is informational: nothing was started and nothing needs cleaning up.
	ErrAlreadyRunning = errors.New("backup already running")
	// ErrInvalidInterval rejects intervals below one minute.
	ErrInvalidInterval = errors.New("interval must be at least 1 minute")
	// ErrInvalidRetention rejects a snapshot limit below one.
	ErrInvalidRetention = errors.New("max snapshots must be at least 1")
)

// Trigger names what started a backup.
type Trigger string

const (
	TriggerTimer       Trigger = "timer"
	TriggerManual      Trigger = "manual"
	TriggerProcessExit Trigger = "process_exit"
)

// Phase is derived from BackupInProgress.
type Phase string

const (
	Idle          Phase = "idle"
	BackupRunning Phase = "backup_running"
)

// State is a copy of the scheduler's state at one point in time.
type State struct {
	IntervalMinutes  int
	NextFireAt       time.Time
	LastBackupAt     time.Time // zero means never
	BackupInProgress bool

	LastTrigger Trigger
	LastError   string
}

func (s State) Phase() Phase {
	if s.BackupInProgress {
		return BackupRunning
	}
	return Idle
}

func (s State) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// Countdown is max(0, NextFireAt-now).
func (s State) Countdown(now time.Time) time.Duration {
	d := s.NextFireAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Paths locates the folder to preserve and where snapshots go.
type Paths struct {
	Source      string
	Destination string
}
