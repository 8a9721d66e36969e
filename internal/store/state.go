package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Setting keys.
const (
	KeySourcePath      = "sourcePath"
	KeyBackupPath      = "backupPath"
	KeyIntervalMinutes = "intervalMinutes"
	KeyMaxSnapshots    = "maxSnapshots"
	KeyLastBackupAt    = "lastBackupAt"
	KeyNextBackupAt    = "nextBackupAt"
)

// Never is stored for lastBackupAt before the first successful backup.
const Never = "Never"

// ErrPersistence wraps every failed write. In-memory state stays
// authoritative when it is returned.
var ErrPersistence = errors.New("persistence failed")

// Settings is the engine state kept in the store. A zero LastBackupAt means
// Never.
type Settings struct {
	SourcePath      string
	BackupPath      string
	IntervalMinutes int
	MaxSnapshots    int
	LastBackupAt    time.Time
	NextBackupAt    time.Time
}

// StateAdapter maps engine state to settings keys.
type StateAdapter struct {
	store *Store
}

func NewStateAdapter(s *Store) *StateAdapter {
	return &StateAdapter{store: s}
}

// Load reads the stored settings. Missing or unparsable values fall back to
// defaults; a missing or unparsable nextBackupAt becomes now plus the
// resolved interval. On a read error the defaults are returned with it.
func (a *StateAdapter) Load(ctx context.Context, now time.Time, defaults Settings) (Settings, error) {
	out := defaults
	out.NextBackupAt = time.Time{}

	kv, err := a.store.All(ctx)
	if err != nil {
		out.NextBackupAt = now.Add(time.Duration(out.IntervalMinutes) * time.Minute)
		return out, err
	}

	if v := kv[KeySourcePath]; v != "" {
		out.SourcePath = v
	}
	if v := kv[KeyBackupPath]; v != "" {
		out.BackupPath = v
	}
	if n, ok := positiveInt(kv[KeyIntervalMinutes]); ok {
		out.IntervalMinutes = n
	}
	if n, ok := positiveInt(kv[KeyMaxSnapshots]); ok {
		out.MaxSnapshots = n
	}
	if t, ok := parseTime(kv[KeyLastBackupAt]); ok {
		out.LastBackupAt = t
	}
	if t, ok := parseTime(kv[KeyNextBackupAt]); ok {
		out.NextBackupAt = t
	} else {
		out.NextBackupAt = now.Add(time.Duration(out.IntervalMinutes) * time.Minute)
	}
	return out, nil
}

func (a *StateAdapter) SaveSchedule(ctx context.Context, last, next time.Time) error {
	return a.save(ctx, map[string]string{
		KeyLastBackupAt: formatTime(last),
		KeyNextBackupAt: formatTime(next),
	})
}

func (a *StateAdapter) SaveInterval(ctx context.Context, minutes int, next time.Time) error {
	return a.save(ctx, map[string]string{
		KeyIntervalMinutes: strconv.Itoa(minutes),
		KeyNextBackupAt:    formatTime(next),
	})
}

func (a *StateAdapter) SaveMaxSnapshots(ctx context.Context, n int) error {
	return a.save(ctx, map[string]string{KeyMaxSnapshots: strconv.Itoa(n)})
}

func (a *StateAdapter) SavePaths(ctx context.Context, source, destination string) error {
	return a.save(ctx, map[string]string{
		KeySourcePath: source,
		KeyBackupPath: destination,
	})
}

func (a *StateAdapter) save(ctx context.Context, kv map[string]string) error {
	if err := a.store.SetMany(ctx, kv); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// parseTime accepts ISO-8601 timestamps. Never and garbage report false.
func parseTime(s string) (time.Time, bool) {
	if s == "" || s == Never {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return Never
	}
	return t.UTC().Format(time.RFC3339)
}
