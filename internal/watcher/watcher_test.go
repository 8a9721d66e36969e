package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/raoulx24/snapkeep/internal/config"
	"github.com/raoulx24/snapkeep/internal/logging"
)

func newTestWatcher(c *qt.C, mode string) (*Watcher, string, *atomic.Int32) {
	path := filepath.Join(c.TempDir(), "config.yaml")
	c.Assert(os.WriteFile(path, []byte("schedule:\n  intervalMinutes: 30\n"), 0o644), qt.IsNil)

	var calls atomic.Int32
	w := New(config.ReloadConfig{
		Mode:           mode,
		PollInterval:   20 * time.Millisecond,
		DebounceWindow: 20 * time.Millisecond,
	}, path, logging.Nop(), func() { calls.Add(1) })
	return w, path, &calls
}

func TestDetectIgnoresUnchangedFile(t *testing.T) {
	c := qt.New(t)
	w, _, calls := newTestWatcher(c, "poll")

	c.Assert(w.detect(), qt.IsFalse)
	c.Assert(calls.Load(), qt.Equals, int32(0))
}

func TestDetectFiresOncePerChange(t *testing.T) {
	c := qt.New(t)
	w, path, calls := newTestWatcher(c, "poll")

	c.Assert(os.WriteFile(path, []byte("schedule:\n  intervalMinutes: 120\n"), 0o644), qt.IsNil)
	c.Assert(w.detect(), qt.IsTrue)
	c.Assert(w.detect(), qt.IsFalse)
	c.Assert(calls.Load(), qt.Equals, int32(1))
}

func TestDetectIgnoresMissingFile(t *testing.T) {
	c := qt.New(t)
	w, path, calls := newTestWatcher(c, "poll")

	c.Assert(os.Remove(path), qt.IsNil)
	c.Assert(w.detect(), qt.IsFalse)
	c.Assert(calls.Load(), qt.Equals, int32(0))
}

func TestPollingPicksUpEdit(t *testing.T) {
	c := qt.New(t)
	w, path, calls := newTestWatcher(c, "poll")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	c.Assert(os.WriteFile(path, []byte("schedule:\n  intervalMinutes: 5\n"), 0o644), qt.IsNil)

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	c.Assert(<-done, qt.IsNil)
	c.Assert(calls.Load(), qt.Equals, int32(1))
}

func TestUnknownMode(t *testing.T) {
	c := qt.New(t)
	w, _, _ := newTestWatcher(c, "inotify")
	c.Assert(w.Start(context.Background()), qt.ErrorMatches, `unknown mode "inotify"`)
}

func TestUpdateConfigKeepsModeAndInterval(t *testing.T) {
	c := qt.New(t)
	w, _, _ := newTestWatcher(c, "poll")

	w.UpdateConfig(config.ReloadConfig{
		Mode:           "fsnotify",
		PollInterval:   time.Hour,
		DebounceWindow: time.Second,
	})

	c.Assert(w.mode, qt.Equals, "poll")
	c.Assert(w.interval, qt.Equals, 20*time.Millisecond)
	c.Assert(w.debounce, qt.Equals, time.Second)
	c.Assert(w.stability, qt.Equals, 500*time.Millisecond)
}
