package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestParseAppliesDefaultsAndExpandsEnv(t *testing.T) {
	c := qt.New(t)
	t.Setenv("SNAPKEEP_TEST_HOME", "/home/tester")

	cfg, err := Parse([]byte(`
source:
  path: "$(SNAPKEEP_TEST_HOME)/settings"
destination:
  root: "$(SNAPKEEP_TEST_HOME)/backups"
schedule:
  intervalMinutes: 15
`))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Source.Path, qt.Equals, "/home/tester/settings")
	c.Assert(cfg.Destination.Root, qt.Equals, "/home/tester/backups")
	c.Assert(cfg.Schedule.IntervalMinutes, qt.Equals, 15)

	// untouched keys keep their defaults
	c.Assert(cfg.Destination.Retention.MaxSnapshots, qt.Equals, 10)
	c.Assert(cfg.Schedule.TickInterval, qt.Equals, 30*time.Second)
	c.Assert(cfg.Source.ProcessName, qt.Equals, "FC25.exe")
	c.Assert(cfg.ConfigReload.Mode, qt.Equals, "auto")
}

func TestParseDurations(t *testing.T) {
	c := qt.New(t)

	cfg, err := Parse([]byte(`
source:
  path: /src
  probeInterval: 2s
destination:
  root: /dst
  retention:
    maxAge: 48h
`))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Source.ProbeInterval, qt.Equals, 2*time.Second)
	c.Assert(cfg.Destination.Retention.MaxAge, qt.Equals, 48*time.Hour)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	c := qt.New(t)

	_, err := Parse([]byte(`
source:
  path: /src
destination:
  root: /dst
  retention:
    maxSnapshots: 0
schedule:
  intervalMinutes: 0
configReload:
  mode: inotify
`))
	c.Assert(err, qt.ErrorMatches, `(?s)invalid config: .*intervalMinutes must be >= 1.*maxSnapshots must be >= 1.*mode "inotify".*`)
}

func TestParseRequiresPaths(t *testing.T) {
	c := qt.New(t)

	_, err := Parse([]byte("schedule:\n  intervalMinutes: 5\n"))
	c.Assert(err, qt.ErrorMatches, `(?s).*source.path is required.*destination.root is required.*`)
}

func TestLoadMissingFile(t *testing.T) {
	c := qt.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	c.Assert(errors.Is(err, fs.ErrNotExist), qt.IsTrue)
}

func TestWriteDefaultProducesLoadableFile(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	t.Setenv("LOCALAPPDATA", dir)
	t.Setenv("HOME", dir)

	path := filepath.Join(dir, "config.yaml")
	c.Assert(WriteDefault(path), qt.IsNil)

	cfg, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Source.Path, qt.Equals, dir+"/EA SPORTS FC 25/settings")
	c.Assert(cfg.Destination.Root, qt.Equals, dir+"/snapkeep-backups")
	c.Assert(cfg.Destination.Retention.MaxAge, qt.Equals, 720*time.Hour)

	// never clobbers an existing file
	c.Assert(os.WriteFile(path, []byte("custom"), 0o644), qt.IsNil)
	c.Assert(WriteDefault(path), qt.Not(qt.IsNil))
	b, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(b), qt.Equals, "custom")
}
