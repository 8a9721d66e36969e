package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"

	"github.com/raoulx24/snapkeep/internal/config"
)

func decodeLines(c *qt.C, buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		c.Assert(json.Unmarshal([]byte(line), &m), qt.IsNil)
		out = append(out, m)
	}
	return out
}

func TestKeyValuePairs(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel)

	l.Info("backup complete", "path", "/b/backup_1", "size", 42, "took", 3*time.Second)
	l.Error("backup failed", "error", errors.New("disk full"))

	lines := decodeLines(c, &buf)
	c.Assert(lines, qt.HasLen, 2)
	c.Assert(lines[0]["message"], qt.Equals, "backup complete")
	c.Assert(lines[0]["level"], qt.Equals, "info")
	c.Assert(lines[0]["path"], qt.Equals, "/b/backup_1")
	c.Assert(lines[0]["size"], qt.Equals, float64(42))
	c.Assert(lines[0]["took"], qt.Equals, "3s")
	c.Assert(lines[1]["error"], qt.Equals, "disk full")
}

func TestOddKeyValueCount(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel)

	l.Warn("dangling", "orphan")

	lines := decodeLines(c, &buf)
	c.Assert(lines, qt.HasLen, 1)
	c.Assert(lines[0]["!BADKEY"], qt.Equals, "orphan")
}

func TestLevelFiltering(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(c, &buf)
	c.Assert(lines, qt.HasLen, 1)
	c.Assert(lines[0]["message"], qt.Equals, "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	c := qt.New(t)
	_, err := New(config.LoggingConfig{Level: "chatty"})
	c.Assert(err, qt.ErrorMatches, `parsing log level "chatty": .*`)
}
