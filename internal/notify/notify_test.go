package notify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/store"
)

type recorded struct{ Title, Message string }

type collect []recorded

func (c *collect) Notify(title, message string) {
	*c = append(*c, recorded{title, message})
}

type failingRecorder struct{}

func (failingRecorder) RecordEvent(context.Context, string, string, string, string) (store.Event, error) {
	return store.Event{}, errors.New("database is locked")
}

func TestLevel(t *testing.T) {
	c := qt.New(t)
	c.Assert(Level("Backup Complete"), qt.Equals, "info")
	c.Assert(Level("Backup Failed"), qt.Equals, "error")
	c.Assert(Level("Source Folder Not Found"), qt.Equals, "error")
	c.Assert(Level("Backup Already Running"), qt.Equals, "warn")
}

func TestMultiFansOut(t *testing.T) {
	c := qt.New(t)
	var a, b collect
	Multi{&a, NewLog(logging.Nop()), &b}.Notify("Backup Complete", "saved")

	want := collect{{"Backup Complete", "saved"}}
	c.Assert(a, qt.DeepEquals, want)
	c.Assert(b, qt.DeepEquals, want)
}

func TestEventLogRecords(t *testing.T) {
	c := qt.New(t)
	s, err := store.Open(filepath.Join(c.TempDir(), "events.db"))
	c.Assert(err, qt.IsNil)
	defer s.Close()

	n := NewEventLog(s, logging.Nop())
	var seen []store.Event
	n.OnEvent(func(ev store.Event) { seen = append(seen, ev) })

	n.Notify("Source Folder Not Found", "Source folder /src not found!")

	events, err := s.RecentEvents(context.Background(), 10)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Level, qt.Equals, "error")
	c.Assert(events[0].Message, qt.Equals, "Source folder /src not found!")
	c.Assert(seen, qt.HasLen, 1)
	c.Assert(seen[0].ID, qt.Equals, events[0].ID)
}

func TestEventLogSwallowsFailure(t *testing.T) {
	c := qt.New(t)
	n := NewEventLog(failingRecorder{}, logging.Nop())
	called := false
	n.OnEvent(func(store.Event) { called = true })

	n.Notify("Backup Complete", "saved")
	c.Assert(called, qt.IsFalse)
}
