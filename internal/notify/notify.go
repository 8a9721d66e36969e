// Package notify delivers user-facing messages. Delivery is best-effort:
// nothing here returns an error to the caller.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/store"
)

type Notifier interface {
	Notify(title, message string)
}

// Log writes notifications to the logger.
type Log struct {
	log logging.Logger
}

func NewLog(log logging.Logger) Log {
	return Log{log: log}
}

func (n Log) Notify(title, message string) {
	n.log.Info("notify: "+title, "message", message)
}

// Recorder persists an event.
type Recorder interface {
	RecordEvent(ctx context.Context, eventType, level, title, message string) (store.Event, error)
}

// EventLog records notifications into the event log so the presentation
// layer can show a history.
type EventLog struct {
	rec     Recorder
	log     logging.Logger
	timeout time.Duration
	onEvent func(store.Event)
}

func NewEventLog(rec Recorder, log logging.Logger) *EventLog {
	return &EventLog{rec: rec, log: log, timeout: 5 * time.Second}
}

// OnEvent registers a callback for each recorded event.
func (n *EventLog) OnEvent(fn func(store.Event)) {
	n.onEvent = fn
}

func (n *EventLog) Notify(title, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	ev, err := n.rec.RecordEvent(ctx, "notification", Level(title), title, message)
	if err != nil {
		n.log.Warn("notify: recording event failed", "title", title, "error", err)
		return
	}
	if n.onEvent != nil {
		n.onEvent(ev)
	}
}

// Level classifies a notification by its title.
func Level(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "failed"), strings.Contains(t, "not found"):
		return "error"
	case strings.Contains(t, "already running"):
		return "warn"
	default:
		return "info"
	}
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(title, message string) {
	for _, n := range m {
		n.Notify(title, message)
	}
}
