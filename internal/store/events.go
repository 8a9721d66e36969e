package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// fixed width so created_at sorts as text
const eventTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Event is one entry of the event log.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g. "notification"
	Level     string    `json:"level"` // "info", "warn", "error"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordEvent appends an event to the log.
func (s *Store) RecordEvent(ctx context.Context, eventType, level, title, message string) (Event, error) {
	ev := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, title, message, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		ev.ID, ev.Type, ev.Level, ev.Title, ev.Message, ev.CreatedAt.Format(eventTimeLayout))
	if err != nil {
		return Event{}, fmt.Errorf("recording event: %w", err)
	}
	return ev, nil
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, title, message, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var created string
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Level, &ev.Title, &ev.Message, &created); err != nil {
			return nil, fmt.Errorf("reading events: %w", err)
		}
		if ev.CreatedAt, err = time.Parse(eventTimeLayout, created); err != nil {
			return nil, fmt.Errorf("event %s: bad timestamp %q: %w", ev.ID, created, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
