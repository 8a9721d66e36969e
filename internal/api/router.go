// Package api is the HTTP and WebSocket surface over the running engine.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/raoulx24/snapkeep/internal/fs"
	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/mailbox"
	"github.com/raoulx24/snapkeep/internal/retention"
	"github.com/raoulx24/snapkeep/internal/scheduler"
	"github.com/raoulx24/snapkeep/internal/snapshot"
	"github.com/raoulx24/snapkeep/internal/store"
)

// Engine is the part of the scheduler the API drives.
type Engine interface {
	State() scheduler.State
	Paths() scheduler.Paths
	CurrentCountdown(now time.Time) time.Duration
	OnManualTrigger(ctx context.Context) (*scheduler.Outcome, error)
	SetInterval(ctx context.Context, minutes int) error
	SetRetention(ctx context.Context, maxSnapshots int) ([]snapshot.Record, error)
	SetPaths(ctx context.Context, p scheduler.Paths) error
	Subscribe() (*mailbox.Mailbox[scheduler.State], func())
}

// PolicySource reports the retention policy in force.
type PolicySource interface {
	Policy() retention.Policy
}

// EventSource lists the event log.
type EventSource interface {
	RecentEvents(ctx context.Context, limit int) ([]store.Event, error)
}

type Options struct {
	Engine    Engine
	Retention PolicySource
	Events    EventSource // optional
	FS        fs.FS

	// TargetRunning reports the last probe result; nil means unknown.
	TargetRunning  func() bool
	AllowedOrigins []string
	Log            logging.Logger
	Now            func() time.Time
}

// NewRouter builds the chi router serving /api/v1.
func NewRouter(opts Options) *chi.Mux {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &handler{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", h.serveWS)
		r.Get("/status", h.status)
		r.Post("/backup", h.backup)
		r.Put("/interval", h.setInterval)
		r.Put("/retention", h.setRetention)
		r.Put("/paths", h.setPaths)
		r.Get("/snapshots", h.snapshots)
		r.Get("/events", h.events)
	})

	return r
}

// requestLogger logs one line per request through the app logger.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("api: request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
