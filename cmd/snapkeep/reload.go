package main

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/raoulx24/snapkeep/internal/config"
	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/probe"
	"github.com/raoulx24/snapkeep/internal/retention"
	"github.com/raoulx24/snapkeep/internal/scheduler"
	"github.com/raoulx24/snapkeep/internal/snapshot"
	"github.com/raoulx24/snapkeep/internal/watcher"
)

// engine is what a reload changes on the running scheduler.
type engine interface {
	SetPaths(ctx context.Context, p scheduler.Paths) error
	SetInterval(ctx context.Context, minutes int) error
	SetRetention(ctx context.Context, maxSnapshots int) ([]snapshot.Record, error)
}

// reloader applies config file edits. Only values that changed in the file
// since the last load are applied, so a later change made through the API
// is not overwritten by an untouched file.
type reloader struct {
	mu   sync.Mutex
	path string
	prev *config.Config

	sched   engine
	ret     *retention.Engine
	monitor *probe.Monitor
	watch   *watcher.Watcher
	log     logging.Logger
}

func newReloader(path string, cfg *config.Config, sched engine, ret *retention.Engine, monitor *probe.Monitor, log logging.Logger) *reloader {
	return &reloader{path: path, prev: cfg, sched: sched, ret: ret, monitor: monitor, log: log}
}

func (r *reloader) reload() {
	newCfg, err := config.Load(r.path)
	if err != nil {
		r.log.Error("config reload failed", "error", err)
		return
	}
	r.apply(context.Background(), newCfg)
}

func (r *reloader) apply(ctx context.Context, newCfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.prev

	if newCfg.Source.Path != old.Source.Path || newCfg.Destination.Root != old.Destination.Root {
		p := scheduler.Paths{Source: newCfg.Source.Path, Destination: newCfg.Destination.Root}
		if err := r.sched.SetPaths(ctx, p); err != nil {
			r.log.Error("applying paths failed", "error", err)
		}
	}

	if newCfg.Schedule.IntervalMinutes != old.Schedule.IntervalMinutes {
		if err := r.sched.SetInterval(ctx, newCfg.Schedule.IntervalMinutes); err != nil {
			r.log.Error("applying interval failed", "error", err)
		}
	}

	if newCfg.Destination.Retention.MaxAge != old.Destination.Retention.MaxAge {
		p := r.ret.Policy()
		p.MaxAge = newCfg.Destination.Retention.MaxAge
		r.ret.UpdateConfig(p)
	}
	if newCfg.Destination.Retention.MaxSnapshots != old.Destination.Retention.MaxSnapshots {
		if _, err := r.sched.SetRetention(ctx, newCfg.Destination.Retention.MaxSnapshots); err != nil {
			r.log.Warn("applying retention incomplete", "error", err)
		}
	}

	if newCfg.Source.ProcessName != old.Source.ProcessName && r.monitor != nil {
		r.monitor.SetProbe(probe.ProcessProbe{Name: newCfg.Source.ProcessName})
	}

	if r.watch != nil {
		r.watch.UpdateConfig(newCfg.ConfigReload)
	}

	if changed := restartOnly(old, newCfg); len(changed) > 0 {
		r.log.Warn("changed settings take effect after a restart", "settings", strings.Join(changed, ", "))
	}

	r.prev = newCfg
	r.log.Info("config reloaded")
}

// restartOnly lists the changed settings that a running process cannot
// pick up.
func restartOnly(old, cur *config.Config) []string {
	var out []string
	if cur.Logging != old.Logging {
		out = append(out, "logging")
	}
	if cur.API.Enabled != old.API.Enabled || cur.API.Listen != old.API.Listen ||
		!slices.Equal(cur.API.AllowedOrigins, old.API.AllowedOrigins) {
		out = append(out, "api")
	}
	if cur.Store != old.Store {
		out = append(out, "store")
	}
	if cur.Schedule.TickInterval != old.Schedule.TickInterval {
		out = append(out, "schedule.tickInterval")
	}
	if cur.Source.ProbeInterval != old.Source.ProbeInterval {
		out = append(out, "source.probeInterval")
	}
	if cur.ConfigReload.Enabled != old.ConfigReload.Enabled || cur.ConfigReload.Mode != old.ConfigReload.Mode {
		out = append(out, "configReload.mode")
	}
	return out
}
