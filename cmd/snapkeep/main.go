package main

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/juju/clock"

	"github.com/raoulx24/snapkeep/internal/api"
	"github.com/raoulx24/snapkeep/internal/config"
	snapfs "github.com/raoulx24/snapkeep/internal/fs"
	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/notify"
	"github.com/raoulx24/snapkeep/internal/probe"
	"github.com/raoulx24/snapkeep/internal/retention"
	"github.com/raoulx24/snapkeep/internal/scheduler"
	"github.com/raoulx24/snapkeep/internal/store"
	"github.com/raoulx24/snapkeep/internal/watcher"
	"github.com/raoulx24/snapkeep/internal/worker"
)

func configPath() string {
	if p := os.Getenv("SNAPKEEP_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		cancel()
	}()

	// Load config, creating a starter file on first run
	path := configPath()
	cfg, err := config.Load(path)
	if errors.Is(err, iofs.ErrNotExist) {
		if werr := config.WriteDefault(path); werr != nil {
			log.Fatalf("failed to create default config: %v", werr)
		}
		fmt.Fprintf(os.Stderr, "created %s with default settings; edit the source and destination paths and start snapkeep again\n", path)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Logger
	logg, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logg.Close()

	// Settings store; values there are later user changes and win over the file
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	state := store.NewStateAdapter(db)
	settings, err := state.Load(ctx, time.Now(), store.Settings{
		SourcePath:      cfg.Source.Path,
		BackupPath:      cfg.Destination.Root,
		IntervalMinutes: cfg.Schedule.IntervalMinutes,
		MaxSnapshots:    cfg.Destination.Retention.MaxSnapshots,
	})
	if err != nil {
		logg.Error("reading stored settings failed, using config values", "error", err)
	}

	fsys := snapfs.New()

	// Retention engine
	policy := retention.PolicyFrom(cfg.Destination.Retention)
	policy.MaxSnapshots = settings.MaxSnapshots
	ret := retention.New(policy, logg, fsys)

	// Worker (snapshot writer)
	w := worker.New(logg, fsys)
	if removed, err := w.SweepStaging(settings.BackupPath); err != nil {
		logg.Warn("sweeping stale staging directories failed", "error", err)
	} else if len(removed) > 0 {
		logg.Info("removed stale staging directories", "count", len(removed))
	}

	// Notifier: log plus the event history
	notifier := notify.Multi{notify.NewLog(logg), notify.NewEventLog(db, logg)}

	// Scheduler (single gate for every trigger)
	sched, err := scheduler.New(scheduler.Options{
		Paths: scheduler.Paths{Source: settings.SourcePath, Destination: settings.BackupPath},
		State: scheduler.State{
			IntervalMinutes: settings.IntervalMinutes,
			NextFireAt:      settings.NextBackupAt,
			LastBackupAt:    settings.LastBackupAt,
		},
		Executor:  w,
		Retention: ret,
		Store:     state,
		Notifier:  notifier,
		Clock:     clock.WallClock,
		Log:       logg,
	})
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	st := sched.State()
	logg.Info("snapkeep started",
		"source", settings.SourcePath,
		"destination", settings.BackupPath,
		"intervalMinutes", st.IntervalMinutes,
		"next", st.NextFireAt,
		"lastBackup", lastBackup(st.LastBackupAt))

	// backups started outside the cadence jobs, awaited at shutdown
	var detached sync.WaitGroup

	// Process monitor: the target exiting triggers a final backup
	monitor := probe.NewMonitor(probe.ProcessProbe{Name: cfg.Source.ProcessName}, logg, exitBackup(sched, &detached))

	// Cadence: countdown ticks and process polling
	cad := newCadence(ctx, cfg, sched, monitor, logg)
	cad.Start()

	rl := newReloader(path, cfg, sched, ret, monitor, logg)

	// Config file watcher
	if cfg.ConfigReload.Enabled {
		watch := watcher.New(cfg.ConfigReload, path, logg, rl.reload)
		rl.watch = watch
		go func() {
			if err := watch.Start(ctx); err != nil {
				logg.Error("config watcher stopped", "error", err)
			}
		}()
	}

	// Hot reload on SIGHUP
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)

		for range sigCh {
			rl.reload()
		}
	}()

	// Manual backup signal (the hotkey)
	if len(manualBackupSignals) > 0 {
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, manualBackupSignals...)

			for range sigCh {
				detached.Add(1)
				go func() {
					defer detached.Done()
					_, _ = sched.OnManualTrigger(ctx)
				}()
			}
		}()
	}

	// HTTP surface
	var srv *http.Server
	if cfg.API.Enabled {
		srv = &http.Server{
			Addr: cfg.API.Listen,
			Handler: api.NewRouter(api.Options{
				Engine:         sched,
				Retention:      ret,
				Events:         db,
				FS:             fsys,
				TargetRunning:  monitor.Running,
				AllowedOrigins: cfg.API.AllowedOrigins,
				Log:            logg,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logg.Info("api listening", "addr", cfg.API.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error("api server failed", "error", err)
			}
		}()
	}

	<-ctx.Done()

	if srv != nil {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(sctx); err != nil {
			logg.Warn("api shutdown incomplete", "error", err)
		}
		scancel()
	}

	// wait for running jobs; an interrupted copy removes its staging dir
	<-cad.Stop().Done()
	detached.Wait()
	logg.Info("exit complete")
}

// exitBackup starts the final backup on its own goroutine so the monitor
// keeps polling the target while the copy runs.
func exitBackup(sched exitTrigger, wg *sync.WaitGroup) func(context.Context) {
	return func(ctx context.Context) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sched.OnProcessExit(ctx)
		}()
	}
}

type exitTrigger interface {
	OnProcessExit(ctx context.Context) (*scheduler.Outcome, error)
}

// newCadence schedules the countdown tick and the process poll. The poll
// always runs; an empty process name matches nothing until a reload sets
// one.
func newCadence(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, monitor *probe.Monitor, log logging.Logger) *scheduler.Cadence {
	cad := scheduler.NewCadence(log)
	cad.DriveTicks(ctx, sched, cfg.Schedule.TickInterval)
	cad.Every(cfg.Source.ProbeInterval, func() {
		if ctx.Err() == nil {
			monitor.Poll(ctx)
		}
	})
	return cad
}

func lastBackup(t time.Time) string {
	if t.IsZero() {
		return store.Never
	}
	return t.Format(time.DateTime)
}
