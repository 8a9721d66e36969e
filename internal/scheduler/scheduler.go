// Package scheduler decides when backups happen. Timer ticks, manual
// requests and target-process exits all pass through one guarded entry, so
// at most one snapshot is ever being written.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/mailbox"
	"github.com/raoulx24/snapkeep/internal/snapshot"
	"github.com/raoulx24/snapkeep/internal/worker"
)

// Executor takes one snapshot.
type Executor interface {
	Execute(ctx context.Context, source, destRoot string, now time.Time) (snapshot.Record, error)
}

// Retention prunes the destination root after a successful snapshot.
type Retention interface {
	Apply(ctx context.Context, root string, now time.Time) ([]snapshot.Record, error)
	SetMaxSnapshots(n int)
}

// StateStore persists what must survive a restart.
type StateStore interface {
	SaveSchedule(ctx context.Context, last, next time.Time) error
	SaveInterval(ctx context.Context, minutes int, next time.Time) error
	SaveMaxSnapshots(ctx context.Context, n int) error
	SavePaths(ctx context.Context, source, destination string) error
}

// Notifier shows a message to the user. Delivery is best-effort.
type Notifier interface {
	Notify(title, message string)
}

type Options struct {
	Paths Paths

	// State is the restored state. A zero NextFireAt starts a full interval.
	State     State
	Executor  Executor
	Retention Retention
	Store     StateStore
	Notifier  Notifier
	Clock     clock.Clock
	Log       logging.Logger
}

// Outcome describes one completed backup cycle, successful or not.
type Outcome struct {
	Trigger     Trigger
	Record      snapshot.Record
	Pruned      []snapshot.Record
	StartedAt   time.Time
	CompletedAt time.Time
	NextFireAt  time.Time
}

type Scheduler struct {
	// persistMu is held from a persisted change until its write returns,
	// so the store sees writes in the order memory changed. Taken before mu.
	persistMu sync.Mutex

	mu    sync.Mutex
	state State
	paths Paths

	exec      Executor
	retention Retention
	store     StateStore
	notifier  Notifier
	clock     clock.Clock
	log       logging.Logger

	subs   map[int]*mailbox.Mailbox[State]
	nextID int
}

func New(opts Options) (*Scheduler, error) {
	if opts.Executor == nil || opts.Retention == nil || opts.Store == nil || opts.Notifier == nil || opts.Log == nil {
		return nil, errors.New("scheduler: executor, retention, store, notifier and log are required")
	}
	if opts.State.IntervalMinutes < 1 {
		return nil, fmt.Errorf("scheduler: %w, got %d", ErrInvalidInterval, opts.State.IntervalMinutes)
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}

	st := opts.State
	st.BackupInProgress = false
	if st.NextFireAt.IsZero() {
		st.NextFireAt = opts.Clock.Now().Add(st.Interval())
	}

	return &Scheduler{
		state:     st,
		paths:     opts.Paths,
		exec:      opts.Executor,
		retention: opts.Retention,
		store:     opts.Store,
		notifier:  opts.Notifier,
		clock:     opts.Clock,
		log:       opts.Log,
		subs:      make(map[int]*mailbox.Mailbox[State]),
	}, nil
}

// OnClockTick starts an automatic backup when now has reached NextFireAt.
// It returns a nil Outcome when nothing was due or a backup is already in
// flight; the in-flight one is the backup that tick would have started.
func (s *Scheduler) OnClockTick(ctx context.Context, now time.Time) (*Outcome, error) {
	paths, ok := s.begin(TriggerTimer, func(st State) bool {
		return !now.Before(st.NextFireAt)
	})
	if !ok {
		return nil, nil
	}
	return s.run(ctx, TriggerTimer, paths)
}

// OnManualTrigger runs a backup now. It never queues: while another backup
// runs it returns ErrAlreadyRunning.
func (s *Scheduler) OnManualTrigger(ctx context.Context) (*Outcome, error) {
	return s.trigger(ctx, TriggerManual)
}

// OnProcessExit runs the final backup after the target process stopped,
// regardless of the countdown. A backup already in flight wins and this one
// is skipped.
func (s *Scheduler) OnProcessExit(ctx context.Context) (*Outcome, error) {
	return s.trigger(ctx, TriggerProcessExit)
}

func (s *Scheduler) trigger(ctx context.Context, t Trigger) (*Outcome, error) {
	paths, ok := s.begin(t, nil)
	if !ok {
		s.log.Info("scheduler: trigger rejected, backup in progress", "trigger", t)
		s.notifier.Notify("Backup Already Running", fmt.Sprintf("A backup is already in progress; the %s request was skipped.", describe(t)))
		return nil, ErrAlreadyRunning
	}
	return s.run(ctx, t, paths)
}

// begin is the single entry into BackupRunning. ready, when set, is checked
// under the same lock as the in-progress flag.
func (s *Scheduler) begin(t Trigger, ready func(State) bool) (Paths, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.BackupInProgress {
		return Paths{}, false
	}
	if ready != nil && !ready(s.state) {
		return Paths{}, false
	}
	s.state.BackupInProgress = true
	s.state.LastTrigger = t
	s.publishLocked()
	return s.paths, true
}

func (s *Scheduler) run(ctx context.Context, t Trigger, paths Paths) (*Outcome, error) {
	started := s.clock.Now()
	s.log.Info("scheduler: backup started", "trigger", t, "source", paths.Source, "destination", paths.Destination)

	rec, err := s.exec.Execute(ctx, paths.Source, paths.Destination, started)
	completed := s.clock.Now()

	out := &Outcome{
		Trigger:     t,
		Record:      rec,
		StartedAt:   started,
		CompletedAt: completed,
	}

	if err == nil {
		pruned, perr := s.retention.Apply(ctx, paths.Destination, completed)
		out.Pruned = pruned
		if perr != nil {
			s.log.Warn("scheduler: retention incomplete", "error", perr)
		}
	}

	s.persistMu.Lock()
	s.mu.Lock()
	s.state.BackupInProgress = false
	s.state.NextFireAt = completed.Add(s.state.Interval())
	if err == nil {
		s.state.LastBackupAt = started
		s.state.LastError = ""
	} else {
		s.state.LastError = err.Error()
	}
	st := s.state
	s.publishLocked()
	s.mu.Unlock()

	out.NextFireAt = st.NextFireAt

	// persist even when ctx is being cancelled for shutdown
	pctx := context.WithoutCancel(ctx)
	if perr := s.store.SaveSchedule(pctx, st.LastBackupAt, st.NextFireAt); perr != nil {
		s.log.Error("scheduler: persisting schedule failed", "error", perr)
	}
	s.persistMu.Unlock()

	if err != nil {
		s.reportFailure(t, paths, err)
		return out, err
	}

	s.log.Info("scheduler: backup complete", "trigger", t, "snapshot", rec.Name(), "size", rec.Size,
		"pruned", len(out.Pruned), "took", completed.Sub(started), "next", st.NextFireAt)
	msg := fmt.Sprintf("Backup saved at %s", started.Format(time.DateTime))
	if n := len(out.Pruned); n > 0 {
		msg += fmt.Sprintf(" (%d old snapshot(s) removed)", n)
	}
	s.notifier.Notify("Backup Complete", msg)
	return out, nil
}

func (s *Scheduler) reportFailure(t Trigger, paths Paths, err error) {
	s.log.Error("scheduler: backup failed", "trigger", t, "error", err)
	if errors.Is(err, worker.ErrSourceNotFound) {
		s.notifier.Notify("Source Folder Not Found", fmt.Sprintf("Source folder %s not found!", paths.Source))
		return
	}
	s.notifier.Notify("Backup Failed", err.Error())
}

// SetInterval changes the backup interval and restarts the countdown from
// now.
func (s *Scheduler) SetInterval(ctx context.Context, minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidInterval, minutes)
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	now := s.clock.Now()

	s.mu.Lock()
	s.state.IntervalMinutes = minutes
	s.state.NextFireAt = now.Add(time.Duration(minutes) * time.Minute)
	next := s.state.NextFireAt
	s.publishLocked()
	s.mu.Unlock()

	s.log.Info("scheduler: interval changed", "minutes", minutes, "next", next)
	if err := s.store.SaveInterval(ctx, minutes, next); err != nil {
		s.log.Error("scheduler: persisting interval failed", "error", err)
	}
	return nil
}

// SetRetention changes the snapshot limit and prunes right away when no
// backup is running. A running backup applies the new limit when it ends.
func (s *Scheduler) SetRetention(ctx context.Context, maxSnapshots int) ([]snapshot.Record, error) {
	if maxSnapshots < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidRetention, maxSnapshots)
	}
	s.persistMu.Lock()
	s.retention.SetMaxSnapshots(maxSnapshots)
	if err := s.store.SaveMaxSnapshots(ctx, maxSnapshots); err != nil {
		s.log.Error("scheduler: persisting max snapshots failed", "error", err)
	}
	s.persistMu.Unlock()

	s.mu.Lock()
	if s.state.BackupInProgress {
		s.mu.Unlock()
		return nil, nil
	}
	s.state.BackupInProgress = true
	paths := s.paths
	s.mu.Unlock()

	pruned, err := s.retention.Apply(ctx, paths.Destination, s.clock.Now())

	s.mu.Lock()
	s.state.BackupInProgress = false
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("scheduler: retention incomplete", "error", err)
	}
	return pruned, err
}

// SetPaths takes effect from the next backup; one in flight keeps the
// paths it started with.
func (s *Scheduler) SetPaths(ctx context.Context, p Paths) error {
	if p.Source == "" || p.Destination == "" {
		return errors.New("source and destination paths are required")
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	changed := s.paths != p
	s.paths = p
	s.mu.Unlock()

	if !changed {
		return nil
	}
	s.log.Info("scheduler: paths changed", "source", p.Source, "destination", p.Destination)
	if err := s.store.SavePaths(ctx, p.Source, p.Destination); err != nil {
		s.log.Error("scheduler: persisting paths failed", "error", err)
	}
	return nil
}

func (s *Scheduler) Paths() Paths {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paths
}

// State returns a copy of the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentCountdown is max(0, NextFireAt-now). It never changes state.
func (s *Scheduler) CurrentCountdown(now time.Time) time.Duration {
	return s.State().Countdown(now)
}

// Subscribe returns a mailbox that always holds the latest state after each
// change. Call the returned func to stop receiving.
func (s *Scheduler) Subscribe() (*mailbox.Mailbox[State], func()) {
	mb := mailbox.New[State]()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = mb
	mb.Put(s.state)
	s.mu.Unlock()

	return mb, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Scheduler) publishLocked() {
	for _, mb := range s.subs {
		mb.Put(s.state)
	}
}

func describe(t Trigger) string {
	switch t {
	case TriggerProcessExit:
		return "process-exit"
	default:
		return string(t)
	}
}
