// Package retention deletes old snapshots so the destination root stays
// within the configured count and age limits.
package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raoulx24/snapkeep/internal/config"
	snapfs "github.com/raoulx24/snapkeep/internal/fs"
	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/snapshot"
)

// ErrPruneFailed matches every PruneError.
var ErrPruneFailed = errors.New("prune failed")

// PruneError records a snapshot that could not be removed.
type PruneError struct {
	Record snapshot.Record
	Err    error
}

func (e *PruneError) Error() string {
	return fmt.Sprintf("removing snapshot %s: %v", e.Record.Name(), e.Err)
}

func (e *PruneError) Unwrap() error { return e.Err }

func (e *PruneError) Is(target error) bool { return target == ErrPruneFailed }

// Policy limits what is kept. MaxAge of zero disables age pruning.
type Policy struct {
	MaxSnapshots int
	MaxAge       time.Duration
}

// PolicyFrom reads the retention section of the config.
func PolicyFrom(cfg config.RetentionConfig) Policy {
	return Policy{MaxSnapshots: cfg.MaxSnapshots, MaxAge: cfg.MaxAge}
}

type Engine struct {
	mu     sync.RWMutex
	policy Policy
	fs     snapfs.FS
	log    logging.Logger
}

// New creates an engine. A nil filesystem selects the OS filesystem.
func New(policy Policy, log logging.Logger, filesystem snapfs.FS) *Engine {
	if filesystem == nil {
		filesystem = snapfs.New()
	}
	return &Engine{
		policy: policy,
		fs:     filesystem,
		log:    log,
	}
}

// UpdateConfig replaces the policy used by later Apply calls.
func (e *Engine) UpdateConfig(p Policy) {
	e.mu.Lock()
	e.policy = p
	e.mu.Unlock()
}

// SetMaxSnapshots changes only the count limit.
func (e *Engine) SetMaxSnapshots(n int) {
	e.mu.Lock()
	e.policy.MaxSnapshots = n
	e.mu.Unlock()
}

func (e *Engine) Policy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// Apply runs count pruning followed by age pruning with the current policy.
// Removal failures are joined into the returned error; everything that
// could be removed has been.
func (e *Engine) Apply(ctx context.Context, root string, now time.Time) ([]snapshot.Record, error) {
	p := e.Policy()

	removed, err := e.Prune(ctx, root, p.MaxSnapshots)
	if p.MaxAge <= 0 {
		return removed, err
	}

	aged, ageErr := e.PruneOlderThan(ctx, root, now.Add(-p.MaxAge))
	return append(removed, aged...), errors.Join(err, ageErr)
}

// Prune removes the oldest snapshots under root until at most keep remain.
// A snapshot that cannot be removed is recorded and skipped; the next
// oldest is tried instead. Directories not named like snapshots are never
// considered.
func (e *Engine) Prune(ctx context.Context, root string, keep int) ([]snapshot.Record, error) {
	if keep < 1 {
		return nil, fmt.Errorf("max snapshots must be >= 1, got %d", keep)
	}

	recs, err := snapshot.List(e.fs, root)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	remaining := len(recs)
	if remaining <= keep {
		return nil, nil
	}

	var removed []snapshot.Record
	var errs []error
	for _, rec := range recs {
		if remaining <= keep {
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.remove(rec); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, rec)
		remaining--
	}
	return removed, errors.Join(errs...)
}

// PruneOlderThan removes snapshots last modified before cutoff. The newest
// snapshot is always kept, whatever its age.
func (e *Engine) PruneOlderThan(ctx context.Context, root string, cutoff time.Time) ([]snapshot.Record, error) {
	recs, err := snapshot.List(e.fs, root)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	if len(recs) < 2 {
		return nil, nil
	}

	var removed []snapshot.Record
	var errs []error
	for _, rec := range recs[:len(recs)-1] {
		if !rec.ModTime.Before(cutoff) {
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.remove(rec); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, rec)
	}
	return removed, errors.Join(errs...)
}

func (e *Engine) remove(rec snapshot.Record) error {
	if err := e.fs.RemoveAll(rec.Path); err != nil {
		e.log.Warn("retention: removal failed", "snapshot", rec.Name(), "error", err)
		return &PruneError{Record: rec, Err: err}
	}
	e.log.Info("retention: removed snapshot", "snapshot", rec.Name())
	return nil
}
