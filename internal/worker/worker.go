// Package worker takes snapshots: it copies the source folder into a
// staging directory and renames it into place once the copy is complete.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	snapfs "github.com/raoulx24/snapkeep/internal/fs"
	"github.com/raoulx24/snapkeep/internal/logging"
	"github.com/raoulx24/snapkeep/internal/snapshot"
)

// maxSuffix bounds the same-second collision search.
const maxSuffix = 1000

// Worker writes snapshot directories. It holds no scheduling state and
// never notifies; the caller decides what a result means.
type Worker struct {
	fs  snapfs.FS
	log logging.Logger
}

// New creates a worker. A nil filesystem selects the OS filesystem.
func New(log logging.Logger, filesystem snapfs.FS) *Worker {
	if filesystem == nil {
		filesystem = snapfs.New()
	}
	return &Worker{
		fs:  filesystem,
		log: log,
	}
}

// Execute copies source into a new backup_<stamp>[_N] directory under
// destRoot. On failure the staging directory is removed before returning.
func (w *Worker) Execute(ctx context.Context, source, destRoot string, now time.Time) (snapshot.Record, error) {
	w.log.Debug("entering Worker.Execute()", "source", source, "destRoot", destRoot)

	st, err := w.fs.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snapshot.Record{}, &BackupError{Kind: SourceNotFound, Path: source}
		}
		return snapshot.Record{}, &BackupError{Kind: SourceNotFound, Path: source, Err: err}
	}
	if !st.IsDir() {
		return snapshot.Record{}, &BackupError{Kind: SourceNotFound, Path: source, Err: errors.New("not a directory")}
	}

	if err := w.fs.MkdirAll(destRoot); err != nil {
		return snapshot.Record{}, &BackupError{Kind: CopyFailed, Path: destRoot, Err: fmt.Errorf("creating destination root: %w", err)}
	}

	name, seq, err := w.freeName(destRoot, now)
	if err != nil {
		return snapshot.Record{}, &BackupError{Kind: CopyFailed, Path: destRoot, Err: err}
	}

	tmpDir := filepath.Join(destRoot, snapshot.StagingName(name))
	finalDir := filepath.Join(destRoot, name)
	w.log.Debug("new destinations", "tmpDir", tmpDir, "finalDir", finalDir)

	size, err := w.fs.CopyTree(ctx, source, tmpDir)
	if err != nil {
		w.discard(tmpDir)
		return snapshot.Record{}, &BackupError{Kind: CopyFailed, Path: finalDir, Err: err}
	}

	// Finalize atomically
	if err := w.fs.Rename(ctx, tmpDir, finalDir); err != nil {
		w.discard(tmpDir)
		return snapshot.Record{}, &BackupError{Kind: CopyFailed, Path: finalDir, Err: fmt.Errorf("finalizing snapshot: %w", err)}
	}

	rec := snapshot.Record{
		CreatedAt: now.Truncate(time.Second),
		Seq:       seq,
		Path:      finalDir,
		Size:      size,
	}
	if fi, err := w.fs.Stat(finalDir); err == nil {
		rec.ModTime = fi.MTime
	}
	return rec, nil
}

// freeName picks the first backup_<stamp>[_N] for which neither the
// finished directory nor its staging directory exists. A leftover staging
// dir is left for SweepStaging.
func (w *Worker) freeName(destRoot string, now time.Time) (string, int, error) {
	for seq := 0; seq < maxSuffix; seq++ {
		name := snapshot.DirName(now, seq)
		free, err := w.absent(filepath.Join(destRoot, name))
		if err != nil {
			return "", 0, err
		}
		if !free {
			continue
		}
		free, err = w.absent(filepath.Join(destRoot, snapshot.StagingName(name)))
		if err != nil {
			return "", 0, err
		}
		if free {
			return name, seq, nil
		}
	}
	return "", 0, fmt.Errorf("no free snapshot name for %s after %d attempts", now.Format(snapshot.TimeLayout), maxSuffix)
}

func (w *Worker) absent(path string) (bool, error) {
	_, err := w.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", filepath.Base(path), err)
	}
	return false, nil
}

func (w *Worker) discard(dir string) {
	if err := w.fs.RemoveAll(dir); err != nil {
		w.log.Error("worker: removing partial snapshot failed", "dir", dir, "error", err)
	}
}

// SweepStaging removes staging directories left behind by a process that
// died mid-copy. It returns the paths it removed.
func (w *Worker) SweepStaging(destRoot string) ([]string, error) {
	infos, err := w.fs.ReadDir(destRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var removed []string
	var errs []error
	for _, info := range infos {
		if !info.IsDir() || !snapshot.IsStaging(info.Name) {
			continue
		}
		if err := w.fs.RemoveAll(info.Path); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", info.Path, err))
			continue
		}
		w.log.Info("worker: removed stale staging directory", "dir", info.Path)
		removed = append(removed, info.Path)
	}
	return removed, errors.Join(errs...)
}
