// Package fsprobe checks whether fsnotify delivers events for a directory.
// Network shares and some container mounts accept a watch but never report
// anything, so the check does a real create and rename.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWait bounds how long Probe waits for the first event.
const DefaultWait = 200 * time.Millisecond

// Result reports whether fsnotify is usable and why not.
type Result struct {
	FsnotifySupported bool
	Reason            string
}

// Probe tests dir with DefaultWait.
func Probe(dir string) Result {
	return ProbeWait(dir, DefaultWait)
}

// ProbeWait tests whether fsnotify reports a create or rename in dir
// within wait.
func ProbeWait(dir string, wait time.Duration) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}
	if !st.IsDir() {
		return Result{false, "not a directory"}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{false, fmt.Sprintf("fsnotify unavailable: %v", err)}
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return Result{false, fmt.Sprintf("cannot watch directory: %v", err)}
	}

	f, err := os.CreateTemp(dir, ".snapkeep-probe-*")
	if err != nil {
		return Result{false, fmt.Sprintf("cannot create probe file: %v", err)}
	}
	tmp := f.Name()
	f.Close()

	final := tmp + ".done"
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return Result{false, fmt.Sprintf("rename failed: %v", err)}
	}
	defer os.Remove(final)

	prefix := filepath.Base(tmp)
	timeout := time.After(wait)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return Result{false, "event channel closed"}
			}
			if ev.Op&(fsnotify.Rename|fsnotify.Create) != 0 && strings.HasPrefix(filepath.Base(ev.Name), prefix) {
				return Result{true, ""}
			}
		case <-timeout:
			return Result{false, "no events received (rename not reported)"}
		}
	}
}
