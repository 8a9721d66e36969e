// Package watcher notices edits to the config file and asks for a reload.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/snapkeep/internal/config"
	"github.com/raoulx24/snapkeep/internal/fsprobe"
	"github.com/raoulx24/snapkeep/internal/logging"
)

// Watcher calls onChange after the watched file settles on new content.
type Watcher struct {
	mu sync.RWMutex

	path      string
	mode      string
	interval  time.Duration
	debounce  time.Duration
	stability time.Duration

	log      logging.Logger
	onChange func()

	lastMod  time.Time
	lastSize int64
}

// New creates a watcher for the file at path. The file's current state is
// the baseline, so starting never fires onChange by itself.
func New(cfg config.ReloadConfig, path string, log logging.Logger, onChange func()) *Watcher {
	w := &Watcher{
		path:      path,
		mode:      cfg.Mode,
		interval:  cfg.PollInterval,
		debounce:  cfg.DebounceWindow,
		stability: cfg.DebounceWindow / 2,
		log:       log,
		onChange:  onChange,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
		w.lastSize = info.Size()
	}
	return w
}

// Start chooses the watching strategy from the mode and blocks until ctx is
// done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	w.mu.RUnlock()

	switch mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)

	case "poll":
		w.StartPolling(ctx)
		return nil

	case "auto":
		res := fsprobe.Probe(filepath.Dir(w.path))
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("watcher: fsnotify disabled, polling instead", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

// UpdateConfig applies new debounce timings from the next change. The mode
// and poll interval are fixed once Start runs and are not taken from cfg.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.debounce = cfg.DebounceWindow
	w.stability = cfg.DebounceWindow / 2
}
