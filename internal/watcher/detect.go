package watcher

import (
	"os"
	"time"
)

// detect calls onChange once per observed change of the file's mtime or
// size. A missing file is not a change.
func (w *Watcher) detect() bool {
	w.mu.RLock()
	path := w.path
	lastMod, lastSize := w.lastMod, w.lastSize
	stability := w.stability
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.ModTime().Equal(lastMod) && info.Size() == lastSize {
		return false
	}
	if !isStable(path, info.Size(), stability) {
		return false
	}

	w.mu.Lock()
	w.lastMod = info.ModTime()
	w.lastSize = info.Size()
	w.mu.Unlock()

	w.log.Info("watcher: config file changed", "path", path)
	w.onChange()
	return true
}

// isStable reports whether the file still has size after waiting window.
// An editor still writing gets picked up on the next event or poll.
func isStable(path string, size int64, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	time.Sleep(window)

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() == size
}
