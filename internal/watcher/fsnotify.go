package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StartFsNotify watches the file's directory, since editors often replace
// the file by rename, and runs detect() once events for it go quiet.
func (w *Watcher) StartFsNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	w.mu.RLock()
	path := w.path
	w.mu.RUnlock()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Base(path)

	resetCh := make(chan struct{}, 1)
	defer close(resetCh)

	go func() {
		var t *time.Timer
		for range resetCh {
			if t != nil {
				t.Stop()
			}
			w.mu.RLock()
			debounce := w.debounce
			w.mu.RUnlock()
			t = time.AfterFunc(debounce, func() {
				defer func() {
					if r := recover(); r != nil {
						w.log.Error("watcher: detect panic", "panic", r)
					}
				}()
				if ctx.Err() == nil {
					w.detect()
				}
			})
		}
		if t != nil {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				w.log.Error("watcher: events channel closed")
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			w.log.Debug("watcher: event", "name", ev.Name, "op", ev.Op.String())

			select {
			case resetCh <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: fsnotify error", "error", err)
		}
	}
}
