// Package watch triggers rebuilds when source files change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period a path needs before it is reported.
const DefaultDebounce = 300 * time.Millisecond

// Func handles a batch of settled paths, sorted.
type Func func(ctx context.Context, paths []string) error

// Watcher reports changes below a set of directories. A path is reported
// once no event for it has arrived for Debounce, so an editor's burst of
// writes on save becomes one rebuild.
type Watcher struct {
	Logger   *zap.Logger
	Debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// Watch blocks until ctx is done, calling fn with the paths accepted by
// match whenever they settle. Directories created later are watched too.
func Watch(ctx context.Context, dirs []string, match func(string) bool, debounce time.Duration, fn Func) error {
	w := &Watcher{Debounce: debounce}
	return w.Run(ctx, dirs, match, fn)
}

// Run is Watch with the watcher's logger and debounce.
func (w *Watcher) Run(ctx context.Context, dirs []string, match func(string) bool, fn Func) error {
	if w.Logger == nil {
		w.Logger = zap.NewNop()
	}
	if w.Debounce <= 0 {
		w.Debounce = DefaultDebounce
	}
	if match == nil {
		match = func(string) bool { return true }
	}
	w.pending = make(map[string]time.Time)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, dir := range dirs {
		if err := w.addTree(fsw, dir); err != nil {
			return err
		}
	}

	tick := w.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Debug("Watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event, match)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("Watcher error", zap.Error(err))

		case <-ticker.C:
			paths := w.settled(time.Now())
			if len(paths) == 0 {
				continue
			}
			w.Logger.Debug("Sources changed", zap.Strings("paths", paths))
			if err := fn(ctx, paths); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.Logger.Error("Rebuild failed", zap.Error(err))
			}
		}
	}
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return err
		}
		w.Logger.Debug("Watching directory", zap.String("path", path))
		return nil
	})
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, match func(string) bool) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				w.Logger.Warn("Failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return // chmod
	}
	if !match(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// settled removes and returns the paths quiet for at least Debounce.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.Debounce {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(paths)
	return paths
}
