// Package watch invalidates compiled-template cache entries when their
// source files change, for dev-mode hot reload.
package watch

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vellumhq/vellum/pkg/cache"
)

// debounceWindow swallows the bursts of duplicate events editors produce
// for a single save.
const debounceWindow = 100 * time.Millisecond

// Watcher watches template roots recursively and drops the cache entry
// (plus dependents) for every changed file.
type Watcher struct {
	fw     *fsnotify.Watcher
	store  *cache.Store
	logger *slog.Logger

	// OnInvalidate, when set, runs after each invalidation. Embedding
	// servers use it to trigger live reload.
	OnInvalidate func(path string)

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func New(store *cache.Store, roots []string, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w := &Watcher{fw: fw, store: store, logger: logger, lastSeen: map[string]time.Time{}}
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return w.fw.Add(path)
			}
			return nil
		})
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) Close() error { return w.fw.Close() }

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fw.Add(event.Name); err != nil {
				w.logger.Warn("watching new directory failed", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if !w.debounce(event.Name) {
		return
	}
	w.store.Invalidate(event.Name)
	w.logger.Debug("invalidated template", "path", event.Name, "op", event.Op.String())
	if w.OnInvalidate != nil {
		w.OnInvalidate(event.Name)
	}
}

// debounce reports whether this change should be acted on, suppressing
// repeats for the same path inside the debounce window.
func (w *Watcher) debounce(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.lastSeen[path]; ok && now.Sub(last) < debounceWindow {
		return false
	}
	w.lastSeen[path] = now
	return true
}
