package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the data file and config directories for changes and
// invalidates the store so the next access reloads. An optional OnReload
// hook runs after each invalidation, e.g. to rebuild the search index.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	paths    []string
	debounce time.Duration
	stdout   io.Writer
	stderr   io.Writer

	// OnReload runs after the store cache has been dropped.
	OnReload func()

	mu         sync.Mutex
	lastChange time.Time
	changeSeq  uint64
}

// NewWatcher creates a watcher over the given paths. Directories are
// watched recursively; files are watched via their parent directory.
func NewWatcher(store *Store, paths []string, debounce time.Duration, stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  fsWatcher,
		store:    store,
		paths:    paths,
		debounce: debounce,
		stdout:   stdout,
		stderr:   stderr,
	}, nil
}

// Start begins watching for file changes until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			w.logError("failed to stat %s: %v", path, err)
		case info.IsDir():
			if err := w.watchDirRecursive(path); err != nil {
				w.logError("failed to watch dir %s: %v", path, err)
			} else {
				w.logInfo("watching: %s", path)
			}
		default:
			// fsnotify delivers reliable events for files via their
			// directory, not the file itself.
			if err := w.watcher.Add(filepath.Dir(path)); err != nil {
				w.logError("failed to watch %s: %v", path, err)
			} else {
				w.logInfo("watching: %s", path)
			}
		}
	}

	go w.eventLoop(ctx)
	return nil
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func (w *Watcher) watchDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Debounce rapid changes
			w.mu.Lock()
			if time.Since(w.lastChange) < w.debounce {
				w.mu.Unlock()
				continue
			}
			w.lastChange = time.Now()
			w.changeSeq++
			w.mu.Unlock()

			w.handleChange(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleChange(path string) {
	w.logInfo("content changed: %s", path)
	w.store.Invalidate()
	if w.OnReload != nil {
		w.OnReload()
	}
}

// ChangeSeq returns the number of change events handled so far.
func (w *Watcher) ChangeSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changeSeq
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
