// Package watch monitors the source checkout and reports debounced change events.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for the tree to settle before firing.
const DefaultDebounce = 100 * time.Millisecond

// skippedDirs are never watched. Hidden directories are skipped as well.
var skippedDirs = map[string]bool{
	"node_modules": true,
}

// Event describes the last change of a burst that triggered a callback.
type Event struct {
	Path string
	Op   fsnotify.Op
}

type eventWatcher interface {
	Add(name string) error
	Close() error
	Events() chan fsnotify.Event
	Errors() chan error
}

type fsnotifyWatcher struct {
	w *fsnotify.Watcher
}

func (f *fsnotifyWatcher) Add(name string) error       { return f.w.Add(name) }
func (f *fsnotifyWatcher) Close() error                { return f.w.Close() }
func (f *fsnotifyWatcher) Events() chan fsnotify.Event { return f.w.Events }
func (f *fsnotifyWatcher) Errors() chan error          { return f.w.Errors }

func newFSNotifyWatcher() (eventWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsnotifyWatcher{w: w}, nil
}

// Watcher monitors a directory tree for changes.
type Watcher struct {
	root     string
	logger   *slog.Logger
	Debounce time.Duration
	// Ready is closed once the initial tree is being watched.
	Ready chan struct{}

	newWatcher func() (eventWatcher, error)
}

// New creates a Watcher for the tree below root.
func New(root string, logger *slog.Logger) *Watcher {
	return &Watcher{
		root:       root,
		logger:     logger.With("component", "watcher"),
		Debounce:   DefaultDebounce,
		Ready:      make(chan struct{}),
		newWatcher: newFSNotifyWatcher,
	}
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Watch blocks until ctx is cancelled, calling callback once each burst of relevant
// changes has settled. Callbacks never overlap and never outlive Watch.
func (w *Watcher) Watch(ctx context.Context, callback func(Event)) error {
	watcher, err := w.newWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.root); err != nil {
		return err
	}

	w.logger.Debug("Watcher started", "root", w.root)
	if w.Ready != nil {
		close(w.Ready)
	}

	var (
		timer   *time.Timer
		fire    sync.Mutex
		stopped bool
	)
	// A callback that is already running finishes before Watch returns, and none starts after.
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		fire.Lock()
		stopped = true
		fire.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if !w.handleEvent(watcher, event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			ev := Event{Path: event.Name, Op: event.Op}
			timer = time.AfterFunc(w.Debounce, func() {
				fire.Lock()
				defer fire.Unlock()
				if stopped || ctx.Err() != nil {
					return
				}
				callback(ev)
			})
		}
	}
}

// handleEvent starts watching newly created directories and reports whether the event
// should trigger a callback.
func (w *Watcher) handleEvent(watcher eventWatcher, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if ignored(event.Name) {
		return false
	}

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			// Files written into it before it was watched are missed, so it still counts.
			if err := w.addRecursive(watcher, event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}
	return true
}

// addRecursive adds root and every non-skipped directory below it.
func (w *Watcher) addRecursive(watcher eventWatcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skippedDirs[name]
}

// ignored reports whether a changed path lives in, or is, something never watched.
// Editor swap and backup files are hidden or end in '~'.
func ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	return skippedDirs[base]
}
