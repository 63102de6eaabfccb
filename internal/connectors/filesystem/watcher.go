// Package filesystem watches a local corpus for document changes.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/kurator/internal/logger"
)

// DefaultDebounce is how long the watcher waits for the corpus to settle
// before reporting a batch of changes.
const DefaultDebounce = 2 * time.Second

// Watcher reports changed files under a set of corpus roots. Events are
// coalesced: a burst of writes yields a single batch once the corpus has
// been quiet for the debounce window.
type Watcher struct {
	roots    []string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a watcher over roots. A debounce of zero uses DefaultDebounce.
func New(roots []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{roots: roots, debounce: debounce}
}

// Watch starts watching and returns a channel of change batches. Each batch
// is a sorted, de-duplicated list of changed paths. The channel closes when
// ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) (<-chan []string, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w.watcher = fw

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	out := make(chan []string)
	go w.loop(ctx, out)
	return out, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context, out chan<- []string) {
	defer close(out)
	defer func() { _ = w.watcher.Close() }()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			path, ok := w.handleFsEvent(event)
			if !ok {
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})

			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleFsEvent filters an event down to a changed document path. New
// directories are watched but not reported. Hidden entries and pure
// permission changes are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if isHidden(event.Name) {
		return "", false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.watcher != nil {
				if err := w.addTree(event.Name); err != nil {
					logger.Warn("watcher: %v", err)
				}
			}
			return "", false
		}
	}

	logger.Debug("watcher: %s %s", event.Op, event.Name)
	return event.Name, true
}

// addTree watches dir and every non-hidden directory below it. A file root
// is watched through its parent directory.
func (w *Watcher) addTree(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	if !info.IsDir() {
		if err := w.watcher.Add(filepath.Dir(dir)); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
