// Package filesystem watches a transcript directory tree and reports which
// files were created, updated or deleted.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lectern/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("filesystem: watcher closed")

// ChangeType classifies a file change.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is one file event after filtering.
type Change struct {
	Type ChangeType
	Path string
}

// Watcher reports changes to transcript files anywhere under a directory.
// Hidden directories are skipped, matching IngestDir.
type Watcher struct {
	root       string
	extensions map[string]bool
	debounce   time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a watcher for root. Only files with one of the given
// extensions are reported; no extensions means every file.
func New(root string, extensions ...string) *Watcher {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Watcher{
		root:       root,
		extensions: exts,
		debounce:   DefaultDebounce,
	}
}

// WithDebounce overrides the debounce interval.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Watch starts watching and returns a channel of changes. The channel is
// closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if _, err := w.addTree(fw, w.root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.root, err)
	}
	w.watcher = fw

	out := make(chan Change)
	go w.loop(ctx, fw, out)
	return out, nil
}

// loop debounces events per path and forwards the latest change for each.
func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- Change) {
	defer close(out)

	pending := make(map[string]Change)
	var flush <-chan time.Time
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			var found []Change
			if dir := w.newDir(event); dir != "" {
				// Files can land in a new directory before it is watched.
				files, err := w.addTree(fw, dir)
				if err != nil {
					logger.Warn("watch %s: %v", dir, err)
				}
				for _, f := range files {
					found = append(found, Change{Type: ChangeCreated, Path: f})
				}
			} else if change := w.handleFsEvent(event); change != nil {
				found = append(found, *change)
			}
			if len(found) == 0 {
				continue
			}
			for _, change := range found {
				pending[change.Path] = mergeChange(pending[change.Path], change)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			flush = timer.C

		case <-flush:
			flush = nil
			for path, change := range pending {
				delete(pending, path)
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", w.root, err)
		}
	}
}

// mergeChange keeps a create from being downgraded by the writes that follow it.
func mergeChange(prev, next Change) Change {
	if prev.Type == ChangeCreated && next.Type == ChangeUpdated {
		return prev
	}
	return next
}

// addTree watches dir and every non-hidden directory below it, returning
// the transcript files already present.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if w.relevant(path) {
				files = append(files, path)
			}
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	return files, err
}

// newDir returns the path of a visible directory the event created, or "".
func (w *Watcher) newDir(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) {
		return ""
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || isHidden(rel) {
		return ""
	}
	if info, err := os.Stat(event.Name); err != nil || !info.IsDir() {
		return ""
	}
	return event.Name
}

func (w *Watcher) relevant(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	return err == nil && !isHidden(rel) && w.accepts(path)
}

// handleFsEvent maps an fsnotify event to a change, or nil if it is ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	if !w.relevant(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: event.Name}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		if event.Has(fsnotify.Create) {
			return &Change{Type: ChangeCreated, Path: event.Name}
		}
		return &Change{Type: ChangeUpdated, Path: event.Name}
	}

	return nil
}

func (w *Watcher) accepts(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
