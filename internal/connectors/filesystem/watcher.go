package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/logger"
)

// DefaultDebounce is the quiet period before a batch of changes is emitted.
const DefaultDebounce = 2 * time.Second

// ChangeKind describes what happened to a watched file.
type ChangeKind int

// Change kinds.
const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeDeleted
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a single file change below the watched root.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher reports batches of document changes below a directory.
type Watcher struct {
	root     string
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a batch is emitted.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for root. Nothing is watched until Watch is called.
func NewWatcher(root string, opts ...WatcherOption) *Watcher {
	w := &Watcher{root: root, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch starts watching the root directory recursively. Changes to supported
// documents are collected until the debounce period passes without new events,
// then delivered as one batch. The channel is closed when ctx is cancelled or
// the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan []Change, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("watcher closed")
	}
	if w.watcher != nil {
		return nil, errors.New("watcher already running")
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
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addRecursive(fw, w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w.watcher = fw

	out := make(chan []Change)
	go w.loop(ctx, fw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- []Change) {
	defer close(out)
	defer func() {
		w.mu.Lock()
		if w.watcher == fw {
			w.watcher = nil
		}
		w.mu.Unlock()
		_ = fw.Close()
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending []Change

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
				if err := addRecursive(fw, event.Name); err != nil {
					logger.Warn("watch %s: %v", event.Name, err)
				}
				continue
			}
			change, ok := toChange(event)
			if !ok {
				continue
			}
			logger.Debug("watch: %s %s", change.Kind, change.Path)
			pending = append(pending, change)
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			select {
			case out <- pending:
			case <-ctx.Done():
				return
			}
			pending = nil
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		return err
	}
	return nil
}

// toChange maps an fsnotify event onto a document change.
// Events for hidden or unsupported files and chmod-only events are dropped.
func toChange(event fsnotify.Event) (Change, bool) {
	if isHidden(filepath.Base(event.Name)) {
		return Change{}, false
	}
	if _, ok := domain.FileTypeFromPath(event.Name); !ok {
		return Change{}, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return Change{Path: event.Name, Kind: ChangeDeleted}, true
	case event.Has(fsnotify.Create):
		return Change{Path: event.Name, Kind: ChangeCreated}, true
	case event.Has(fsnotify.Write):
		return Change{Path: event.Name, Kind: ChangeUpdated}, true
	default:
		return Change{}, false
	}
}

// addRecursive watches dir and every non-hidden directory below it.
func addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
