// Package watcher turns filesystem notifications for a directory into
// domain.FileChange events. It drives `qplens paper watch`.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/qplens/qplens/internal/core/domain"
	"github.com/qplens/qplens/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before its change is emitted.
// Editors and copy tools usually produce a create followed by several writes.
const DefaultDebounce = 500 * time.Millisecond

// Watcher emits file changes for one directory (non-recursive).
type Watcher struct {
	fs       *fsnotify.Watcher
	accept   func(path string) bool
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is emitted. Zero emits immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher that only reports paths for which accept returns true.
// A nil accept reports every non-hidden file.
func New(accept func(path string) bool, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		accept:   accept,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts monitoring dir. The returned channel closes when ctx is
// cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan domain.FileChange, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: watch %s: %w", domain.ErrInvalidInput, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}
	if err := w.fs.Add(dir); err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	changes := make(chan domain.FileChange, 100)
	go w.loop(ctx, changes)
	return changes, nil
}

func (w *Watcher) loop(ctx context.Context, changes chan<- domain.FileChange) {
	defer close(changes)

	pending := make(map[string]pendingChange)
	var tick <-chan time.Time
	if w.debounce > 0 {
		ticker := time.NewTicker(w.debounce / 2)
		defer ticker.Stop()
		tick = ticker.C
	}

	emit := func(change domain.FileChange) bool {
		select {
		case changes <- change:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			change := w.handleEvent(event)
			if change == nil {
				continue
			}
			if w.debounce == 0 {
				if !emit(*change) {
					return
				}
				continue
			}
			pending[change.Path] = merge(pending[change.Path], *change, time.Now().Add(w.debounce))

		case now := <-tick:
			for path, p := range pending {
				if now.Before(p.due) {
					continue
				}
				delete(pending, path)
				if !emit(p.change) {
					return
				}
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

// pendingChange is a change waiting for its path to go quiet.
type pendingChange struct {
	change domain.FileChange
	due    time.Time
	seen   bool
}

// merge folds a new event into a pending one. A file created and then
// written is still reported as created.
func merge(prev pendingChange, next domain.FileChange, due time.Time) pendingChange {
	if prev.seen && prev.change.Type == domain.ChangeCreated && next.Type == domain.ChangeUpdated {
		next.Type = domain.ChangeCreated
	}
	return pendingChange{change: next, due: due, seen: true}
}

// handleEvent maps an fsnotify event to a change, or nil when it is ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) *domain.FileChange {
	if isHidden(event.Name) {
		return nil
	}
	if w.accept != nil && !w.accept(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeCreated, Path: event.Name}
	case event.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeUpdated, Path: event.Name}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.FileChange{Type: domain.ChangeDeleted, Path: event.Name}
	default:
		return nil
	}
}

// Close stops the watcher and closes its change channel.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
